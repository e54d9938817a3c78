package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
)

var (
	ErrNoSession = errors.New("no session")
	ErrMalformed = errors.New("malformed session")
)

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
}

// Change reports a saved session, or a destroyed one when Session is nil.
type Change struct {
	Session *models.Session
}

// Store keeps the logged-in user under the "user" key. The record is
// client-trusted and unsigned.
type Store struct {
	kv KV

	mu     sync.Mutex
	subs   map[int]func(Change)
	nextID int
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, subs: map[int]func(Change){}}
}

func (s *Store) Load(ctx context.Context) (models.Session, error) {
	raw, err := s.kv.Get(ctx, storage.KeySession)
	if errors.Is(err, storage.ErrNotFound) {
		return models.Session{}, ErrNoSession
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("read session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return models.Session{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if sess.ID == 0 {
		return models.Session{}, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	return sess, nil
}

func (s *Store) Save(ctx context.Context, sess models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeySession, string(data)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	s.notify(Change{Session: &sess})
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.kv.Remove(ctx, storage.KeySession); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	s.notify(Change{})
	return nil
}

func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(ch Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ch)
	}
}
