package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/storage"
)

var (
	ErrValidation = errors.New("validation")
	ErrNotFound   = errors.New("not found")
	ErrOutOfStock = errors.New("out of stock")
)

type Op string

const (
	OpAdd         Op = "add_cart_items"
	OpSetQuantity Op = "cart_quantity_set"
	OpRemove      Op = "cart_item_deleted"
	OpClear       Op = "cart_cleared"
)

// Change describes a committed mutation. Lines is a snapshot of the cart after it.
type Change struct {
	Op        Op
	ProductID int64
	Quantity  int
	Lines     []models.CartLine
}

type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Store owns the cart lines. Every mutation is written to the KV before it
// becomes visible; one Store per process is the only writer.
type Store struct {
	kv KV

	mu     sync.Mutex
	lines  []models.CartLine
	subs   map[int]func(Change)
	nextID int
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, subs: map[int]func(Change){}}
}

// Load replaces the in-memory cart with the persisted one. Missing or
// malformed data yields an empty cart.
func (s *Store) Load(ctx context.Context) {
	l := logging.FromContext(ctx).With("store", "cart.load")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	raw, err := s.kv.Get(ctx, storage.KeyCart)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			l.Warn("cart_read_failed", "error", err)
		}
		return
	}

	var lines []models.CartLine
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		l.Warn("cart_malformed_reset", "error", err)
		return
	}
	if err := validLines(lines); err != nil {
		l.Warn("cart_malformed_reset", "error", err)
		return
	}
	s.lines = lines
}

// validLines enforces one line per product with a positive quantity.
func validLines(lines []models.CartLine) error {
	seen := make(map[int64]struct{}, len(lines))
	for _, line := range lines {
		if line.ID == 0 {
			return fmt.Errorf("line without product id: %w", ErrValidation)
		}
		if line.Quantity < 1 {
			return fmt.Errorf("product %d quantity %d: %w", line.ID, line.Quantity, ErrValidation)
		}
		if _, dup := seen[line.ID]; dup {
			return fmt.Errorf("product %d listed twice: %w", line.ID, ErrValidation)
		}
		seen[line.ID] = struct{}{}
	}
	return nil
}

func (s *Store) AddLine(ctx context.Context, p models.Product, quantity int) (models.CartLine, error) {
	if quantity < 1 {
		quantity = 1
	}
	if p.Stock <= 0 {
		return models.CartLine{}, fmt.Errorf("product %d: %w", p.ID, ErrOutOfStock)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.snapshot()
	stock := p.Stock
	idx := indexOf(next, p.ID)
	if idx >= 0 {
		next[idx].Quantity = min(next[idx].Quantity+quantity, stock)
		next[idx].Name = p.Name
		next[idx].Price = p.Price
		next[idx].Image = p.Image
		next[idx].Stock = &stock
	} else {
		next = append(next, models.CartLine{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Quantity: min(quantity, stock),
			Image:    p.Image,
			Stock:    &stock,
		})
		idx = len(next) - 1
	}

	line := next[idx]
	if err := s.commit(ctx, next, Change{Op: OpAdd, ProductID: p.ID, Quantity: line.Quantity}); err != nil {
		return models.CartLine{}, err
	}
	return line, nil
}

func (s *Store) RemoveLine(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.lines, id)
	if idx < 0 {
		return nil
	}
	next := s.snapshot()
	next = append(next[:idx], next[idx+1:]...)
	return s.commit(ctx, next, Change{Op: OpRemove, ProductID: id})
}

// SetQuantity overwrites the quantity of an existing line. It rejects values
// below 1 and does not clamp to the cached stock.
func (s *Store) SetQuantity(ctx context.Context, id int64, quantity int) (models.CartLine, error) {
	if quantity < 1 {
		return models.CartLine{}, fmt.Errorf("quantity must be at least 1: %w", ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.lines, id)
	if idx < 0 {
		return models.CartLine{}, fmt.Errorf("cart line %d: %w", id, ErrNotFound)
	}
	next := s.snapshot()
	next[idx].Quantity = quantity

	line := next[idx]
	if err := s.commit(ctx, next, Change{Op: OpSetQuantity, ProductID: id, Quantity: quantity}); err != nil {
		return models.CartLine{}, err
	}
	return line, nil
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.commit(ctx, []models.CartLine{}, Change{Op: OpClear})
}

func (s *Store) Lines() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Store) Total() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for _, l := range s.lines {
		total += l.Subtotal()
	}
	return total
}

// Count is the number of items across all lines.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, l := range s.lines {
		n += l.Quantity
	}
	return n
}

// Subscribe registers fn for committed changes and returns its cancel func.
// fn runs synchronously after the mutation and must not call back into the Store.
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

func (s *Store) commit(ctx context.Context, next []models.CartLine, ch Change) error {
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode cart: %w", err)
	}
	if err := s.kv.Set(ctx, storage.KeyCart, string(data)); err != nil {
		return fmt.Errorf("save cart: %w", err)
	}
	s.lines = next

	ch.Lines = s.snapshot()
	for _, fn := range s.subs {
		fn(ch)
	}
	return nil
}

func (s *Store) snapshot() []models.CartLine {
	out := make([]models.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

func indexOf(lines []models.CartLine, id int64) int {
	for i := range lines {
		if lines[i].ID == id {
			return i
		}
	}
	return -1
}
