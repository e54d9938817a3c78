package catalog

import (
	"sync"
	"time"
)

const DefaultDebounce = 300 * time.Millisecond

// Search separates the text the user is typing from the query that drives
// filtering. The query follows the input only after it has been quiet for the
// debounce interval.
type Search struct {
	delay    time.Duration
	onCommit func(string)

	mu    sync.Mutex
	input string
	query string
	timer *time.Timer
	gen   uint64
}

// NewSearch returns a debouncer. onCommit, if non-nil, is called with every
// committed query outside the lock.
func NewSearch(delay time.Duration, onCommit func(string)) *Search {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Search{delay: delay, onCommit: onCommit}
}

func (s *Search) Type(input string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.input = input
	s.gen++
	gen := s.gen
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.commit(gen) })
}

// Flush commits the current input without waiting.
func (s *Search) Flush() {
	s.mu.Lock()
	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.query = s.input
	q := s.query
	s.mu.Unlock()

	if s.onCommit != nil {
		s.onCommit(q)
	}
}

// Stop drops a pending update.
func (s *Search) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Search) Input() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.input
}

func (s *Search) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

func (s *Search) commit(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.query = s.input
	q := s.query
	s.mu.Unlock()

	if s.onCommit != nil {
		s.onCommit(q)
	}
}
