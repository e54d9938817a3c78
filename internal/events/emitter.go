package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	publishTimeout = 5 * time.Second
	queueSize      = 256
)

type envelope struct {
	topic string
	key   string
	event map[string]any
}

// Emitter hands events to a Publisher from a background goroutine so user
// operations never wait on the broker. Failures are only logged.
type Emitter struct {
	pub Publisher
	log *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan envelope
	done   chan struct{}
}

func NewEmitter(pub Publisher, log *slog.Logger) *Emitter {
	return &Emitter{
		pub:   pub,
		log:   log.With("component", "events"),
		queue: make(chan envelope, queueSize),
		done:  make(chan struct{}),
	}
}

// Emit stamps event with an event_id and queues it. A full queue drops the
// event; a nil Emitter drops everything.
func (e *Emitter) Emit(topic, key string, event map[string]any) {
	if e == nil {
		return
	}
	if _, ok := event["event_id"]; !ok {
		event["event_id"] = uuid.NewString()
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	select {
	case e.queue <- envelope{topic: topic, key: key, event: event}:
	default:
		e.log.Warn("event_dropped", "topic", topic, "type", event["type"])
	}
}

// Run publishes queued events until Close is called.
func (e *Emitter) Run() {
	defer close(e.done)
	for env := range e.queue {
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		if err := e.pub.PublishEvent(ctx, env.topic, env.key, env.event); err != nil {
			e.log.Error("event_publish_failed", "topic", env.topic, "type", env.event["type"], "error", err)
		}
		cancel()
	}
}

// Close stops accepting events, waits for the queue to drain or ctx to end,
// then closes the publisher.
func (e *Emitter) Close(ctx context.Context) error {
	e.mu.Lock()
	if !e.closed {
		e.closed = true
		close(e.queue)
	}
	e.mu.Unlock()

	select {
	case <-e.done:
	case <-ctx.Done():
	}
	return e.pub.Close()
}
