// Package tx provides the unit-of-work boundary for interactive operations:
// all aggregate mutations made inside RunInTx commit together, and domain
// events raised during the operation are published only after the commit
// succeeds. A publish failure is logged and swallowed; side effects are
// best-effort and at-most-once per triggering event.
package tx

import (
	"context"
	"log"
	"time"
)

// Event is a domain event queued during a unit of work and dispatched after
// commit.
type Event struct {
	Kind      string
	Key       string
	Payload   map[string]any
	Timestamp time.Time
}

// Publisher delivers committed domain events. Implementations must be safe
// for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// UnitOfWork runs an operation atomically and dispatches its events after a
// successful commit.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type bufferKey struct{}

type eventBuffer struct {
	events []Event
}

// Collect queues an event on the current unit of work. Outside a unit of work
// the event is dropped; operations that must emit events always run inside
// RunInTx.
func Collect(ctx context.Context, event Event) {
	buf, ok := ctx.Value(bufferKey{}).(*eventBuffer)
	if !ok {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	buf.events = append(buf.events, event)
}

// Manager is the in-process unit of work. The stores commit per-aggregate
// mutations atomically themselves (Execute callbacks); the manager's job is
// ordering: run the operation, then drain queued events to the publisher.
type Manager struct {
	publisher Publisher
	logger    *log.Logger
}

// NewManager builds a unit-of-work manager. A nil publisher disables event
// dispatch; a nil logger falls back to the default logger.
func NewManager(publisher Publisher, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{publisher: publisher, logger: logger}
}

// RunInTx executes fn with an event buffer attached. If fn returns an error,
// queued events are discarded. On success, events are published one by one;
// failures are logged and never propagated to the caller.
func (m *Manager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	buf := &eventBuffer{}
	txCtx := context.WithValue(ctx, bufferKey{}, buf)

	if err := fn(txCtx); err != nil {
		return err
	}

	if m.publisher == nil {
		return nil
	}
	for _, event := range buf.events {
		if err := m.publisher.Publish(ctx, event); err != nil {
			m.logger.Printf("event publish failed kind=%s key=%s: %v", event.Kind, event.Key, err)
		}
	}
	return nil
}
