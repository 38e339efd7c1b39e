// Package bus implements the in-process typed publish/subscribe event bus
// that is the backbone of the agent: watchdogs never call each other
// directly, they only subscribe to and dispatch typed events here.
package bus

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/metrics"
)

// SubscriptionID identifies a single Subscribe call for later Unsubscribe.
type SubscriptionID string

type handlerEntry struct {
	id SubscriptionID
	fn func(context.Context, any) error
}

// Bus is the single-process event bus. The zero value is not usable; build
// one with New.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]handlerEntry
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// New builds a Bus. A nil logger is replaced with a no-op logger.
func New(logger logging.Logger) *Bus {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Bus{
		handlers: make(map[reflect.Type][]handlerEntry),
		logger:   logger,
	}
}

// AttachMetrics enables dispatch-count recording. Passing nil disables it
// again; safe to call before any Dispatch.
func (b *Bus) AttachMetrics(m *metrics.Metrics) {
	b.mu.Lock()
	b.metrics = m
	b.mu.Unlock()
}

// Subscribe registers handler for every event of type T. Type identity is
// the routing key — there are no topic strings. The returned id can be
// passed to Unsubscribe.
func Subscribe[T any](b *Bus, handler func(context.Context, T) error) SubscriptionID {
	t := reflect.TypeOf((*T)(nil)).Elem()
	id := SubscriptionID(uuid.NewString())
	entry := handlerEntry{
		id: id,
		fn: func(ctx context.Context, e any) error {
			return handler(ctx, e.(T))
		},
	}

	b.mu.Lock()
	b.handlers[t] = append(b.handlers[t], entry)
	b.mu.Unlock()
	return id
}

// Unsubscribe removes a previously registered handler. Safe to call more
// than once; unknown ids are a no-op.
func (b *Bus) Unsubscribe(id SubscriptionID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for t, entries := range b.handlers {
		for i, e := range entries {
			if e.id == id {
				b.handlers[t] = append(entries[:i], entries[i+1:]...)
				return
			}
		}
	}
}

// Dispatch concurrently invokes every handler registered for the dynamic
// type of event, waits for all of them to settle, and returns nil: handler
// errors and panics are logged but never propagated to the caller. A
// warning is logged when no handlers are registered for the event's type.
func Dispatch[T any](ctx context.Context, b *Bus, event T) error {
	t := reflect.TypeOf(event)

	b.mu.RLock()
	entries := append([]handlerEntry(nil), b.handlers[t]...)
	met := b.metrics
	b.mu.RUnlock()

	if met != nil {
		met.RecordEventDispatched(ctx, t.String())
	}

	if len(entries) == 0 {
		b.logger.Warn("dispatch: no handlers registered", "type", t.String())
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, entry := range entries {
		entry := entry
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					b.logger.Error("dispatch: handler panicked", "type", t.String(), "panic", r)
				}
			}()
			if herr := entry.fn(gctx, event); herr != nil {
				b.logger.Error("dispatch: handler returned error", "type", t.String(), "error", herr)
			}
			return nil
		})
	}
	_ = g.Wait()
	return nil
}

// ErrTimeout is returned by WaitFor when no matching event arrives before
// the deadline.
type timeoutError struct{}

func (timeoutError) Error() string { return "bus: wait for event timed out" }

// ErrTimeout is the sentinel returned by WaitFor on expiry.
var ErrTimeout error = timeoutError{}

// WaitFor registers a one-shot handler for T, resolves with the first event
// for which predicate returns true (a nil predicate matches everything),
// and always unsubscribes before returning — on a match, a timeout, or
// caller cancellation alike.
func WaitFor[T any](ctx context.Context, b *Bus, predicate func(T) bool, timeout time.Duration) (T, error) {
	var zero T
	resultCh := make(chan T, 1)

	id := Subscribe(b, func(_ context.Context, e T) error {
		if predicate == nil || predicate(e) {
			select {
			case resultCh <- e:
			default:
			}
		}
		return nil
	})
	defer b.Unsubscribe(id)

	var timerC <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		timerC = timer.C
	}

	select {
	case e := <-resultCh:
		return e, nil
	case <-timerC:
		return zero, ErrTimeout
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}
