package bus

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

type fooEvent struct{ N int }
type barEvent struct{ S string }

func TestDispatchInvokesOnlyMatchingTypeHandlers(t *testing.T) {
	b := New(nil)

	var fooCount, barCount int32
	Subscribe(b, func(_ context.Context, e fooEvent) error {
		atomic.AddInt32(&fooCount, int32(e.N))
		return nil
	})
	Subscribe(b, func(context.Context, barEvent) error {
		atomic.AddInt32(&barCount, 1)
		return nil
	})

	Dispatch(context.Background(), b, fooEvent{N: 3})

	if got := atomic.LoadInt32(&fooCount); got != 3 {
		t.Fatalf("fooCount = %d, want 3", got)
	}
	if got := atomic.LoadInt32(&barCount); got != 0 {
		t.Fatalf("barCount = %d, want 0 (no bar dispatched)", got)
	}
}

func TestDispatchFansOutToEveryHandler(t *testing.T) {
	b := New(nil)
	var calls int32
	for i := 0; i < 5; i++ {
		Subscribe(b, func(context.Context, fooEvent) error {
			atomic.AddInt32(&calls, 1)
			return nil
		})
	}

	Dispatch(context.Background(), b, fooEvent{N: 1})

	if got := atomic.LoadInt32(&calls); got != 5 {
		t.Fatalf("calls = %d, want 5", got)
	}
}

func TestDispatchSurvivesHandlerPanicAndError(t *testing.T) {
	b := New(nil)
	var ran int32
	Subscribe(b, func(context.Context, fooEvent) error {
		panic("boom")
	})
	Subscribe(b, func(context.Context, fooEvent) error {
		return errors.New("handler failed")
	})
	Subscribe(b, func(context.Context, fooEvent) error {
		atomic.AddInt32(&ran, 1)
		return nil
	})

	err := Dispatch(context.Background(), b, fooEvent{})
	if err != nil {
		t.Fatalf("Dispatch returned %v, want nil", err)
	}
	if atomic.LoadInt32(&ran) != 1 {
		t.Fatalf("well-behaved handler did not run despite sibling panic/error")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New(nil)
	var calls int32
	id := Subscribe(b, func(context.Context, fooEvent) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	Dispatch(context.Background(), b, fooEvent{})
	b.Unsubscribe(id)
	Dispatch(context.Background(), b, fooEvent{})

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("calls = %d, want 1 (unsubscribe should stop further delivery)", got)
	}
	b.Unsubscribe(id) // double unsubscribe must not panic
}

func TestWaitForMatchesPredicate(t *testing.T) {
	b := New(nil)

	go func() {
		Dispatch(context.Background(), b, fooEvent{N: 1})
		Dispatch(context.Background(), b, fooEvent{N: 42})
	}()

	e, err := WaitFor(context.Background(), b, func(e fooEvent) bool { return e.N == 42 }, time.Second)
	if err != nil {
		t.Fatalf("WaitFor returned error: %v", err)
	}
	if e.N != 42 {
		t.Fatalf("WaitFor returned %+v, want N=42", e)
	}
}

func TestWaitForTimesOut(t *testing.T) {
	b := New(nil)
	_, err := WaitFor(context.Background(), b, func(fooEvent) bool { return true }, 20*time.Millisecond)
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("WaitFor error = %v, want ErrTimeout", err)
	}
}

func TestWaitForUnsubscribesOnReturn(t *testing.T) {
	b := New(nil)
	_, _ = WaitFor(context.Background(), b, func(fooEvent) bool { return true }, 10*time.Millisecond)

	b.mu.RLock()
	n := len(b.handlers[reflect.TypeOf((*fooEvent)(nil)).Elem()])
	b.mu.RUnlock()
	if n != 0 {
		t.Fatalf("handlers still registered after WaitFor timeout: %d", n)
	}
}
