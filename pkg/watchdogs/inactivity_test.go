package watchdogs

import (
	"context"
	"testing"
	"time"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

func TestInactivityArmsOnlyWhenBothGatesHold(t *testing.T) {
	b := bus.New(nil)
	w := NewInactivity(b, 20*time.Millisecond)
	w.Start(context.Background())

	// assistant is speaking (default zero value: not speaking) - simulate a
	// response in flight so the composite gate must not arm yet.
	bus.Dispatch(context.Background(), b, realtime.ResponseCreatedEvent{ResponseID: "r1"})
	bus.Dispatch(context.Background(), b, realtime.InputAudioBufferSpeechStoppedEvent{})

	_, err := bus.WaitFor(context.Background(), b, func(bus.UserInactivityTimeout) bool { return true }, 60*time.Millisecond)
	if err != bus.ErrTimeout {
		t.Fatalf("expected no timeout while assistant still speaking, got err=%v", err)
	}

	// Now the response finishes: both gates hold, timer should arm and fire.
	bus.Dispatch(context.Background(), b, realtime.ResponseDoneEvent{ResponseID: "r1"})

	_, err = bus.WaitFor(context.Background(), b, func(bus.UserInactivityTimeout) bool { return true }, time.Second)
	if err != nil {
		t.Fatalf("expected UserInactivityTimeout once both gates hold, got error: %v", err)
	}
}

func TestInactivityDisarmsOnSpeechStarted(t *testing.T) {
	b := bus.New(nil)
	w := NewInactivity(b, 20*time.Millisecond)
	w.Start(context.Background())

	bus.Dispatch(context.Background(), b, realtime.InputAudioBufferSpeechStoppedEvent{})
	bus.Dispatch(context.Background(), b, realtime.InputAudioBufferSpeechStartedEvent{})

	_, err := bus.WaitFor(context.Background(), b, func(bus.UserInactivityTimeout) bool { return true }, 60*time.Millisecond)
	if err != bus.ErrTimeout {
		t.Fatalf("expected timer to be disarmed by speech started, got err=%v", err)
	}
}

func TestInactivityDisarmsOnResponseCreated(t *testing.T) {
	b := bus.New(nil)
	w := NewInactivity(b, 20*time.Millisecond)
	w.Start(context.Background())

	bus.Dispatch(context.Background(), b, realtime.InputAudioBufferSpeechStoppedEvent{})
	bus.Dispatch(context.Background(), b, realtime.ResponseCreatedEvent{ResponseID: "r1"})

	_, err := bus.WaitFor(context.Background(), b, func(bus.UserInactivityTimeout) bool { return true }, 60*time.Millisecond)
	if err != bus.ErrTimeout {
		t.Fatalf("expected timer to be disarmed by a new response starting, got err=%v", err)
	}
}
