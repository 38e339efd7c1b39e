package watchdogs

import (
	"context"
	"sync"
	"time"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

// Inactivity tracks two booleans — user_has_stopped_speaking and
// assistant_speaking — and fires UserInactivityTimeout after timeout
// seconds of the composite-silent condition, per spec §4.11.
type Inactivity struct {
	bus     *bus.Bus
	timeout time.Duration

	mu                  sync.Mutex
	userStoppedSpeaking bool
	assistantSpeaking   bool
	timer               *time.Timer
}

// NewInactivity builds the watchdog with the given silence timeout
// (default 10s per spec).
func NewInactivity(b *bus.Bus, timeout time.Duration) *Inactivity {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Inactivity{bus: b, timeout: timeout}
}

// Start subscribes every handler this watchdog needs.
func (w *Inactivity) Start(context.Context) error {
	bus.Subscribe(w.bus, w.onSpeechStopped)
	bus.Subscribe(w.bus, w.onSpeechStarted)
	bus.Subscribe(w.bus, w.onResponseCreated)
	bus.Subscribe(w.bus, w.onResponseDone)
	bus.Subscribe(w.bus, w.onAgentStopped)
	return nil
}

// onAgentStopped disarms any pending timer so it cannot fire after shutdown.
func (w *Inactivity) onAgentStopped(context.Context, bus.AgentStopped) error {
	w.mu.Lock()
	w.disarmLocked()
	w.mu.Unlock()
	return nil
}

func (w *Inactivity) onSpeechStopped(ctx context.Context, _ realtime.InputAudioBufferSpeechStoppedEvent) error {
	w.mu.Lock()
	w.userStoppedSpeaking = true
	w.mu.Unlock()
	w.maybeArm(ctx)
	return nil
}

func (w *Inactivity) onSpeechStarted(_ context.Context, _ realtime.InputAudioBufferSpeechStartedEvent) error {
	w.mu.Lock()
	w.userStoppedSpeaking = false
	w.disarmLocked()
	w.mu.Unlock()
	return nil
}

func (w *Inactivity) onResponseCreated(_ context.Context, _ realtime.ResponseCreatedEvent) error {
	w.mu.Lock()
	w.assistantSpeaking = true
	w.disarmLocked()
	w.mu.Unlock()
	return nil
}

func (w *Inactivity) onResponseDone(ctx context.Context, _ realtime.ResponseDoneEvent) error {
	w.mu.Lock()
	w.assistantSpeaking = false
	w.mu.Unlock()
	w.maybeArm(ctx)
	return nil
}

// maybeArm starts the timer only when both gates hold, matching the
// original watchdog's dual-boolean-gated design.
func (w *Inactivity) maybeArm(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !(w.userStoppedSpeaking && !w.assistantSpeaking) {
		return
	}
	if w.timer != nil {
		return
	}

	// The AfterFunc fires long after ctx (the Dispatch errgroup context) is
	// cancelled, so detach it rather than capturing it in the closure.
	w.timer = time.AfterFunc(w.timeout, func() {
		bus.Dispatch(context.Background(), w.bus, bus.UserInactivityTimeout{Seconds: w.timeout.Seconds()})
		w.mu.Lock()
		w.timer = nil
		w.mu.Unlock()
	})
}

// disarmLocked must be called with w.mu held.
func (w *Inactivity) disarmLocked() {
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
