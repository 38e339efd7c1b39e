// Package watchdogs implements the independent, bus-only-coupled
// components that together realize the full-duplex state machine named in
// spec §2/§4. Watchdogs never call each other directly — cross-cutting
// state is recomputed locally from the events that establish it.
package watchdogs

import (
	"context"
	"sync"
	"time"

	"github.com/mathisarends/rtvoice/pkg/audio"
	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/metrics"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

// responseContext is InterruptionWatchdog's private state, per spec §3.
type responseContext struct {
	responseID        string
	itemID            string
	startMonotonic    time.Time
	assistantSpeaking bool
}

// Interruption tracks the active response and reacts to barge-in by
// canceling the response, clearing the output buffer, and truncating the
// in-progress item at its elapsed audio offset. This is the single most
// correctness-critical component in the module.
type Interruption struct {
	bus       *bus.Bus
	transport *realtime.Conn
	session   *audio.Session
	logger    logging.Logger
	metrics   *metrics.Metrics // optional; nil disables recording

	mu  sync.Mutex
	ctx responseContext
}

// NewInterruption builds the watchdog. Call Start to subscribe. session may
// be nil in tests that don't exercise the Idle-but-still-playing branch. met
// may be nil.
func NewInterruption(b *bus.Bus, transport *realtime.Conn, session *audio.Session, logger logging.Logger, met *metrics.Metrics) *Interruption {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Interruption{bus: b, transport: transport, session: session, logger: logger, metrics: met}
}

// Start subscribes every handler this watchdog needs.
func (w *Interruption) Start(context.Context) error {
	bus.Subscribe(w.bus, w.onResponseCreated)
	bus.Subscribe(w.bus, w.onOutputAudioDelta)
	bus.Subscribe(w.bus, w.onResponseDone)
	bus.Subscribe(w.bus, w.onSpeechStarted)
	return nil
}

func (w *Interruption) onResponseCreated(_ context.Context, e realtime.ResponseCreatedEvent) error {
	w.mu.Lock()
	w.ctx = responseContext{
		responseID:        e.ResponseID,
		startMonotonic:    time.Now(),
		assistantSpeaking: true,
	}
	w.mu.Unlock()
	return nil
}

func (w *Interruption) onOutputAudioDelta(_ context.Context, e realtime.ResponseOutputAudioDeltaEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	// A late delta for an already-cancelled/stale response must not
	// re-establish item_id — enforced by comparing response_id.
	if w.ctx.responseID != e.ResponseID {
		return nil
	}
	if w.ctx.itemID == "" {
		w.ctx.itemID = e.ItemID
	}
	return nil
}

func (w *Interruption) onResponseDone(_ context.Context, e realtime.ResponseDoneEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.responseID != e.ResponseID {
		return nil
	}
	w.ctx = responseContext{}
	return nil
}

func (w *Interruption) onSpeechStarted(ctx context.Context, _ realtime.InputAudioBufferSpeechStartedEvent) error {
	w.mu.Lock()
	active := w.ctx.assistantSpeaking
	itemID := w.ctx.itemID
	elapsedMS := w.elapsedMSLocked()
	w.mu.Unlock()

	if !active {
		// Idle: no-op unless the output device still has audio playing
		// (residual buffered audio from a just-finished response); in that
		// case still clear and cancel best-effort, with no known item_id.
		// No conversation.item.truncate is sent on this branch: the item id
		// was discarded when the response's ResponseDone reset the context.
		if w.session == nil || !w.session.IsPlaying() {
			return nil
		}
		itemID = ""
	}

	// Send ResponseCancel and OutputAudioBufferClear unconditionally, per
	// the spec's "keep both for safety" resolution (DESIGN.md OQ 2).
	if err := w.transport.Send(ctx, realtime.ResponseCancelEvent{}); err != nil {
		w.logger.Warn("interruption: failed to send response.cancel", "error", err)
	}
	if err := w.transport.Send(ctx, realtime.OutputAudioBufferClearEvent{}); err != nil {
		w.logger.Warn("interruption: failed to send output_audio_buffer.clear", "error", err)
	}

	if itemID != "" {
		if err := w.transport.Send(ctx, realtime.ConversationItemTruncateEvent{
			ItemID:       itemID,
			ContentIndex: 0,
			AudioEndMS:   elapsedMS,
		}); err != nil {
			w.logger.Warn("interruption: failed to send conversation.item.truncate", "error", err)
		}
	}

	bus.Dispatch(ctx, w.bus, bus.AssistantInterrupted{ItemID: itemID, PlayedMS: elapsedMS})
	if w.metrics != nil {
		w.metrics.RecordBargeIn(ctx, elapsedMS)
	}

	w.mu.Lock()
	w.ctx = responseContext{}
	w.mu.Unlock()
	return nil
}

// elapsedMSLocked must be called with w.mu held.
func (w *Interruption) elapsedMSLocked() int64 {
	if w.ctx.startMonotonic.IsZero() {
		return 0
	}
	return int64(time.Since(w.ctx.startMonotonic) / time.Millisecond)
}
