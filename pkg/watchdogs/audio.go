package watchdogs

import (
	"context"
	"encoding/base64"
	"sync"
	"time"

	"github.com/mathisarends/rtvoice/pkg/audio"
	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

// pollInterval is how often AudioWatchdog checks IsPlaying after
// ResponseDone before declaring playback complete — spec calls for a
// 20-100ms cadence.
const pollInterval = 50 * time.Millisecond

// Audio bridges the AudioSession and the bus: captured chunks become
// InputAudioBufferAppend events; ResponseOutputAudioDelta events become
// played chunks.
type Audio struct {
	bus     *bus.Bus
	session *audio.Session
	logger  logging.Logger

	mu            sync.Mutex
	captureCancel context.CancelFunc
}

// NewAudio builds the watchdog. Call Start to subscribe.
func NewAudio(b *bus.Bus, session *audio.Session, logger logging.Logger) *Audio {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Audio{bus: b, session: session, logger: logger}
}

// Start subscribes every handler this watchdog needs.
func (w *Audio) Start(context.Context) error {
	bus.Subscribe(w.bus, w.onAgentStarted)
	bus.Subscribe(w.bus, w.onAgentStopped)
	bus.Subscribe(w.bus, w.onOutputAudioDelta)
	bus.Subscribe(w.bus, w.onSpeechStarted)
	bus.Subscribe(w.bus, w.onResponseDone)
	bus.Subscribe(w.bus, w.onVolumeUpdateRequested)
	return nil
}

func (w *Audio) onAgentStarted(ctx context.Context, _ bus.AgentStarted) error {
	if err := w.session.Start(ctx); err != nil {
		w.logger.Error("audio: failed to start devices", "error", err)
		return err
	}

	captureCtx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.captureCancel = cancel
	w.mu.Unlock()

	go w.captureLoop(captureCtx)
	return nil
}

func (w *Audio) captureLoop(ctx context.Context) {
	// Cancellation safety: even if the loop is cancelled mid-wait, the
	// input device is stopped by onAgentStopped's own call path, never
	// relying on this goroutine's epilogue.
	for {
		select {
		case <-ctx.Done():
			return
		case chunk, ok := <-w.session.Chunks():
			if !ok {
				return
			}
			encoded := base64.StdEncoding.EncodeToString(chunk)
			bus.Dispatch(ctx, w.bus, realtime.InputAudioBufferAppendEvent{Audio: encoded})
		}
	}
}

func (w *Audio) onAgentStopped(context.Context, bus.AgentStopped) error {
	w.mu.Lock()
	cancel := w.captureCancel
	w.captureCancel = nil
	w.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return w.session.Stop()
}

func (w *Audio) onOutputAudioDelta(_ context.Context, e realtime.ResponseOutputAudioDeltaEvent) error {
	pcm, err := base64.StdEncoding.DecodeString(e.Delta)
	if err != nil {
		w.logger.Warn("audio: failed to decode output delta", "error", err)
		return err
	}
	return w.session.PlayChunk(pcm)
}

func (w *Audio) onSpeechStarted(context.Context, realtime.InputAudioBufferSpeechStartedEvent) error {
	// The audible half of barge-in; the protocol half lives in
	// InterruptionWatchdog.
	w.session.ClearBuffer()
	return nil
}

func (w *Audio) onResponseDone(ctx context.Context, _ realtime.ResponseDoneEvent) error {
	// ctx is the Dispatch errgroup context, cancelled the instant this
	// handler returns — detach, matching onAgentStarted's captureLoop.
	go w.pollUntilSilent(context.WithoutCancel(ctx))
	return nil
}

func (w *Audio) pollUntilSilent(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !w.session.IsPlaying() {
				bus.Dispatch(ctx, w.bus, bus.AudioPlaybackCompleted{})
				return
			}
		}
	}
}

func (w *Audio) onVolumeUpdateRequested(_ context.Context, e bus.VolumeUpdateRequested) error {
	w.session.SetVolume(e.Level)
	return nil
}
