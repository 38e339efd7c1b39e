package watchdogs

import (
	"context"
	"sync"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

// defaultResultInstruction is sent after a tool result when the tool itself
// names none, per spec §4.5.
const defaultResultInstruction = "The tool call has completed. Respond directly with the result."

// Lifecycle owns the retained SessionConfig, connects/disconnects the
// transport, forwards capture frames, and handles speed updates and
// tool-result follow-ups.
type Lifecycle struct {
	bus       *bus.Bus
	transport *realtime.Conn
	logger    logging.Logger

	mu     sync.Mutex
	config realtime.SessionConfig
}

// NewLifecycle builds the watchdog with its initial session config.
func NewLifecycle(b *bus.Bus, transport *realtime.Conn, initial realtime.SessionConfig, logger logging.Logger) *Lifecycle {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Lifecycle{bus: b, transport: transport, config: initial, logger: logger}
}

// Start subscribes every handler this watchdog needs.
func (w *Lifecycle) Start(context.Context) error {
	bus.Subscribe(w.bus, w.onAgentStarted)
	bus.Subscribe(w.bus, w.onAgentStopped)
	bus.Subscribe(w.bus, w.onInputAudioBufferAppend)
	bus.Subscribe(w.bus, w.onSpeechSpeedUpdateRequested)
	bus.Subscribe(w.bus, w.onMessageTruncationRequested)
	bus.Subscribe(w.bus, w.onToolCallResultReady)
	return nil
}

func (w *Lifecycle) onAgentStarted(ctx context.Context, _ bus.AgentStarted) error {
	if !w.transport.IsConnected() {
		if err := w.transport.Connect(ctx); err != nil {
			w.logger.Error("lifecycle: transport connect failed", "error", err)
			return err
		}
	}

	w.mu.Lock()
	cfg := w.config
	w.mu.Unlock()

	return w.transport.Send(ctx, realtime.SessionUpdateEvent{Session: cfg})
}

func (w *Lifecycle) onAgentStopped(context.Context, bus.AgentStopped) error {
	if w.transport.IsConnected() {
		return w.transport.Close()
	}
	return nil
}

func (w *Lifecycle) onInputAudioBufferAppend(ctx context.Context, e realtime.InputAudioBufferAppendEvent) error {
	if !w.transport.IsConnected() {
		w.logger.Warn("lifecycle: dropping input_audio_buffer.append, transport disconnected")
		return nil
	}
	return w.transport.Send(ctx, e)
}

func (w *Lifecycle) onSpeechSpeedUpdateRequested(ctx context.Context, e bus.SpeechSpeedUpdateRequested) error {
	speed := realtime.ClampSpeed(e.Speed)

	w.mu.Lock()
	if w.config.Audio == nil {
		w.config.Audio = &realtime.Audio{}
	}
	if w.config.Audio.Output == nil {
		w.config.Audio.Output = &realtime.AudioOutputConfig{}
	}
	w.config.Audio.Output.Speed = speed
	cfg := w.config
	w.mu.Unlock()

	return w.transport.Send(ctx, realtime.SessionUpdateEvent{Session: cfg})
}

func (w *Lifecycle) onMessageTruncationRequested(ctx context.Context, e bus.MessageTruncationRequested) error {
	return w.transport.Send(ctx, realtime.ConversationItemTruncateEvent{
		ItemID:     e.ItemID,
		AudioEndMS: e.AudioEndMS,
	})
}

func (w *Lifecycle) onToolCallResultReady(ctx context.Context, e bus.ToolCallResultReady) error {
	item := realtime.NewFunctionCallOutputItem(e.CallID, e.Output)
	if err := w.transport.Send(ctx, realtime.ConversationItemCreateEvent{Item: item}); err != nil {
		w.logger.Warn("lifecycle: failed to send function_call_output", "error", err)
		return err
	}

	if e.SuppressResponse {
		return nil
	}

	instructions := e.ResponseInstruction
	if instructions == "" {
		instructions = defaultResultInstruction
	}
	return w.transport.Send(ctx, realtime.ResponseCreateEvent{Instructions: instructions})
}

// CurrentConfig returns a snapshot of the retained session config.
func (w *Lifecycle) CurrentConfig() realtime.SessionConfig {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.config
}
