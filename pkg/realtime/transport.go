package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/logging"
)

const baseURL = "wss://api.openai.com/v1/realtime"

// ErrNotConnected is returned by Send when there is no live connection.
var ErrNotConnected = errors.New("realtime: not connected")

// Conn holds the single outbound WebSocket to the realtime endpoint. Connect
// is safe to call more than once — it always tears down any prior
// connection first, matching "connect() closes any prior connection".
type Conn struct {
	apiKey string
	model  string
	bus    *bus.Bus
	logger logging.Logger

	mu        sync.Mutex
	ws        *websocket.Conn
	cancel    context.CancelFunc
	connected bool
}

// New builds a Conn. apiKey is typically sourced from OPENAI_API_KEY via
// pkg/config; model is the realtime model name (e.g. "gpt-realtime").
func New(apiKey, model string, b *bus.Bus, logger logging.Logger) *Conn {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Conn{apiKey: apiKey, model: model, bus: b, logger: logger}
}

// Connect dials the realtime endpoint and starts the receive loop.
func (c *Conn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ws != nil {
		c.closeLocked()
	}

	u := url.URL{Scheme: "wss", Host: "api.openai.com", Path: "/v1/realtime"}
	q := u.Query()
	q.Set("model", c.model)
	u.RawQuery = q.Encode()

	opts := &websocket.DialOptions{
		HTTPHeader: map[string][]string{
			"Authorization": {"Bearer " + c.apiKey},
		},
	}

	ws, _, err := websocket.Dial(ctx, u.String(), opts)
	if err != nil {
		return fmt.Errorf("realtime: dial failed: %w", err)
	}

	recvCtx, cancel := context.WithCancel(context.Background())
	c.ws = ws
	c.cancel = cancel
	c.connected = true

	go c.receiveLoop(recvCtx, ws)
	return nil
}

// Send serializes message omitting null fields and writes it as a single
// text frame.
func (c *Conn) Send(ctx context.Context, message ClientEvent) error {
	c.mu.Lock()
	ws := c.ws
	connected := c.connected
	c.mu.Unlock()

	if !connected || ws == nil {
		return ErrNotConnected
	}

	payload := map[string]any{"type": message.Type()}
	raw, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("realtime: marshal failed: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err == nil {
		for k, v := range fields {
			payload[k] = v
		}
	}

	if err := wsjson.Write(ctx, ws, payload); err != nil {
		c.mu.Lock()
		c.connected = false
		c.mu.Unlock()
		return fmt.Errorf("realtime: send failed: %w", err)
	}
	return nil
}

// Close is idempotent: it cancels the receive loop and closes the socket.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeLocked()
}

func (c *Conn) closeLocked() error {
	if c.ws == nil {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	err := c.ws.Close(websocket.StatusNormalClosure, "")
	c.ws = nil
	c.connected = false
	return err
}

// IsConnected reports whether the socket is believed live.
func (c *Conn) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// receiveLoop reads frames until the socket closes or recvCtx is canceled.
// Connection close dispatches no synthetic event — shutdown is driven
// explicitly via AgentStopped, per spec §4.2.
func (c *Conn) receiveLoop(ctx context.Context, ws *websocket.Conn) {
	for {
		_, payload, err := ws.Read(ctx)
		if err != nil {
			c.mu.Lock()
			c.connected = false
			c.mu.Unlock()
			c.logger.Debug("realtime: receive loop ended", "error", err)
			return
		}
		c.handleFrame(ctx, payload)
	}
}

func (c *Conn) handleFrame(ctx context.Context, payload []byte) {
	var env ServerEventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		c.logger.Debug("realtime: failed to decode envelope", "error", err)
		return
	}

	switch env.Type {
	case "session.created":
		var e SessionCreatedEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "session.updated":
		var e SessionUpdatedEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "response.created":
		var e ResponseCreatedEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "response.done":
		var e ResponseDoneEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "response.output_audio.delta":
		var e ResponseOutputAudioDeltaEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "response.output_audio_transcript.delta":
		var e ResponseOutputAudioTranscriptDeltaEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "response.output_audio_transcript.done":
		var e ResponseOutputAudioTranscriptDoneEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "conversation.item.input_audio_transcription.delta":
		var e InputAudioTranscriptionDeltaEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "conversation.item.input_audio_transcription.completed":
		var e InputAudioTranscriptionCompletedEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "conversation.item.truncated":
		var e ConversationItemTruncatedEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "input_audio_buffer.speech_started":
		var e InputAudioBufferSpeechStartedEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "input_audio_buffer.speech_stopped":
		var e InputAudioBufferSpeechStoppedEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "response.function_call_arguments.done":
		var e FunctionCallArgumentsDoneEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	case "error":
		var e ErrorEvent
		if decodeInto(c, payload, &e) {
			bus.Dispatch(ctx, c.bus, e)
		}
	default:
		// Unknown type values are logged at debug and skipped, never fatal.
		c.logger.Debug("realtime: unknown server event type", "type", env.Type)
	}
}

func decodeInto(c *Conn, payload []byte, dst any) bool {
	if err := json.Unmarshal(payload, dst); err != nil {
		c.logger.Debug("realtime: failed to decode frame body", "error", err)
		return false
	}
	return true
}
