package realtime

// ClientEvent is any outbound wire message; Type returns its discriminator.
type ClientEvent interface {
	Type() string
}

// --- Client → server ---

type SessionUpdateEvent struct {
	Session SessionConfig `json:"session"`
}

func (SessionUpdateEvent) Type() string { return "session.update" }

type InputAudioBufferAppendEvent struct {
	Audio string `json:"audio"` // base64 PCM16 LE mono
}

func (InputAudioBufferAppendEvent) Type() string { return "input_audio_buffer.append" }

type ConversationItemCreateEvent struct {
	Item ConversationItem `json:"item"`
}

func (ConversationItemCreateEvent) Type() string { return "conversation.item.create" }

// ConversationItem is the wire shape of an item created on the server
// conversation, restricted to the one variant this module emits: a
// function_call_output.
type ConversationItem struct {
	Type   string `json:"type"`
	CallID string `json:"call_id"`
	Output string `json:"output"`
}

// NewFunctionCallOutputItem builds the function_call_output conversation
// item ToolCallingWatchdog/LifecycleWatchdog send back to the model.
func NewFunctionCallOutputItem(callID, output string) ConversationItem {
	return ConversationItem{Type: "function_call_output", CallID: callID, Output: output}
}

type ConversationItemTruncateEvent struct {
	ItemID       string `json:"item_id"`
	ContentIndex int    `json:"content_index"`
	AudioEndMS   int64  `json:"audio_end_ms"`
}

func (ConversationItemTruncateEvent) Type() string { return "conversation.item.truncate" }

type ResponseCreateEvent struct {
	Instructions string `json:"instructions,omitempty"`
}

func (ResponseCreateEvent) Type() string { return "response.create" }

type ResponseCancelEvent struct{}

func (ResponseCancelEvent) Type() string { return "response.cancel" }

type OutputAudioBufferClearEvent struct{}

func (OutputAudioBufferClearEvent) Type() string { return "output_audio_buffer.clear" }

// --- Server → client ---

// ServerEventEnvelope is decoded first to discover the discriminator before
// unmarshalling the concrete payload.
type ServerEventEnvelope struct {
	Type string `json:"type"`
}

type SessionCreatedEvent struct {
	Session SessionConfig `json:"session"`
}

type SessionUpdatedEvent struct {
	Session SessionConfig `json:"session"`
}

type ResponseCreatedEvent struct {
	ResponseID string `json:"response_id"`
}

type ResponseDoneEvent struct {
	ResponseID string `json:"response_id"`
}

type ResponseOutputAudioDeltaEvent struct {
	ResponseID string `json:"response_id"`
	ItemID     string `json:"item_id"`
	Delta      string `json:"delta"` // base64 PCM16 LE mono
}

type ResponseOutputAudioTranscriptDeltaEvent struct {
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Delta        string `json:"delta"`
}

type ResponseOutputAudioTranscriptDoneEvent struct {
	ResponseID   string `json:"response_id"`
	ItemID       string `json:"item_id"`
	OutputIndex  int    `json:"output_index"`
	ContentIndex int    `json:"content_index"`
	Transcript   string `json:"transcript"`
}

type FunctionCallArgumentsDoneEvent struct {
	CallID    string `json:"call_id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object, still encoded as a string on the wire
}

type InputAudioTranscriptionDeltaEvent struct {
	ItemID string `json:"item_id"`
	Delta  string `json:"delta"`
}

type InputAudioTranscriptionCompletedEvent struct {
	ItemID     string `json:"item_id"`
	Transcript string `json:"transcript"`
}

type InputAudioBufferSpeechStartedEvent struct {
	AudioStartMS int64 `json:"audio_start_ms"`
}

type InputAudioBufferSpeechStoppedEvent struct {
	AudioEndMS int64 `json:"audio_end_ms"`
}

type ConversationItemTruncatedEvent struct {
	ItemID string `json:"item_id"`
}

// ErrorEvent's detail is nested under "error" on the wire — the top-level
// "type" is just the envelope discriminator ("error"), already consumed by
// ServerEventEnvelope.
type ErrorEvent struct {
	EventID string         `json:"event_id,omitempty"`
	Error   ErrorEventBody `json:"error"`
}

type ErrorEventBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
