// Package realtime implements the bidirectional WebSocket transport to an
// OpenAI-Realtime-style speech model: the wire event envelope, the session
// configuration payload, and the Conn that owns the socket.
package realtime

import "math"

// SessionConfig is sent as session.update and mirrors the nested shape
// spec §3 names. Every field carries `omitempty` so the JSON encoder
// naturally implements "serialize omitting null fields".
type SessionConfig struct {
	Model        string   `json:"model,omitempty"`
	Instructions string   `json:"instructions,omitempty"`
	Voice        string   `json:"voice,omitempty"`
	Audio        *Audio   `json:"audio,omitempty"`
	ToolChoice   string   `json:"tool_choice,omitempty"`
	Tools        []ToolDef `json:"tools,omitempty"`
}

// Audio is the nested audio.input/audio.output config block.
type Audio struct {
	Input  *AudioInputConfig  `json:"input,omitempty"`
	Output *AudioOutputConfig `json:"output,omitempty"`
}

// AudioInputConfig configures capture format, turn detection, and optional
// transcription/noise-reduction.
type AudioInputConfig struct {
	Format         string          `json:"format,omitempty"`
	TurnDetection  *TurnDetection  `json:"turn_detection,omitempty"`
	Transcription  *Transcription  `json:"transcription,omitempty"`
	NoiseReduction *NoiseReduction `json:"noise_reduction,omitempty"`
}

// TurnDetection configures server-side VAD (server_vad is the only mode
// this module relies on — the core's Non-goal is "no custom VAD").
type TurnDetection struct {
	Type string `json:"type,omitempty"`
}

// Transcription configures server-side input transcription.
type Transcription struct {
	Model string `json:"model,omitempty"`
}

// NoiseReduction configures the server's noise-reduction mode.
type NoiseReduction struct {
	Type string `json:"type,omitempty"`
}

// AudioOutputConfig configures playback format, speed, and voice.
type AudioOutputConfig struct {
	Format string  `json:"format,omitempty"`
	Speed  float64 `json:"speed,omitempty"`
	Voice  string  `json:"voice,omitempty"`
}

// ToolDef is the wire shape of a tool advertised in session.update.
type ToolDef struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// MinSpeed and MaxSpeed bound the output.speed field per spec §3's invariant.
const (
	MinSpeed = 0.5
	MaxSpeed = 1.5
)

// ClampSpeed clamps v to [MinSpeed, MaxSpeed] and rounds to one decimal
// place, matching the invariant "speed is clamped and rounded to one
// decimal before any wire emission".
func ClampSpeed(v float64) float64 {
	if v < MinSpeed {
		v = MinSpeed
	}
	if v > MaxSpeed {
		v = MaxSpeed
	}
	return math.Round(v*10) / 10
}
