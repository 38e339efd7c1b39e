// Package recorder implements the optional RecordingWatchdog: a
// collaborator, out of the spec's core, that writes both directions of
// audio to WAV files when enabled via RTVOICE_RECORDING_DIR. Grounded on
// original_source/rtvoice/service.go wiring a RecordingWatchdog alongside
// the other watchdogs.
package recorder

import (
	"context"
	"encoding/base64"
	"path/filepath"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

// Watchdog records microphone input and assistant output to separate WAV
// files under dir. It subscribes to the same wire events AudioWatchdog
// already decodes, so it never touches the audio devices directly.
type Watchdog struct {
	bus        *bus.Bus
	logger     logging.Logger
	dir        string
	sampleRate int

	mic      *wavWriter
	assist   *wavWriter
}

// New builds a recording watchdog writing into dir at sampleRate. Call
// Start once the agent is constructed; Start subscribes the handlers.
func New(b *bus.Bus, logger logging.Logger, dir string, sampleRate int) *Watchdog {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Watchdog{bus: b, logger: logger, dir: dir, sampleRate: sampleRate}
}

// Start opens the WAV files and subscribes to capture/playback events.
func (w *Watchdog) Start(context.Context) error {
	mic, err := newWAVWriter(filepath.Join(w.dir, "mic.wav"), w.sampleRate)
	if err != nil {
		w.logger.Error("recorder: failed to open mic.wav", "error", err)
		return err
	}
	assist, err := newWAVWriter(filepath.Join(w.dir, "assistant.wav"), w.sampleRate)
	if err != nil {
		mic.Close()
		w.logger.Error("recorder: failed to open assistant.wav", "error", err)
		return err
	}
	w.mic = mic
	w.assist = assist

	bus.Subscribe(w.bus, w.onInputAppend)
	bus.Subscribe(w.bus, w.onOutputDelta)
	bus.Subscribe(w.bus, w.onAgentStopped)
	return nil
}

func (w *Watchdog) onInputAppend(_ context.Context, e realtime.InputAudioBufferAppendEvent) error {
	pcm, err := base64.StdEncoding.DecodeString(e.Audio)
	if err != nil {
		return err
	}
	return w.mic.Write(pcm)
}

func (w *Watchdog) onOutputDelta(_ context.Context, e realtime.ResponseOutputAudioDeltaEvent) error {
	pcm, err := base64.StdEncoding.DecodeString(e.Delta)
	if err != nil {
		return err
	}
	return w.assist.Write(pcm)
}

func (w *Watchdog) onAgentStopped(context.Context, bus.AgentStopped) error {
	if w.mic != nil {
		w.mic.Close()
	}
	if w.assist != nil {
		w.assist.Close()
	}
	return nil
}
