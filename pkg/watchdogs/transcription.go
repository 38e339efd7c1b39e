package watchdogs

import (
	"context"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

// Transcription re-emits server transcription delta/done events as the
// internal UserTranscript*/AssistantTranscript* derived events, per
// spec §4.8.
type Transcription struct {
	bus *bus.Bus
}

// NewTranscription builds the watchdog. Call Start to subscribe.
func NewTranscription(b *bus.Bus) *Transcription {
	return &Transcription{bus: b}
}

// Start subscribes every handler this watchdog needs.
func (w *Transcription) Start(context.Context) error {
	bus.Subscribe(w.bus, w.onUserDelta)
	bus.Subscribe(w.bus, w.onUserCompleted)
	bus.Subscribe(w.bus, w.onAssistantDelta)
	bus.Subscribe(w.bus, w.onAssistantCompleted)
	return nil
}

func (w *Transcription) onUserDelta(ctx context.Context, e realtime.InputAudioTranscriptionDeltaEvent) error {
	bus.Dispatch(ctx, w.bus, bus.UserTranscriptChunk{Delta: e.Delta, ItemID: e.ItemID})
	return nil
}

func (w *Transcription) onUserCompleted(ctx context.Context, e realtime.InputAudioTranscriptionCompletedEvent) error {
	bus.Dispatch(ctx, w.bus, bus.UserTranscriptCompleted{Transcript: e.Transcript, ItemID: e.ItemID})
	return nil
}

func (w *Transcription) onAssistantDelta(ctx context.Context, e realtime.ResponseOutputAudioTranscriptDeltaEvent) error {
	bus.Dispatch(ctx, w.bus, bus.AssistantTranscriptChunk{
		Delta:        e.Delta,
		ItemID:       e.ItemID,
		OutputIndex:  e.OutputIndex,
		ContentIndex: e.ContentIndex,
	})
	return nil
}

func (w *Transcription) onAssistantCompleted(ctx context.Context, e realtime.ResponseOutputAudioTranscriptDoneEvent) error {
	bus.Dispatch(ctx, w.bus, bus.AssistantTranscriptCompleted{
		Transcript:   e.Transcript,
		ItemID:       e.ItemID,
		OutputIndex:  e.OutputIndex,
		ContentIndex: e.ContentIndex,
	})
	return nil
}
