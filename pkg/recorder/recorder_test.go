package recorder

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/realtime"
)

func TestRecorderWritesMicAndAssistantWAVFiles(t *testing.T) {
	dir := t.TempDir()
	b := bus.New(nil)
	w := New(b, nil, dir, 24000)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	micPayload := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	assistPayload := base64.StdEncoding.EncodeToString([]byte{5, 6, 7, 8})

	bus.Dispatch(context.Background(), b, realtime.InputAudioBufferAppendEvent{Audio: micPayload})
	bus.Dispatch(context.Background(), b, realtime.ResponseOutputAudioDeltaEvent{Delta: assistPayload})
	bus.Dispatch(context.Background(), b, bus.AgentStopped{})

	// File close happens synchronously inside the AgentStopped handler, and
	// Dispatch returns only after every handler has settled; the short sleep
	// is extra margin only.
	time.Sleep(50 * time.Millisecond)

	micRaw, err := os.ReadFile(filepath.Join(dir, "mic.wav"))
	if err != nil {
		t.Fatalf("failed to read mic.wav: %v", err)
	}
	if len(micRaw) != 44+4 {
		t.Fatalf("mic.wav length = %d, want 48", len(micRaw))
	}

	assistRaw, err := os.ReadFile(filepath.Join(dir, "assistant.wav"))
	if err != nil {
		t.Fatalf("failed to read assistant.wav: %v", err)
	}
	if len(assistRaw) != 44+4 {
		t.Fatalf("assistant.wav length = %d, want 48", len(assistRaw))
	}
}
