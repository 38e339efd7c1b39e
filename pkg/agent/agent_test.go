package agent

import (
	"testing"

	"github.com/mathisarends/rtvoice/pkg/realtime"
	"github.com/mathisarends/rtvoice/pkg/tools"
)

func TestBuildSessionConfigClampsSpeedAndAdvertisesRegisteredTools(t *testing.T) {
	registry := tools.NewRegistry()
	type pingArgs struct {
		Message string `json:"message"`
	}
	if err := tools.Register(registry, "ping", "pings back", func(_ *tools.Context, args pingArgs) (any, error) {
		return args.Message, nil
	}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	cfg := Config{
		Model:        "gpt-realtime",
		Instructions: "be concise",
		Voice:        "alloy",
		SpeechSpeed:  3.0,
	}

	sc := buildSessionConfig(cfg, registry)

	if sc.Model != "gpt-realtime" || sc.Instructions != "be concise" {
		t.Fatalf("sc = %+v, want Model/Instructions forwarded", sc)
	}
	if sc.Audio.Output.Speed != realtime.MaxSpeed {
		t.Fatalf("Speed = %v, want clamped to MaxSpeed %v", sc.Audio.Output.Speed, realtime.MaxSpeed)
	}
	if len(sc.Tools) != 1 || sc.Tools[0].Name != "ping" {
		t.Fatalf("Tools = %+v, want exactly [ping]", sc.Tools)
	}
}

func TestBuildSessionConfigOmitsTranscriptionWhenModelEmpty(t *testing.T) {
	registry := tools.NewRegistry()
	sc := buildSessionConfig(Config{Model: "gpt-realtime"}, registry)
	if sc.Audio.Input.Transcription != nil {
		t.Fatalf("expected no Transcription block when TranscriptionModel is empty, got %+v", sc.Audio.Input.Transcription)
	}
}

func TestBuildSessionConfigIncludesTranscriptionWhenModelSet(t *testing.T) {
	registry := tools.NewRegistry()
	sc := buildSessionConfig(Config{Model: "gpt-realtime", TranscriptionModel: "whisper-1"}, registry)
	if sc.Audio.Input.Transcription == nil || sc.Audio.Input.Transcription.Model != "whisper-1" {
		t.Fatalf("Transcription = %+v, want Model=whisper-1", sc.Audio.Input.Transcription)
	}
}

func TestToolWrapsRegistration(t *testing.T) {
	type echoArgs struct {
		Text string `json:"text"`
	}
	spec := Tool("echo", "echoes the input", func(_ *tools.Context, args echoArgs) (any, error) {
		return args.Text, nil
	})

	r := tools.NewRegistry()
	if err := spec.Apply(r); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, ok := r.Lookup("echo"); !ok {
		t.Fatalf("expected 'echo' tool to be registered")
	}
}
