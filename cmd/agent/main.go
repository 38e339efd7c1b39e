package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mathisarends/rtvoice/pkg/agent"
	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/config"
	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/mcpclient"
	"github.com/mathisarends/rtvoice/pkg/metrics"
	"github.com/mathisarends/rtvoice/pkg/realtime"
	"github.com/mathisarends/rtvoice/pkg/subagent"
)

func main() {
	cfg := config.Load()

	if cfg.OpenAIAPIKey == "" {
		log.Fatal("Error: OPENAI_API_KEY must be set.")
	}

	logger := logging.NewZerolog(os.Stderr, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	met, shutdownMetrics, err := metrics.InitProvider(ctx, "dev")
	if err != nil {
		logger.Warn("main: failed to init metrics provider, continuing without it", "error", err)
		met = nil
	} else {
		defer shutdownMetrics(context.Background())
	}

	agentCfg := agent.Config{
		APIKey:             cfg.OpenAIAPIKey,
		Instructions:       systemPrompt(cfg.Language),
		Model:              "gpt-realtime",
		Voice:              "alloy",
		SpeechSpeed:        cfg.DefaultSpeed,
		TranscriptionModel: "whisper-1",
		SampleRateHz:       cfg.SampleRateHz,
		InactivityTimeout:  cfg.InactivityTimeout,
		RecordingDir:       cfg.RecordingDir,
		Logger:             logger,
		Metrics:            met,
	}

	if cfg.SubagentAPIKey != "" {
		client := subagent.New(cfg.SubagentAPIKey, cfg.SubagentModel)
		name, description, handler := client.Tool()
		agentCfg.Tools = append(agentCfg.Tools, agent.Tool(name, description, handler))
	}

	if path := os.Getenv("MCP_FS_SERVER_PATH"); path != "" {
		agentCfg.MCPServers = append(agentCfg.MCPServers, mcpclient.ServerSpec{
			Name:    "fs",
			Command: path,
		})
	}

	a, err := agent.New(ctx, agentCfg)
	if err != nil {
		log.Fatalf("Error: failed to construct agent: %v", err)
	}

	registerConsoleFeedback(a.Bus())

	fmt.Printf("Configured: Model=%s | Sample Rate: %dHz | Language: %s\n",
		agentCfg.Model, agentCfg.SampleRateHz, cfg.Language)
	fmt.Println("Voice Agent Started! Listening to microphone...")
	fmt.Println("Press Ctrl+C to exit")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	resultCh := make(chan agent.AgentHistory, 1)
	go func() {
		history, err := a.Start(ctx)
		if err != nil {
			logger.Error("main: agent run ended with error", "error", err)
		}
		resultCh <- history
	}()

	<-sig
	fmt.Println("\nShutting down...")
	a.Stop(context.Background())

	history := <-resultCh
	fmt.Printf("Conversation ended with %d turns.\n", len(history.Turns))
}

func systemPrompt(lang string) string {
	if lang == "es" {
		return "Eres un asistente de voz util y conciso. Usa frases cortas adecuadas para el habla."
	}
	return "You are a helpful and concise voice assistant. Use short sentences suitable for speech."
}

// registerConsoleFeedback prints the same kind of terse event log the
// teacher's CLI printed from its own event channel, now driven off the bus.
func registerConsoleFeedback(b *bus.Bus) {
	bus.Subscribe(b, func(_ context.Context, _ realtime.InputAudioBufferSpeechStartedEvent) error {
		fmt.Printf("\r\033[K[USER] Speaking...\n")
		return nil
	})
	bus.Subscribe(b, func(_ context.Context, _ realtime.InputAudioBufferSpeechStoppedEvent) error {
		fmt.Printf("\r\033[K[STT] Processing...\n")
		return nil
	})
	bus.Subscribe(b, func(_ context.Context, e bus.UserTranscriptCompleted) error {
		fmt.Printf("\r\033[K[TRANSCRIPT] %s\n", e.Transcript)
		return nil
	})
	bus.Subscribe(b, func(_ context.Context, _ realtime.ResponseCreatedEvent) error {
		fmt.Printf("\r\033[K[ASSISTANT] Responding...\n")
		return nil
	})
	bus.Subscribe(b, func(_ context.Context, e bus.AssistantInterrupted) error {
		fmt.Printf("\r\033[K[INTERRUPTED] User started talking (%d ms played).\n", e.PlayedMS)
		return nil
	})
	bus.Subscribe(b, func(_ context.Context, e realtime.ErrorEvent) error {
		fmt.Printf("\r\033[K[ERROR] %s: %s\n", e.Error.Type, e.Error.Message)
		return nil
	})
}
