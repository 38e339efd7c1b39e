// Package agent wires the bus, transport, audio session, tool registry, and
// every watchdog together and exposes the Start/Stop shell named in
// spec §6's programmatic surface.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mathisarends/rtvoice/pkg/audio"
	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/mcpclient"
	"github.com/mathisarends/rtvoice/pkg/metrics"
	"github.com/mathisarends/rtvoice/pkg/realtime"
	"github.com/mathisarends/rtvoice/pkg/recorder"
	"github.com/mathisarends/rtvoice/pkg/tools"
	"github.com/mathisarends/rtvoice/pkg/watchdogs"
)

// historyWaitTimeout bounds how long Stop waits for ConversationHistoryResponse.
const historyWaitTimeout = 5 * time.Second

// Config configures a new Agent. AudioInput/AudioOutput default to a
// malgo-backed duplex device when left nil.
type Config struct {
	APIKey             string
	Instructions       string
	Model              string
	Voice              string
	SpeechSpeed        float64
	TranscriptionModel string
	SampleRateHz       int
	InactivityTimeout  time.Duration

	Tools      []ToolSpec
	MCPServers []mcpclient.ServerSpec

	AudioInput  audio.Input
	AudioOutput audio.Output

	// RecordingDir, when non-empty, enables mic.wav/assistant.wav capture
	// for the session.
	RecordingDir string

	Logger  logging.Logger
	Metrics *metrics.Metrics // optional; nil disables instrument recording
}

// ToolSpec registers one local tool at construction time; Apply is a
// closure over tools.Register so callers can pass any argument struct type.
type ToolSpec struct {
	Apply func(*tools.Registry) error
}

// AgentHistory is returned by Start once the agent has fully stopped.
type AgentHistory struct {
	Turns []bus.ConversationTurn
}

// Agent owns the bus, transport, audio session, tool registry, and every
// watchdog — none of them hold a back-reference to the Agent itself.
type Agent struct {
	bus       *bus.Bus
	transport *realtime.Conn
	session   *audio.Session
	registry  *tools.Registry
	mcpServers []*mcpclient.Server
	logger    logging.Logger

	lifecycle *watchdogs.Lifecycle

	stopped chan struct{}
	stopOnce sync.Once
	history  AgentHistory
}

// New constructs every component but does not start anything.
func New(ctx context.Context, cfg Config) (*Agent, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NoOpLogger{}
	}

	b := bus.New(logger)
	b.AttachMetrics(cfg.Metrics)

	sampleRate := cfg.SampleRateHz
	if sampleRate == 0 {
		sampleRate = 24000
	}

	in, out := cfg.AudioInput, cfg.AudioOutput
	if in == nil || out == nil {
		malgoIn, malgoOut := audio.NewMalgoDuplex(sampleRate)
		if in == nil {
			in = malgoIn
		}
		if out == nil {
			out = malgoOut
		}
	}
	session := audio.NewSession(in, out)

	transport := realtime.New(cfg.APIKey, cfg.Model, b, logger)

	registry := tools.NewRegistry()
	if err := tools.RegisterDefaults(registry); err != nil {
		return nil, fmt.Errorf("agent: failed to register default tools: %w", err)
	}
	for _, spec := range cfg.Tools {
		if err := spec.Apply(registry); err != nil {
			return nil, fmt.Errorf("agent: failed to register tool: %w", err)
		}
	}

	var mcpServers []*mcpclient.Server
	for _, spec := range cfg.MCPServers {
		server, err := mcpclient.Connect(ctx, spec, logger)
		if err != nil {
			return nil, fmt.Errorf("agent: failed to connect MCP server %q: %w", spec.Name, err)
		}
		if err := mcpclient.RegisterTools(ctx, server, spec, registry); err != nil {
			return nil, fmt.Errorf("agent: failed to register tools from %q: %w", spec.Name, err)
		}
		mcpServers = append(mcpServers, server)
	}

	sessionConfig := buildSessionConfig(cfg, registry)

	a := &Agent{
		bus:        b,
		transport:  transport,
		session:    session,
		registry:   registry,
		mcpServers: mcpServers,
		logger:     logger,
		stopped:    make(chan struct{}),
	}

	a.lifecycle = watchdogs.NewLifecycle(b, transport, sessionConfig, logger)
	interruption := watchdogs.NewInterruption(b, transport, session, logger, cfg.Metrics)
	audioWatchdog := watchdogs.NewAudio(b, session, logger)
	toolCalling := watchdogs.NewToolCalling(b, registry, a, logger, cfg.Metrics)
	transcription := watchdogs.NewTranscription(b)
	history := watchdogs.NewHistory(b)
	inactivity := watchdogs.NewInactivity(b, cfg.InactivityTimeout)

	watchdogList := []interface {
		Start(context.Context) error
	}{a.lifecycle, interruption, audioWatchdog, toolCalling, transcription, history, inactivity}

	if cfg.RecordingDir != "" {
		watchdogList = append(watchdogList, recorder.New(b, logger, cfg.RecordingDir, sampleRate))
	}

	for _, w := range watchdogList {
		if err := w.Start(ctx); err != nil {
			return nil, fmt.Errorf("agent: failed to start watchdog: %w", err)
		}
	}

	// stop_session and the inactivity timeout both request shutdown through
	// the bus rather than calling Stop directly, so either can originate it.
	// Stop runs detached from the dispatching context, which does not
	// outlive the Dispatch call that delivered the request.
	bus.Subscribe(b, func(_ context.Context, _ bus.StopAgent) error {
		go a.Stop(context.Background())
		return nil
	})
	bus.Subscribe(b, func(_ context.Context, _ bus.UserInactivityTimeout) error {
		go a.Stop(context.Background())
		return nil
	})

	return a, nil
}

func buildSessionConfig(cfg Config, registry *tools.Registry) realtime.SessionConfig {
	speed := realtime.ClampSpeed(cfg.SpeechSpeed)
	sc := realtime.SessionConfig{
		Model:        cfg.Model,
		Instructions: cfg.Instructions,
		Voice:        cfg.Voice,
		Audio: &realtime.Audio{
			Input: &realtime.AudioInputConfig{
				Format:        "pcm16",
				TurnDetection: &realtime.TurnDetection{Type: "server_vad"},
			},
			Output: &realtime.AudioOutputConfig{
				Format: "pcm16",
				Speed:  speed,
				Voice:  cfg.Voice,
			},
		},
	}
	if cfg.TranscriptionModel != "" {
		sc.Audio.Input.Transcription = &realtime.Transcription{Model: cfg.TranscriptionModel}
	}

	for _, t := range registry.List() {
		sc.Tools = append(sc.Tools, realtime.ToolDef{
			Type:        "function",
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return sc
}

// Start dispatches AgentStarted and blocks until Stop is called, then
// returns the accumulated conversation history.
func (a *Agent) Start(ctx context.Context) (AgentHistory, error) {
	bus.Dispatch(ctx, a.bus, bus.AgentStarted{SessionConfig: a.lifecycle.CurrentConfig()})

	<-a.stopped
	return a.history, nil
}

// Stop dispatches AgentStopped, awaits the ConversationHistoryResponse
// snapshot, and unblocks Start. The one-shot subscription is installed
// before the dispatch so it can never miss the response it is waiting for.
func (a *Agent) Stop(ctx context.Context) {
	a.stopOnce.Do(func() {
		historyCh := make(chan bus.ConversationHistoryResponse, 1)
		id := bus.Subscribe(a.bus, func(_ context.Context, e bus.ConversationHistoryResponse) error {
			select {
			case historyCh <- e:
			default:
			}
			return nil
		})

		bus.Dispatch(ctx, a.bus, bus.AgentStopped{})

		select {
		case e := <-historyCh:
			a.history = AgentHistory{Turns: e.Turns}
		case <-time.After(historyWaitTimeout):
			a.logger.Warn("agent: timed out waiting for conversation history on stop")
		}
		a.bus.Unsubscribe(id)

		for _, s := range a.mcpServers {
			_ = s.Close()
		}

		close(a.stopped)
	})
}

// Bus exposes the underlying event bus for advanced callers (transcript
// listeners, tests).
func (a *Agent) Bus() *bus.Bus { return a.bus }
