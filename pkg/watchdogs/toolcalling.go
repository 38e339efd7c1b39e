package watchdogs

import (
	"context"
	"fmt"
	"time"

	"github.com/mathisarends/rtvoice/pkg/bus"
	"github.com/mathisarends/rtvoice/pkg/logging"
	"github.com/mathisarends/rtvoice/pkg/metrics"
	"github.com/mathisarends/rtvoice/pkg/realtime"
	"github.com/mathisarends/rtvoice/pkg/tools"
)

// ToolCalling resolves, executes, and serializes model-initiated tool
// calls, per spec §4.7.
type ToolCalling struct {
	bus       *bus.Bus
	registry  *tools.Registry
	toolValue any // the opaque value injected into every tools.Context
	logger    logging.Logger
	metrics   *metrics.Metrics // optional; nil disables recording
}

// NewToolCalling builds the watchdog. toolValue is the Go analogue of
// SpecialToolParameters' opaque "context" value, forwarded to every handler.
// met may be nil.
func NewToolCalling(b *bus.Bus, registry *tools.Registry, toolValue any, logger logging.Logger, met *metrics.Metrics) *ToolCalling {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &ToolCalling{bus: b, registry: registry, toolValue: toolValue, logger: logger, metrics: met}
}

// Start subscribes the handler this watchdog needs.
func (w *ToolCalling) Start(context.Context) error {
	bus.Subscribe(w.bus, w.onFunctionCallArgumentsDone)
	return nil
}

func (w *ToolCalling) onFunctionCallArgumentsDone(ctx context.Context, e realtime.FunctionCallArgumentsDoneEvent) error {
	tool, ok := w.registry.Lookup(e.Name)
	if !ok {
		w.logger.Error("toolcalling: unknown tool", "name", e.Name, "call_id", e.CallID)
		return nil
	}

	// Blocking handlers run on a worker so the dispatch fan-out for this
	// event isn't held up by a slow tool. ctx is cancelled the instant this
	// handler returns, so detach it, matching agent.go's StopAgent handler.
	go w.execute(context.Background(), tool, e)
	return nil
}

func (w *ToolCalling) execute(ctx context.Context, tool *tools.Tool, e realtime.FunctionCallArgumentsDoneEvent) {
	toolCtx := &tools.Context{Bus: w.bus, Value: w.toolValue}

	start := time.Now()
	// A panicking handler would otherwise crash the process from this
	// goroutine; recover it into an error result like any other failure.
	result, err := func() (res any, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("toolcalling: handler %q panicked: %v", tool.Name, r)
			}
		}()
		return w.registry.Execute(ctx, toolCtx, tool.Name, []byte(e.Arguments))
	}()
	elapsed := time.Since(start).Seconds()

	var output string
	status := "ok"
	if err != nil {
		w.logger.Error("toolcalling: handler failed", "name", tool.Name, "call_id", e.CallID, "error", err)
		output = err.Error()
		status = "error"
	} else {
		output = tools.Serialize(result)
	}
	if w.metrics != nil {
		w.metrics.RecordToolCall(ctx, tool.Name, status, elapsed)
	}

	bus.Dispatch(ctx, w.bus, bus.ToolCallResultReady{
		CallID:              e.CallID,
		Name:                tool.Name,
		Output:              output,
		ResponseInstruction: tool.ResultInstruction,
		SuppressResponse:    tool.SuppressResponse,
	})
}
