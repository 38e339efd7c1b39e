package watchdogs

import (
	"context"
	"sync"
	"time"

	"github.com/mathisarends/rtvoice/pkg/bus"
)

// History appends completed user/assistant turns and, on AgentStopped,
// publishes a snapshot so Agent.Stop can collect it synchronously through
// its one-shot ConversationHistoryResponse subscription, per spec §4.8.
type History struct {
	bus *bus.Bus

	mu    sync.Mutex
	turns []bus.ConversationTurn
}

// NewHistory builds the watchdog. Call Start to subscribe.
func NewHistory(b *bus.Bus) *History {
	return &History{bus: b}
}

// Start subscribes every handler this watchdog needs.
func (w *History) Start(context.Context) error {
	bus.Subscribe(w.bus, w.onUserCompleted)
	bus.Subscribe(w.bus, w.onAssistantCompleted)
	bus.Subscribe(w.bus, w.onAgentStopped)
	return nil
}

func (w *History) onUserCompleted(_ context.Context, e bus.UserTranscriptCompleted) error {
	w.append(bus.ConversationTurn{
		Role:       "user",
		Transcript: e.Transcript,
		ItemID:     e.ItemID,
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

func (w *History) onAssistantCompleted(_ context.Context, e bus.AssistantTranscriptCompleted) error {
	outputIndex := e.OutputIndex
	contentIndex := e.ContentIndex
	w.append(bus.ConversationTurn{
		Role:         "assistant",
		Transcript:   e.Transcript,
		ItemID:       e.ItemID,
		Timestamp:    time.Now().UTC(),
		OutputIndex:  &outputIndex,
		ContentIndex: &contentIndex,
	})
	return nil
}

func (w *History) append(turn bus.ConversationTurn) {
	w.mu.Lock()
	w.turns = append(w.turns, turn)
	w.mu.Unlock()
}

func (w *History) onAgentStopped(ctx context.Context, _ bus.AgentStopped) error {
	w.mu.Lock()
	snapshot := append([]bus.ConversationTurn(nil), w.turns...)
	w.mu.Unlock()
	bus.Dispatch(ctx, w.bus, bus.ConversationHistoryResponse{Turns: snapshot})
	return nil
}
