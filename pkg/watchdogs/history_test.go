package watchdogs

import (
	"context"
	"testing"
	"time"

	"github.com/mathisarends/rtvoice/pkg/bus"
)

func TestHistorySnapshotSubscribedBeforeAgentStoppedSeesBothTurns(t *testing.T) {
	b := bus.New(nil)
	w := NewHistory(b)
	w.Start(context.Background())

	bus.Dispatch(context.Background(), b, bus.UserTranscriptCompleted{Transcript: "hello", ItemID: "item_1"})
	bus.Dispatch(context.Background(), b, bus.AssistantTranscriptCompleted{Transcript: "hi there", ItemID: "item_2", OutputIndex: 0, ContentIndex: 0})

	respCh := make(chan bus.ConversationHistoryResponse, 1)
	id := bus.Subscribe(b, func(_ context.Context, e bus.ConversationHistoryResponse) error {
		respCh <- e
		return nil
	})
	defer b.Unsubscribe(id)

	bus.Dispatch(context.Background(), b, bus.AgentStopped{})

	select {
	case resp := <-respCh:
		if len(resp.Turns) != 2 {
			t.Fatalf("len(Turns) = %d, want 2", len(resp.Turns))
		}
		if resp.Turns[0].Role != "user" || resp.Turns[0].Transcript != "hello" {
			t.Fatalf("Turns[0] = %+v, want user/hello", resp.Turns[0])
		}
		if resp.Turns[1].Role != "assistant" || resp.Turns[1].Transcript != "hi there" {
			t.Fatalf("Turns[1] = %+v, want assistant/hi there", resp.Turns[1])
		}
		if resp.Turns[1].OutputIndex == nil || *resp.Turns[1].OutputIndex != 0 {
			t.Fatalf("Turns[1].OutputIndex = %v, want pointer to 0", resp.Turns[1].OutputIndex)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for ConversationHistoryResponse")
	}
}
