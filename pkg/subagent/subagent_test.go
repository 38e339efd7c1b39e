package subagent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New("test-key", "")
	c.url = server.URL
	return c
}

func TestNewDefaultsModelWhenEmpty(t *testing.T) {
	c := New("key", "")
	if c.model != "gpt-4o-mini" {
		t.Fatalf("model = %q, want gpt-4o-mini", c.model)
	}
}

func TestNewKeepsExplicitModel(t *testing.T) {
	c := New("key", "gpt-4o")
	if c.model != "gpt-4o" {
		t.Fatalf("model = %q, want gpt-4o", c.model)
	}
}

func TestCompleteReturnsFirstChoiceContent(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q, want Bearer test-key", got)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		messages, _ := body["messages"].([]any)
		if len(messages) != 1 {
			t.Errorf("messages len = %d, want 1", len(messages))
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"sunny and warm"}}]}`))
	})

	got, err := c.Complete(context.Background(), "what's the weather")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got != "sunny and warm" {
		t.Fatalf("Complete = %q, want %q", got, "sunny and warm")
	}
}

func TestCompleteWrapsNonOKStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"boom"}`))
	})

	_, err := c.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error on non-200 status")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Fatalf("error = %v, want it to mention status 500", err)
	}
}

func TestCompleteErrorsOnEmptyChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestToolReturnsDelegateName(t *testing.T) {
	c := New("key", "")
	name, description, handler := c.Tool()
	if name != "delegate_to_subagent" {
		t.Fatalf("name = %q, want delegate_to_subagent", name)
	}
	if description == "" {
		t.Fatal("expected non-empty description")
	}
	if handler == nil {
		t.Fatal("expected non-nil handler")
	}
}
