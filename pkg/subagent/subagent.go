// Package subagent implements the delegate_to_subagent tool: a one-shot
// call to an OpenAI-compatible chat completion endpoint, adapted from the
// teacher's pkg/providers/llm OpenAILLM client, used here as a supplemented
// feature (see SPEC_FULL.md) rather than the teacher's orchestrator-wide
// LLM provider.
package subagent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mathisarends/rtvoice/pkg/tools"
)

const defaultURL = "https://api.openai.com/v1/chat/completions"

// Client calls a chat-completions endpoint with a single user message and
// returns the assistant's reply text.
type Client struct {
	apiKey string
	model  string
	url    string
	http   *http.Client
}

// New builds a Client. model defaults to gpt-4o-mini when empty.
func New(apiKey, model string) *Client {
	if model == "" {
		model = "gpt-4o-mini"
	}
	return &Client{
		apiKey: apiKey,
		model:  model,
		url:    defaultURL,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
}

// DelegateArgs carries the prompt handed to the subagent.
type DelegateArgs struct {
	Prompt string `json:"prompt" description:"the task or question to delegate to the subagent model"`
}

// Tool builds the registry entry delegate_to_subagent, to be installed only
// when the caller has a subagent API key configured.
func (c *Client) Tool() (string, string, func(ctx *tools.Context, args DelegateArgs) (any, error)) {
	return "delegate_to_subagent",
		"Delegates a self-contained task to a separate language model and returns its text response.",
		func(_ *tools.Context, args DelegateArgs) (any, error) {
			return c.Complete(context.Background(), args.Prompt)
		}
}

// Complete sends a single user-role message and returns the first choice's
// content.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("subagent: marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("subagent: build request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("subagent: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var errBody any
		_ = json.NewDecoder(resp.Body).Decode(&errBody)
		return "", fmt.Errorf("subagent: upstream returned status %d: %v", resp.StatusCode, errBody)
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("subagent: decode response failed: %w", err)
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("subagent: no choices returned")
	}

	return result.Choices[0].Message.Content, nil
}
