package config

import (
	"testing"
	"time"
)

func TestEnvIntFallsBackOnMissingOrInvalid(t *testing.T) {
	t.Setenv("AGENT_SAMPLE_RATE", "")
	if got := envInt("AGENT_SAMPLE_RATE", 24000); got != 24000 {
		t.Fatalf("envInt missing = %d, want 24000", got)
	}

	t.Setenv("AGENT_SAMPLE_RATE", "not-a-number")
	if got := envInt("AGENT_SAMPLE_RATE", 24000); got != 24000 {
		t.Fatalf("envInt invalid = %d, want fallback 24000", got)
	}

	t.Setenv("AGENT_SAMPLE_RATE", "16000")
	if got := envInt("AGENT_SAMPLE_RATE", 24000); got != 16000 {
		t.Fatalf("envInt set = %d, want 16000", got)
	}
}

func TestEnvFloatFallsBackOnMissingOrInvalid(t *testing.T) {
	t.Setenv("AGENT_SPEECH_SPEED", "")
	if got := envFloat("AGENT_SPEECH_SPEED", 1.0); got != 1.0 {
		t.Fatalf("envFloat missing = %v, want 1.0", got)
	}

	t.Setenv("AGENT_SPEECH_SPEED", "1.3")
	if got := envFloat("AGENT_SPEECH_SPEED", 1.0); got != 1.3 {
		t.Fatalf("envFloat set = %v, want 1.3", got)
	}
}

func TestEnvSecondsConvertsIntegerSecondsToDuration(t *testing.T) {
	t.Setenv("AGENT_INACTIVITY_TIMEOUT_SECONDS", "15")
	if got := envSeconds("AGENT_INACTIVITY_TIMEOUT_SECONDS", 10*time.Second); got != 15*time.Second {
		t.Fatalf("envSeconds = %v, want 15s", got)
	}
}

func TestEnvStringFallsBackWhenUnset(t *testing.T) {
	t.Setenv("AGENT_LANGUAGE", "")
	if got := envString("AGENT_LANGUAGE", "en"); got != "en" {
		t.Fatalf("envString missing = %q, want en", got)
	}
	t.Setenv("AGENT_LANGUAGE", "es")
	if got := envString("AGENT_LANGUAGE", "en"); got != "es" {
		t.Fatalf("envString set = %q, want es", got)
	}
}

func TestLoadReadsOpenAIAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")
	cfg := Load()
	if cfg.OpenAIAPIKey != "sk-test-123" {
		t.Fatalf("OpenAIAPIKey = %q, want sk-test-123", cfg.OpenAIAPIKey)
	}
}
