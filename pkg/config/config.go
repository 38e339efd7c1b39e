// Package config loads the ambient environment-driven configuration the
// rest of the module reads at startup: API keys, sample rate, inactivity
// timeout, and the optional-feature toggles (recording, subagent).
package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the env-derived ambient configuration. Most of it feeds
// pkg/agent and cmd/agent; nothing in pkg/bus or pkg/watchdogs depends on it
// directly (they take explicit constructor parameters instead).
type Config struct {
	OpenAIAPIKey string

	SampleRateHz int
	Channels     int

	InactivityTimeout time.Duration
	DefaultSpeed      float64
	Language          string

	RecordingDir string

	SubagentAPIKey string
	SubagentModel  string

	LogLevel string
}

// Load reads a .env file if present (logging, not failing, when it's
// missing — the teacher's cmd/agent/main.go convention) and then applies
// system environment variables on top, with typed defaults.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: No .env file found, using system environment variables")
	}

	return Config{
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		SampleRateHz:      envInt("AGENT_SAMPLE_RATE", 24000),
		Channels:          envInt("AGENT_CHANNELS", 1),
		InactivityTimeout: envSeconds("AGENT_INACTIVITY_TIMEOUT_SECONDS", 10*time.Second),
		DefaultSpeed:      envFloat("AGENT_SPEECH_SPEED", 1.0),
		Language:          envString("AGENT_LANGUAGE", "en"),
		RecordingDir:      os.Getenv("RTVOICE_RECORDING_DIR"),
		SubagentAPIKey:    os.Getenv("SUBAGENT_LLM_API_KEY"),
		SubagentModel:     envString("SUBAGENT_LLM_MODEL", "gpt-4o-mini"),
		LogLevel:          envString("AGENT_LOG_LEVEL", "info"),
	}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func envSeconds(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return time.Duration(n) * time.Second
}
