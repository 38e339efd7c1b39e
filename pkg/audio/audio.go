// Package audio defines the capture/playback device contracts AudioWatchdog
// depends on, plus a malgo-backed concrete implementation for cmd/agent.
package audio

import "context"

// Input captures PCM16 LE mono audio. Chunk size and exact cadence are
// implementation-defined; the default sample rate used by the concrete
// malgo device is 24 kHz per spec §4.3.
type Input interface {
	Start(ctx context.Context) error
	Stop() error
	// Chunks delivers captured PCM16 frames; it is closed after Stop.
	Chunks() <-chan []byte
}

// Output plays back PCM16 LE mono audio.
type Output interface {
	Start(ctx context.Context) error
	Stop() error
	PlayChunk(chunk []byte) error
	// SetVolume applies linear sample scaling for v in [0,1].
	SetVolume(v float64)
	// ClearBuffer discards queued-but-unplayed audio and returns promptly;
	// already in-flight hardware frames may finish.
	ClearBuffer()
	IsPlaying() bool
}

// Session composes an Input and an Output, delegating every call — this is
// the pure-delegation pattern original_source's AudioSession uses.
type Session struct {
	In  Input
	Out Output
}

// NewSession wraps an Input/Output pair.
func NewSession(in Input, out Output) *Session {
	return &Session{In: in, Out: out}
}

func (s *Session) Start(ctx context.Context) error {
	if err := s.In.Start(ctx); err != nil {
		return err
	}
	return s.Out.Start(ctx)
}

func (s *Session) Stop() error {
	inErr := s.In.Stop()
	outErr := s.Out.Stop()
	if inErr != nil {
		return inErr
	}
	return outErr
}

func (s *Session) Chunks() <-chan []byte     { return s.In.Chunks() }
func (s *Session) PlayChunk(b []byte) error  { return s.Out.PlayChunk(b) }
func (s *Session) SetVolume(v float64)       { s.Out.SetVolume(v) }
func (s *Session) ClearBuffer()              { s.Out.ClearBuffer() }
func (s *Session) IsPlaying() bool           { return s.Out.IsPlaying() }
