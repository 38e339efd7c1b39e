package audio

import (
	"context"
	"errors"
	"testing"
)

type fakeInput struct {
	startErr error
	stopErr  error
	chunks   chan []byte
	started  bool
	stopped  bool
}

func (f *fakeInput) Start(context.Context) error { f.started = true; return f.startErr }
func (f *fakeInput) Stop() error                 { f.stopped = true; return f.stopErr }
func (f *fakeInput) Chunks() <-chan []byte       { return f.chunks }

type fakeOutput struct {
	startErr     error
	stopErr      error
	played       [][]byte
	volume       float64
	cleared      bool
	playing      bool
	playChunkErr error
	started      bool
}

func (f *fakeOutput) Start(context.Context) error { f.started = true; return f.startErr }
func (f *fakeOutput) Stop() error                 { return f.stopErr }
func (f *fakeOutput) PlayChunk(chunk []byte) error {
	f.played = append(f.played, chunk)
	return f.playChunkErr
}
func (f *fakeOutput) SetVolume(v float64) { f.volume = v }
func (f *fakeOutput) ClearBuffer()        { f.cleared = true }
func (f *fakeOutput) IsPlaying() bool     { return f.playing }

func TestSessionStartStopsOnInputFailureBeforeStartingOutput(t *testing.T) {
	in := &fakeInput{startErr: errors.New("mic busy"), chunks: make(chan []byte)}
	out := &fakeOutput{}
	s := NewSession(in, out)

	if err := s.Start(context.Background()); err == nil {
		t.Fatal("expected Start to propagate the input error")
	}
	if out.started {
		t.Fatal("expected output device not to be started after input failure")
	}
}

func TestSessionStartStartsBothDevices(t *testing.T) {
	in := &fakeInput{chunks: make(chan []byte)}
	out := &fakeOutput{}
	s := NewSession(in, out)

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !in.started {
		t.Fatal("expected input device to be started")
	}
	if !out.started {
		t.Fatal("expected output device to be started")
	}
}

func TestSessionStopReturnsInputErrorEvenWhenOutputAlsoFails(t *testing.T) {
	in := &fakeInput{stopErr: errors.New("input stop failed"), chunks: make(chan []byte)}
	out := &fakeOutput{stopErr: errors.New("output stop failed")}
	s := NewSession(in, out)

	err := s.Stop()
	if err == nil || err.Error() != "input stop failed" {
		t.Fatalf("Stop err = %v, want the input error to take priority", err)
	}
	if !in.stopped {
		t.Fatal("expected input to be stopped")
	}
}

func TestSessionDelegatesPlaybackVolumeAndClear(t *testing.T) {
	in := &fakeInput{chunks: make(chan []byte)}
	out := &fakeOutput{playing: true}
	s := NewSession(in, out)

	if err := s.PlayChunk([]byte{1, 2, 3}); err != nil {
		t.Fatalf("PlayChunk failed: %v", err)
	}
	if len(out.played) != 1 {
		t.Fatalf("played = %v, want one chunk", out.played)
	}

	s.SetVolume(0.5)
	if out.volume != 0.5 {
		t.Fatalf("volume = %v, want 0.5", out.volume)
	}

	s.ClearBuffer()
	if !out.cleared {
		t.Fatal("expected ClearBuffer to be forwarded")
	}

	if !s.IsPlaying() {
		t.Fatal("expected IsPlaying to reflect the output device's state")
	}
}

func TestSessionChunksDelegatesToInput(t *testing.T) {
	in := &fakeInput{chunks: make(chan []byte, 1)}
	s := NewSession(in, &fakeOutput{})

	in.chunks <- []byte{9}
	select {
	case chunk := <-s.Chunks():
		if string(chunk) != string([]byte{9}) {
			t.Fatalf("chunk = %v, want [9]", chunk)
		}
	default:
		t.Fatal("expected Chunks() to deliver the input's queued chunk")
	}
}
