package audio

import (
	"context"
	"sync"

	"github.com/gen2brain/malgo"
)

// device is the shared malgo duplex device backing both MalgoInput and
// MalgoOutput, adapted from the teacher's cmd/agent/main.go onSamples
// callback: one duplex stream feeds a capture channel and drains a
// playback buffer on every audio tick.
type device struct {
	sampleRate int

	mctx *malgo.AllocatedContext
	dev  *malgo.Device

	startOnce sync.Once
	startErr  error
	stopMu    sync.Mutex
	refCount  int
	started   bool

	chunks chan []byte

	playMu  sync.Mutex
	playBuf []byte
	volume  float64
}

func newDevice(sampleRate int) *device {
	return &device{
		sampleRate: sampleRate,
		chunks:     make(chan []byte, 64),
		volume:     1.0,
	}
}

func (d *device) onSamples(pOutput, pInput []byte, _ uint32) {
	if pInput != nil {
		chunk := make([]byte, len(pInput))
		copy(chunk, pInput)
		select {
		case d.chunks <- chunk:
		default:
			// Drop rather than block the audio callback.
		}
	}
	if pOutput != nil {
		d.playMu.Lock()
		n := copy(pOutput, d.playBuf)
		if n > 0 {
			applyVolume(pOutput[:n], d.volume)
		}
		d.playBuf = d.playBuf[n:]
		for i := n; i < len(pOutput); i++ {
			pOutput[i] = 0
		}
		d.playMu.Unlock()
	}
}

// applyVolume scales 16-bit little-endian PCM samples in place.
func applyVolume(pcm []byte, volume float64) {
	if volume == 1.0 {
		return
	}
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := int16(uint16(pcm[i]) | uint16(pcm[i+1])<<8)
		scaled := float64(sample) * volume
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		out := int16(scaled)
		pcm[i] = byte(out)
		pcm[i+1] = byte(out >> 8)
	}
}

func (d *device) start(ctx context.Context) error {
	d.stopMu.Lock()
	d.refCount++
	alreadyStarted := d.started
	d.stopMu.Unlock()
	if alreadyStarted {
		return nil
	}

	d.startOnce.Do(func() {
		mctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
		if err != nil {
			d.startErr = err
			return
		}
		d.mctx = mctx

		cfg := malgo.DefaultDeviceConfig(malgo.Duplex)
		cfg.Capture.Format = malgo.FormatS16
		cfg.Capture.Channels = 1
		cfg.Playback.Format = malgo.FormatS16
		cfg.Playback.Channels = 1
		cfg.SampleRate = uint32(d.sampleRate)

		dev, err := malgo.InitDevice(mctx.Context, cfg, malgo.DeviceCallbacks{
			Data: d.onSamples,
		})
		if err != nil {
			d.startErr = err
			return
		}
		d.dev = dev

		if err := dev.Start(); err != nil {
			d.startErr = err
			return
		}

		d.stopMu.Lock()
		d.started = true
		d.stopMu.Unlock()
	})
	return d.startErr
}

func (d *device) stop() error {
	d.stopMu.Lock()
	d.refCount--
	shouldStop := d.refCount <= 0 && d.started
	if shouldStop {
		d.started = false
	}
	d.stopMu.Unlock()

	if !shouldStop {
		return nil
	}

	if d.dev != nil {
		d.dev.Uninit()
	}
	if d.mctx != nil {
		_ = d.mctx.Uninit()
	}
	close(d.chunks)
	return nil
}

// MalgoInput is the Input view over a shared duplex device.
type MalgoInput struct{ d *device }

func (m *MalgoInput) Start(ctx context.Context) error { return m.d.start(ctx) }
func (m *MalgoInput) Stop() error                     { return m.d.stop() }
func (m *MalgoInput) Chunks() <-chan []byte           { return m.d.chunks }

// MalgoOutput is the Output view over a shared duplex device.
type MalgoOutput struct{ d *device }

func (m *MalgoOutput) Start(ctx context.Context) error { return m.d.start(ctx) }
func (m *MalgoOutput) Stop() error                     { return m.d.stop() }

func (m *MalgoOutput) PlayChunk(chunk []byte) error {
	m.d.playMu.Lock()
	m.d.playBuf = append(m.d.playBuf, chunk...)
	m.d.playMu.Unlock()
	return nil
}

func (m *MalgoOutput) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	m.d.playMu.Lock()
	m.d.volume = v
	m.d.playMu.Unlock()
}

// ClearBuffer discards queued-but-unplayed audio. In-flight hardware frames
// already copied into the device's own ring buffer may still finish.
func (m *MalgoOutput) ClearBuffer() {
	m.d.playMu.Lock()
	m.d.playBuf = nil
	m.d.playMu.Unlock()
}

func (m *MalgoOutput) IsPlaying() bool {
	m.d.playMu.Lock()
	defer m.d.playMu.Unlock()
	return len(m.d.playBuf) > 0
}

// NewMalgoDuplex builds a connected Input/Output pair sharing one physical
// full-duplex audio device, at the given sample rate (default 24000 per
// spec §4.3).
func NewMalgoDuplex(sampleRate int) (*MalgoInput, *MalgoOutput) {
	d := newDevice(sampleRate)
	return &MalgoInput{d: d}, &MalgoOutput{d: d}
}
