package recorder

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// wavWriter streams PCM16 LE mono samples into a RIFF/WAVE file, patching
// the size fields on Close. Adapted from the teacher's single-shot
// pkg/audio/wav.go buffer helper into a streaming writer so a whole
// conversation can be recorded without holding it all in memory.
type wavWriter struct {
	f          *os.File
	w          *bufio.Writer
	sampleRate int
	dataLen    uint32
}

func newWAVWriter(path string, sampleRate int) (*wavWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w := &wavWriter{f: f, w: bufio.NewWriter(f), sampleRate: sampleRate}
	if err := w.writeHeaderPlaceholder(); err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

func (w *wavWriter) writeHeaderPlaceholder() error {
	buf := make([]byte, 44)
	copy(buf[0:4], "RIFF")
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(w.sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(w.sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	_, err := w.f.Write(buf)
	return err
}

func (w *wavWriter) Write(pcm []byte) error {
	n, err := w.w.Write(pcm)
	w.dataLen += uint32(n)
	return err
}

func (w *wavWriter) Close() error {
	if err := w.w.Flush(); err != nil {
		w.f.Close()
		return err
	}
	if err := patchSize(w.f, w.dataLen); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

func patchSize(f *os.File, dataLen uint32) error {
	if _, err := f.Seek(4, io.SeekStart); err != nil {
		return err
	}
	var riffSize [4]byte
	binary.LittleEndian.PutUint32(riffSize[:], 36+dataLen)
	if _, err := f.Write(riffSize[:]); err != nil {
		return err
	}
	if _, err := f.Seek(40, io.SeekStart); err != nil {
		return err
	}
	var dataSize [4]byte
	binary.LittleEndian.PutUint32(dataSize[:], dataLen)
	_, err := f.Write(dataSize[:])
	return err
}
