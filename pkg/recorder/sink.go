package recorder

import (
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/justyntemme/clipgrid/pkg/dsp/utility"
	"github.com/justyntemme/clipgrid/pkg/supplier"
)

// AudioSink is the disk-backed destination a recording's input is appended to
// block by block, alongside the in-memory temporary buffer the slot plays
// back from while the sink finalizes.
type AudioSink interface {
	WriteFrames(frames [][]float32) error
	// Finalize flushes and closes the sink, returning the finalized,
	// playable source the worker hands back to the audio thread.
	Finalize() (supplier.Supplier, error)
	// Abort discards the sink entirely (count-in rollback).
	Abort() error
}

// WavFileSink is an [AudioSink] backed by a WAV file on disk, written with
// go-audio/wav the same way [supplier.NewWavSource] reads clip material back
// with go-audio/wav + go-audio/audio.
type WavFileSink struct {
	path         string
	f            *os.File
	enc          *wav.Encoder
	frameRate    int
	channelCount int
	bitDepth     int

	dc      *utility.DCBlocker
	scratch [][]float32
}

// NewWavFileSink creates (truncating if needed) the file at path and opens a
// streaming WAV encoder onto it at 24-bit depth. Captured input is passed
// through a DC blocker first: a condenser mic or an audio interface with a
// drifting bias can leave a constant offset on the input that otherwise
// persists in the rendered file and eats into headroom.
func NewWavFileSink(path string, frameRate, channelCount int) (*WavFileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	const bitDepth = 24
	enc := wav.NewEncoder(f, frameRate, bitDepth, channelCount, 1)
	return &WavFileSink{
		path: path, f: f, enc: enc,
		frameRate: frameRate, channelCount: channelCount, bitDepth: bitDepth,
		dc: utility.NewDCBlocker(channelCount, 20, float64(frameRate)),
	}, nil
}

// WriteFrames DC-blocks a copy of frames, then interleaves and scales the
// result to the sink's bit depth and streams it through the WAV encoder.
// The caller's frames are left untouched since the same block also feeds
// the in-memory monitoring buffer.
func (s *WavFileSink) WriteFrames(frames [][]float32) error {
	frameCount := 0
	if len(frames) > 0 {
		frameCount = len(frames[0])
	}
	if frameCount == 0 {
		return nil
	}
	if len(s.scratch) != len(frames) {
		s.scratch = make([][]float32, len(frames))
	}
	for ch := range frames {
		if cap(s.scratch[ch]) < frameCount {
			s.scratch[ch] = make([]float32, frameCount)
		}
		s.scratch[ch] = s.scratch[ch][:frameCount]
		copy(s.scratch[ch], frames[ch])
		s.dc.ProcessBuffer(s.scratch[ch], ch)
	}

	data := make([]int, frameCount*s.channelCount)
	scale := float32(int(1) << (s.bitDepth - 1))
	for i := 0; i < frameCount; i++ {
		for ch := 0; ch < s.channelCount; ch++ {
			var v float32
			if ch < len(s.scratch) && i < len(s.scratch[ch]) {
				v = s.scratch[ch][i]
			}
			data[i*s.channelCount+ch] = int(v * scale)
		}
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: s.channelCount, SampleRate: s.frameRate},
		Data:           data,
		SourceBitDepth: s.bitDepth,
	}
	return s.enc.Write(buf)
}

// Finalize closes the encoder and file, then reopens and decodes the file
// back into a [supplier.MemoryAudioSource] so the result satisfies
// [supplier.Supplier] without the caller needing to know it came off disk.
func (s *WavFileSink) Finalize() (supplier.Supplier, error) {
	if err := s.enc.Close(); err != nil {
		return nil, err
	}
	if err := s.f.Close(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return supplier.NewWavSource(f)
}

// Abort closes and removes the partial file (count-in rollback
// "Stopping").
func (s *WavFileSink) Abort() error {
	_ = s.enc.Close()
	_ = s.f.Close()
	return os.Remove(s.path)
}
