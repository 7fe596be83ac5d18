package supplier

import (
	"errors"
	"io"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/justyntemme/clipgrid/pkg/midi"
)

// ErrNotAudio is returned by an audio method called on MIDI material.
var ErrNotAudio = errors.New("supplier: material is not audio")

// ErrNotMidi is returned by a MIDI method called on audio material.
var ErrNotMidi = errors.New("supplier: material is not midi")

// MemoryAudioSource is the innermost audio supplier: a fixed,
// de-interleaved PCM buffer held entirely in memory. Both file-loaded
// clips ([NewWavSource]) and in-progress recordings ([recorder.Recorder])
// are backed by one of these.
type MemoryAudioSource struct {
	channels  [][]float32
	frameRate float64
}

// NewMemoryAudioSource wraps already de-interleaved channel data.
func NewMemoryAudioSource(channels [][]float32, frameRate float64) *MemoryAudioSource {
	return &MemoryAudioSource{channels: channels, frameRate: frameRate}
}

// NewWavSource decodes a whole WAV file into a MemoryAudioSource, using
// go-audio/wav + go-audio/audio for PCM decoding.
func NewWavSource(r io.Reader) (*MemoryAudioSource, error) {
	decoder := wav.NewDecoder(r)
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, err
	}
	return newMemoryAudioSourceFromIntBuffer(buf), nil
}

func newMemoryAudioSourceFromIntBuffer(buf *goaudio.IntBuffer) *MemoryAudioSource {
	numChannels := buf.Format.NumChannels
	if numChannels < 1 {
		numChannels = 1
	}
	frameCount := len(buf.Data) / numChannels
	channels := make([][]float32, numChannels)
	for ch := range channels {
		channels[ch] = make([]float32, frameCount)
	}
	maxAmplitude := float32(int(1) << (buf.SourceBitDepth - 1))
	if buf.SourceBitDepth == 0 {
		maxAmplitude = 1 << 15
	}
	for i, sample := range buf.Data {
		ch := i % numChannels
		frame := i / numChannels
		channels[ch][frame] = float32(sample) / maxAmplitude
	}
	return &MemoryAudioSource{
		channels:  channels,
		frameRate: float64(buf.Format.SampleRate),
	}
}

func (s *MemoryAudioSource) MaterialInfo() MaterialInfo {
	frameCount := int64(0)
	if len(s.channels) > 0 {
		frameCount = int64(len(s.channels[0]))
	}
	return MaterialInfo{
		Kind:         KindAudio,
		FrameRate:    s.frameRate,
		FrameCount:   frameCount,
		ChannelCount: len(s.channels),
	}
}

func (s *MemoryAudioSource) TranslatePlayPosToSourcePos(playPos int64) int64 { return playPos }

// AppendFrames grows the source with newly recorded frames (recorder
// writes here on every poll.
func (s *MemoryAudioSource) AppendFrames(frames [][]float32) {
	if len(s.channels) == 0 {
		s.channels = make([][]float32, len(frames))
	}
	for ch := range s.channels {
		if ch < len(frames) {
			s.channels[ch] = append(s.channels[ch], frames[ch]...)
		}
	}
}

func (s *MemoryAudioSource) SupplyAudio(req AudioRequest, dest AudioBuffer) (AudioResponse, error) {
	want := int64(dest.FrameCount())
	start := req.StartFrame
	if start < 0 {
		// Count-in: silence the negative portion, then deliver the rest
		// in place, without slicing or allocating a second buffer.
		silence := -start
		if silence >= want {
			dest.Clear()
			return AudioResponse{NumFramesConsumed: 0, Status: Continue}, nil
		}
		for ch := range dest {
			for i := int64(0); i < silence; i++ {
				dest[ch][i] = 0
			}
		}
		resp, err := s.supplyFromZero(0, dest, int(silence))
		if resp.Status == ReachedEnd {
			resp.NumFramesWritten += int(silence)
		}
		return resp, err
	}
	return s.supplyFromZero(start, dest, 0)
}

// supplyFromZero fills dest[destOffset:] from source position start.
func (s *MemoryAudioSource) supplyFromZero(start int64, dest AudioBuffer, destOffset int) (AudioResponse, error) {
	frameCount := int64(0)
	if len(s.channels) > 0 {
		frameCount = int64(len(s.channels[0]))
	}
	want := int64(dest.FrameCount() - destOffset)
	if start >= frameCount {
		for ch := range dest {
			for i := destOffset; i < dest.FrameCount(); i++ {
				dest[ch][i] = 0
			}
		}
		return AudioResponse{NumFramesConsumed: 0, Status: ReachedEnd, NumFramesWritten: 0}, nil
	}
	avail := frameCount - start
	n := want
	reachedEnd := false
	if avail < want {
		n = avail
		reachedEnd = true
	}
	numCh := len(dest)
	for ch := 0; ch < numCh; ch++ {
		var src []float32
		if ch < len(s.channels) {
			src = s.channels[ch]
		}
		if src != nil {
			copy(dest[ch][destOffset:destOffset+int(n)], src[start:start+n])
		}
		for i := destOffset + int(n); i < dest.FrameCount(); i++ {
			dest[ch][i] = 0
		}
	}
	if reachedEnd {
		return AudioResponse{NumFramesConsumed: n, Status: ReachedEnd, NumFramesWritten: int(n)}, nil
	}
	return AudioResponse{NumFramesConsumed: n, Status: Continue}, nil
}

func (s *MemoryAudioSource) SupplyMidi(MidiRequest, *midi.EventQueue) (MidiResponse, error) {
	return MidiResponse{}, ErrNotMidi
}
