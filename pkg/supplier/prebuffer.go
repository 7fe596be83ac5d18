package supplier

import (
	"sync/atomic"

	"github.com/justyntemme/clipgrid/pkg/midi"
)

// DefaultPreBufferBlockFrames and DefaultPreBufferBlockCount are the
// ring's fixed sizing.
const (
	DefaultPreBufferBlockFrames = 4096
	DefaultPreBufferBlockCount  = 2
)

// PreBufferMissPolicy controls what happens on a prebuffer cache miss.
type PreBufferMissPolicy int

const (
	// PreBufferMissSilence fills the destination with silence.
	PreBufferMissSilence PreBufferMissPolicy = iota
	// PreBufferMissQuery falls through to the wrapped supplier directly,
	// off the cache, every time.
	PreBufferMissQuery
	// PreBufferMissQueryIfUncontended falls through only if the worker
	// is not currently mid-refill (otherwise behaves like Silence).
	PreBufferMissQueryIfUncontended
)

// preBufferedBlock is one ring slot: a fixed-capacity buffer holding
// the response to one SupplyAudio call the worker issued ahead of
// time. ready is the single-writer/single-reader handoff flag — the
// worker sets it true after filling, the audio thread sets it false
// after consuming (or invalidating) it.
type preBufferedBlock struct {
	startFrame int64
	buffer     AudioBuffer
	resp       AudioResponse
	ready      atomic.Bool
}

// PreBuffer is the outermost audio-only supplier layer:
// a small ring of blocks a worker thread fills ahead of the real-time
// read cursor, so the audio thread's common-case request is a memcpy
// rather than a call into the rest of the chain.
type PreBuffer struct {
	inner       Supplier
	blocks      []*preBufferedBlock
	blockFrames int
	readHead    int // owned by the audio thread only
	missPolicy  PreBufferMissPolicy

	nextReasonableFrame atomic.Int64
	workerBusy          atomic.Bool
	lastFrameCount      atomic.Int64
	numChannels         int
	scratch             frameWindow
}

// NewPreBuffer wraps inner with a ring sized blockFrames x blockCount,
// each block holding numChannels channels.
func NewPreBuffer(inner Supplier, numChannels, blockFrames, blockCount int, policy PreBufferMissPolicy) *PreBuffer {
	if blockFrames <= 0 {
		blockFrames = DefaultPreBufferBlockFrames
	}
	if blockCount <= 0 {
		blockCount = DefaultPreBufferBlockCount
	}
	pb := &PreBuffer{
		inner:       inner,
		blocks:      make([]*preBufferedBlock, blockCount),
		blockFrames: blockFrames,
		missPolicy:  policy,
		numChannels: numChannels,
	}
	for i := range pb.blocks {
		buf := make(AudioBuffer, numChannels)
		for ch := range buf {
			buf[ch] = make([]float32, blockFrames)
		}
		pb.blocks[i] = &preBufferedBlock{buffer: buf}
	}
	pb.lastFrameCount.Store(inner.MaterialInfo().FrameCount)
	return pb
}

func (pb *PreBuffer) MaterialInfo() MaterialInfo { return pb.inner.MaterialInfo() }

func (pb *PreBuffer) TranslatePlayPosToSourcePos(playPos int64) int64 {
	return pb.inner.TranslatePlayPosToSourcePos(playPos)
}

// invalidateIfMaterialChanged drops all cached blocks when the
// wrapped supplier's length has changed under us (e.g. a recording
// committed).
func (pb *PreBuffer) invalidateIfMaterialChanged() {
	fc := pb.inner.MaterialInfo().FrameCount
	if fc != pb.lastFrameCount.Load() {
		pb.lastFrameCount.Store(fc)
		for _, b := range pb.blocks {
			b.ready.Store(false)
		}
	}
}

// SupplyAudio implements the pre-buffer's four-step supply algorithm.
func (pb *PreBuffer) SupplyAudio(req AudioRequest, dest AudioBuffer) (AudioResponse, error) {
	pb.invalidateIfMaterialChanged()

	want := dest.FrameCount()
	if req.StartFrame < 0 {
		silence := int(-req.StartFrame)
		if silence > want {
			silence = want
		}
		for ch := range dest {
			for i := 0; i < silence; i++ {
				dest[ch][i] = 0
			}
		}
		if silence == want {
			return AudioResponse{Status: Continue}, nil
		}
		innerReq := req
		innerReq.StartFrame = 0
		window := pb.window(dest, silence, want-silence)
		resp, err := pb.supplyFromCache(innerReq, window)
		if resp.Status == ReachedEnd {
			resp.NumFramesWritten += silence
		}
		return resp, err
	}
	return pb.supplyFromCache(req, dest)
}

func (pb *PreBuffer) window(dest AudioBuffer, offset, n int) AudioBuffer {
	return pb.scratch.view(dest, offset, n)
}

func (pb *PreBuffer) supplyFromCache(req AudioRequest, dest AudioBuffer) (AudioResponse, error) {
	want := dest.FrameCount()
	start := req.StartFrame

	if head := pb.blocks[pb.readHead]; head.ready.Load() && pb.covers(head, start, want) {
		return pb.copyFrom(head, dest, start), nil
	}

	for i := 1; i < len(pb.blocks); i++ {
		idx := (pb.readHead + i) % len(pb.blocks)
		b := pb.blocks[idx]
		if b.ready.Load() && pb.covers(b, start, want) {
			for j := 0; j < i; j++ {
				skip := pb.blocks[(pb.readHead+j)%len(pb.blocks)]
				skip.ready.Store(false)
			}
			pb.readHead = idx
			return pb.copyFrom(b, dest, start), nil
		}
	}

	// Cache miss.
	pb.nextReasonableFrame.Store(start)
	switch pb.missPolicy {
	case PreBufferMissQuery:
		return pb.inner.SupplyAudio(req, dest)
	case PreBufferMissQueryIfUncontended:
		if !pb.workerBusy.Load() {
			return pb.inner.SupplyAudio(req, dest)
		}
		fallthrough
	default:
		dest.Clear()
		return AudioResponse{Status: Continue}, nil
	}
}

func (pb *PreBuffer) covers(b *preBufferedBlock, start int64, want int) bool {
	n := int64(b.buffer.FrameCount())
	if b.resp.Status == ReachedEnd {
		n = int64(b.resp.NumFramesWritten)
	}
	return start >= b.startFrame && start < b.startFrame+n
}

func (pb *PreBuffer) copyFrom(b *preBufferedBlock, dest AudioBuffer, start int64) AudioResponse {
	offset := int(start - b.startFrame)
	validInBlock := b.buffer.FrameCount() - offset
	reachedEnd := b.resp.Status == ReachedEnd
	if reachedEnd {
		validInBlock = b.resp.NumFramesWritten - offset
	}
	n := dest.FrameCount()
	exhausted := false
	if validInBlock <= n {
		n = validInBlock
		exhausted = true
	}
	for ch := range dest {
		var src []float32
		if ch < len(b.buffer) {
			src = b.buffer[ch]
		}
		if src != nil {
			copy(dest[ch][:n], src[offset:offset+n])
		}
		for i := n; i < dest.FrameCount(); i++ {
			dest[ch][i] = 0
		}
	}
	if exhausted {
		b.ready.Store(false)
	}
	if reachedEnd && exhausted && offset+n >= b.resp.NumFramesWritten {
		return AudioResponse{Status: ReachedEnd, NumFramesWritten: n}
	}
	return AudioResponse{Status: Continue}
}

func (pb *PreBuffer) SupplyMidi(req MidiRequest, queue *midi.EventQueue) (MidiResponse, error) {
	// The prebuffer ring only exists for the audio path; MIDI passes straight through.
	return pb.inner.SupplyMidi(req, queue)
}

// Refill is called from the worker thread: it fills every stale block
// starting from nextReasonableFrame, advancing sequentially and
// wrapping to 0 on ReachedEnd.
func (pb *PreBuffer) Refill() {
	pb.workerBusy.Store(true)
	defer pb.workerBusy.Store(false)

	next := pb.nextReasonableFrame.Load()
	for i := 0; i < len(pb.blocks); i++ {
		idx := (pb.readHead + i) % len(pb.blocks)
		b := pb.blocks[idx]
		if b.ready.Load() {
			next = b.startFrame + int64(b.buffer.FrameCount())
			continue
		}
		req := AudioRequest{StartFrame: next}
		resp, err := pb.inner.SupplyAudio(req, b.buffer)
		if err != nil {
			continue
		}
		b.startFrame = next
		b.resp = resp
		b.ready.Store(true)
		if resp.Status == ReachedEnd {
			next = 0
		} else {
			next += int64(b.buffer.FrameCount())
		}
	}
	pb.nextReasonableFrame.Store(next)
}
