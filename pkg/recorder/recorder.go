// Package recorder implements the clip engine's recording state machine:
// capturing live audio or MIDI input into a growing source while passing
// play-side supplier calls straight through to whatever source is current,
// exactly the way a Recorder sits between a clip's Source and its Section in
// the supplier chain (Source -> Recorder -> Section -> ...).
package recorder

import (
	"github.com/justyntemme/clipgrid/pkg/midi"
	"github.com/justyntemme/clipgrid/pkg/supplier"
	"github.com/justyntemme/clipgrid/pkg/timeline"
)

// Phase is the recorder's outer state.
type Phase int

const (
	// PhaseReady has a finished (possibly empty) source and is not
	// recording. It may also carry an overdub mirror source from a prior
	// MIDI recording.
	PhaseReady Phase = iota
	PhaseRecording
	// PhaseFinishing is audio-only: the recording has committed and the
	// worker thread is finalizing the disk sink while playback continues
	// out of the in-memory temporary buffer.
	PhaseFinishing
)

func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "Ready"
	case PhaseRecording:
		return "Recording"
	case PhaseFinishing:
		return "Finishing"
	default:
		return "Unknown"
	}
}

// LengthPolicy is a recording's length: open-ended, or quantized to a
// musical boundary known ahead of time.
type LengthPolicy struct {
	OpenEnded bool
	Quant     timeline.EvenQuantization
}

// Instruction is the recording entry state captured when a recording begins.
type Instruction struct {
	Kind             supplier.Kind
	StartQuant       timeline.EvenQuantization
	LengthPolicy     LengthPolicy
	DetectDownbeat   bool
	InitialPlayStart float64
	Tempo            float64
	TimeSignature    timeline.TimeSignature
	// FrameRate is the project audio rate for audio recordings; MIDI
	// recordings always use supplier.MidiInternalFrameRate internally
	// regardless of what's passed here.
	FrameRate    float64
	ChannelCount int
}

type recordingState struct {
	kind           supplier.Kind
	oldSource      supplier.Supplier
	tempo          float64
	timeSignature  timeline.TimeSignature
	lengthPolicy   LengthPolicy
	detectDownbeat bool
	startQuant     timeline.EvenQuantization
	frameRate      float64

	totalFrameOffset   int64
	numCountInFrames   int64
	scheduledEndFrames int64 // 0 == open-ended
	started            bool
}

// FinishAudioRecording is the commit-handoff message sent to the worker
// thread: it finalizes Sink off the audio thread and replies on Response.
type FinishAudioRecording struct {
	Sink     AudioSink
	Response chan FinalizeResult
}

// FinalizeResult is the worker's reply to a FinishAudioRecording.
type FinalizeResult struct {
	Source supplier.Supplier
	Err    error
}

// FinalizeSubmitter hands a finalize job to the worker pool without the
// recorder package needing to import it.
type FinalizeSubmitter interface {
	Submit(job FinishAudioRecording)
}

// Recorder wraps a Source supplier, delegating play-side calls to whichever
// source is current and capturing recorded input on the side.
type Recorder struct {
	inner supplier.Supplier

	// persistentMidiSource is the mirror source promoted to "the new
	// persistent source" on a MIDI commit, while inner (the growing live
	// source) keeps playing in place without swap.
	persistentMidiSource supplier.Supplier

	phase Phase
	rec   *recordingState

	sink        AudioSink
	tempBuffer  *supplier.MemoryAudioSource
	midiGrowing *supplier.MemoryMidiSource
	mirror      *supplier.MemoryMidiSource

	submitter FinalizeSubmitter
	response  chan FinalizeResult
}

// New creates a Recorder in PhaseReady, playing from initial (nil is a valid
// empty slot).
func New(initial supplier.Supplier, submitter FinalizeSubmitter) *Recorder {
	return &Recorder{inner: initial, submitter: submitter}
}

func (r *Recorder) Phase() Phase { return r.phase }

// PersistentSource is the source a control thread should take ownership of
// for storage, once a MIDI recording has committed. Nil until then.
func (r *Recorder) PersistentSource() supplier.Supplier { return r.persistentMidiSource }

func (r *Recorder) MaterialInfo() supplier.MaterialInfo {
	if r.inner == nil {
		return supplier.MaterialInfo{}
	}
	return r.inner.MaterialInfo()
}

func (r *Recorder) TranslatePlayPosToSourcePos(playPos int64) int64 {
	if r.inner == nil {
		return playPos
	}
	return r.inner.TranslatePlayPosToSourcePos(playPos)
}

func (r *Recorder) SupplyAudio(req supplier.AudioRequest, dest supplier.AudioBuffer) (supplier.AudioResponse, error) {
	if r.inner == nil {
		dest.Clear()
		return supplier.AudioResponse{Status: supplier.ReachedEnd}, nil
	}
	return r.inner.SupplyAudio(req, dest)
}

func (r *Recorder) SupplyMidi(req supplier.MidiRequest, queue *midi.EventQueue) (supplier.MidiResponse, error) {
	if r.inner == nil {
		return supplier.MidiResponse{Status: supplier.ReachedEnd}, nil
	}
	return r.inner.SupplyMidi(req, queue)
}

// secondsPerBar mirrors the bar-length arithmetic timeline.Fixed uses
// internally; a recording's count-in and scheduled length need the same
// tempo/signature conversion the timeline does, expressed here since
// Instruction carries a snapshot rather than a live Timeline.
func secondsPerBar(tempo float64, sig timeline.TimeSignature) float64 {
	beatsPerBar := float64(sig.Numerator)
	if beatsPerBar <= 0 {
		beatsPerBar = 4
	}
	if tempo <= 0 {
		tempo = 120
	}
	return beatsPerBar * (60.0 / tempo)
}

// BeginRecording enters PhaseRecording. sink is ignored for MIDI kind.
func (r *Recorder) BeginRecording(instr Instruction, sink AudioSink) {
	if r.phase != PhaseReady {
		return
	}
	r.rec = &recordingState{
		kind:           instr.Kind,
		oldSource:      r.inner,
		tempo:          instr.Tempo,
		timeSignature:  instr.TimeSignature,
		lengthPolicy:   instr.LengthPolicy,
		detectDownbeat: instr.DetectDownbeat,
		startQuant:     instr.StartQuant,
		frameRate:      instr.FrameRate,
	}
	r.phase = PhaseRecording

	switch instr.Kind {
	case supplier.KindAudio:
		r.sink = sink
		r.tempBuffer = supplier.NewMemoryAudioSource(make([][]float32, instr.ChannelCount), instr.FrameRate)
	case supplier.KindMidi:
		r.midiGrowing = supplier.NewMemoryMidiSource()
		r.mirror = supplier.NewMemoryMidiSource()
		r.inner = r.midiGrowing
	}
}

func (r *Recorder) frameRateForKind() float64 {
	if r.rec.kind == supplier.KindMidi {
		return supplier.MidiInternalFrameRate
	}
	return r.rec.frameRate
}

// armCountIn computes num_count_in_frames and, if the length is known ahead
// of time, scheduled_end, exactly once on the first poll.
func (r *Recorder) armCountIn(now float64, tl timeline.Timeline) {
	rate := r.frameRateForKind()
	nextStart := tl.NextQuantizedPos(now, r.rec.startQuant)
	r.rec.numCountInFrames = int64((nextStart - now) * rate)
	r.rec.totalFrameOffset = 0
	if !r.rec.lengthPolicy.OpenEnded {
		lengthSeconds := secondsPerBar(r.rec.tempo, r.rec.timeSignature) * r.rec.lengthPolicy.Quant.BarFraction()
		r.rec.scheduledEndFrames = r.rec.numCountInFrames + int64(lengthSeconds*rate)
	}
	r.rec.started = true
}

// PollAudio is the per-block audio-thread poll while recording audio. input is the live input block about to
// be captured.
func (r *Recorder) PollAudio(now float64, tl timeline.Timeline, input [][]float32) error {
	if r.phase != PhaseRecording || r.rec == nil || r.rec.kind != supplier.KindAudio {
		return nil
	}
	frameCount := 0
	if len(input) > 0 {
		frameCount = len(input[0])
	}

	if !r.rec.started {
		r.armCountIn(now, tl)
	}

	if r.sink != nil {
		if err := r.sink.WriteFrames(input); err != nil {
			return err
		}
	}
	r.tempBuffer.AppendFrames(input)
	r.rec.totalFrameOffset += int64(frameCount)

	if r.rec.scheduledEndFrames > 0 && r.rec.totalFrameOffset > r.rec.scheduledEndFrames {
		r.commitAudio()
	}
	return nil
}

// PollMidi mirrors PollAudio for MIDI material: events already carry
// intra-block sample offsets relative to this block's start.
func (r *Recorder) PollMidi(now float64, tl timeline.Timeline, frameCount int, events []midi.Event) {
	if r.phase != PhaseRecording || r.rec == nil || r.rec.kind != supplier.KindMidi {
		return
	}

	if !r.rec.started {
		r.armCountIn(now, tl)
	}

	for _, e := range events {
		frame := r.rec.totalFrameOffset + int64(e.SampleOffset())
		r.midiGrowing.AppendEvent(frame, e)
		r.mirror.AppendEvent(frame, e)
	}

	deltaMidiFrames := int64(float64(frameCount) * (r.rec.tempo / supplier.BaseMidiTempo))
	r.rec.totalFrameOffset += deltaMidiFrames

	if r.rec.scheduledEndFrames > 0 && r.rec.totalFrameOffset > r.rec.scheduledEndFrames {
		r.commitMidi()
	}
}

// Stop begins the recorder's stop sequence.
func (r *Recorder) Stop(immediate bool, now float64, tl timeline.Timeline) {
	if r.phase != PhaseRecording || r.rec == nil {
		return
	}
	if r.rec.totalFrameOffset < r.rec.numCountInFrames {
		r.rollback()
		return
	}
	if immediate {
		r.commit()
		return
	}
	nextStop := tl.NextQuantizedPos(now, r.rec.lengthPolicy.Quant)
	r.rec.scheduledEndFrames = r.rec.totalFrameOffset + int64((nextStop-now)*r.frameRateForKind())
}

// rollback discards the in-progress recording and restores old_source.
func (r *Recorder) rollback() {
	if r.sink != nil {
		_ = r.sink.Abort()
	}
	r.inner = r.rec.oldSource
	r.sink = nil
	r.tempBuffer = nil
	r.midiGrowing = nil
	r.mirror = nil
	r.rec = nil
	r.phase = PhaseReady
}

func (r *Recorder) commit() {
	switch r.rec.kind {
	case supplier.KindAudio:
		r.commitAudio()
	case supplier.KindMidi:
		r.commitMidi()
	}
}

// commitAudio hands the sink to the worker thread for finalizing,
// keeping playback out of the temp buffer meanwhile.
func (r *Recorder) commitAudio() {
	r.inner = r.tempBuffer
	r.phase = PhaseFinishing
	r.response = make(chan FinalizeResult, 1)
	r.submitter.Submit(FinishAudioRecording{Sink: r.sink, Response: r.response})
}

// commitMidi promotes the mirror source to be the new persistent
// source; the growing live source (inner) keeps playing in place
// without a swap.
func (r *Recorder) commitMidi() {
	r.midiGrowing.SetLength(r.rec.totalFrameOffset)
	r.mirror.SetLength(r.rec.totalFrameOffset)
	r.persistentMidiSource = r.mirror
	r.phase = PhaseReady
	r.rec = nil
}

// PollFinalize checks for the worker's finalize reply while Finishing,
// swapping the finalized source in once it arrives. Must be called once per block from the
// audio thread; it never blocks.
func (r *Recorder) PollFinalize() {
	if r.phase != PhaseFinishing || r.response == nil {
		return
	}
	select {
	case result := <-r.response:
		if result.Err != nil {
			// Worker finalize failure rolls back rather than panicking.
			r.inner = r.rec.oldSource
		} else {
			r.inner = result.Source
		}
		r.tempBuffer = nil
		r.response = nil
		r.rec = nil
		r.phase = PhaseReady
	default:
	}
}

// Overdub writes incoming MIDI into both the currently-playing source and
// the mirror source at the current play frame, without changing phase.
func (r *Recorder) Overdub(playFrame int64, events []midi.Event) {
	if r.phase != PhaseReady {
		return
	}
	growing, ok := r.inner.(*supplier.MemoryMidiSource)
	if !ok {
		return
	}
	mirror, _ := r.persistentMidiSource.(*supplier.MemoryMidiSource)
	for _, e := range events {
		frame := playFrame + int64(e.SampleOffset())
		growing.AppendEvent(frame, e)
		if mirror != nil {
			mirror.AppendEvent(frame, e)
		}
	}
}
