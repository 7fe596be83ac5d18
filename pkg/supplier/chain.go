package supplier

// ChainConfig parameterizes the fixed layer order a clip's supplier
// chain is built in: Source -> Recorder -> Section ->
// Looper -> Resampler|TimeStretch -> PreBuffer (audio only). The
// Source/Recorder pair is built by the caller (recorder package) and
// passed in as inner; this builds everything above it.
type ChainConfig struct {
	SectionStartFrame     int64
	SectionLength         int64 // 0 = unbounded (whole inner material)
	DisableSourceFixFades bool
	Looped                bool

	// BeatBased selects TimeStretch (tempo adaptation by rate change;
	// pitch is not preserved) over Resampler.
	BeatBased   bool
	NativeTempo float64 // used when BeatBased
	VariSpeed   bool    // used when BeatBased: bypasses the stretch, material plays at native tempo

	NativeFrameRate float64 // used when !BeatBased

	WithPreBuffer       bool
	NumChannels         int
	PreBufferBlockFrames int
	PreBufferBlockCount  int
	PreBufferMissPolicy  PreBufferMissPolicy
}

// BuildAudioChain layers Section, Looper, Resampler|TimeStretch, and
// optionally PreBuffer on top of inner (a Source, possibly wrapped by
// a Recorder).
func BuildAudioChain(inner Supplier, cfg ChainConfig) Supplier {
	return BuildAudioChainWithHandles(inner, cfg).Supplier
}

// BuildMidiChain layers Section and Looper on top of inner (a MIDI
// source, possibly wrapped by a Recorder's mirror/live source). MIDI
// clips never get a PreBuffer or a rate converter — their internal
// frame rate is fixed.
func BuildMidiChain(inner Supplier, cfg ChainConfig) Supplier {
	return BuildMidiChainWithHandles(inner, cfg).Supplier
}

// ChainHandles exposes the mutable middle layers of a built chain
// (Section, Looper) alongside the composed Supplier, so a slot can
// retarget a clip's section or loop flag (SetClipSection,
// SetClipLooped) without rebuilding the whole chain.
type ChainHandles struct {
	Supplier Supplier
	Section  *Section
	Looper   *Looper
}

// BuildAudioChainWithHandles is [BuildAudioChain], additionally
// returning handles to the Section and Looper layers.
func BuildAudioChainWithHandles(inner Supplier, cfg ChainConfig) ChainHandles {
	section := NewSection(inner, cfg.SectionStartFrame, cfg.SectionLength, cfg.DisableSourceFixFades)
	looper := NewLooper(section, cfg.SectionLength, cfg.Looped)
	var s Supplier = looper
	if cfg.BeatBased {
		s = NewTimeStretch(s, cfg.NativeTempo, cfg.VariSpeed)
	} else {
		s = NewResampler(s, cfg.NativeFrameRate)
	}
	if cfg.WithPreBuffer {
		s = NewPreBuffer(s, cfg.NumChannels, cfg.PreBufferBlockFrames, cfg.PreBufferBlockCount, cfg.PreBufferMissPolicy)
	}
	return ChainHandles{Supplier: s, Section: section, Looper: looper}
}

// BuildMidiChainWithHandles is [BuildMidiChain], additionally returning
// handles to the Section and Looper layers.
func BuildMidiChainWithHandles(inner Supplier, cfg ChainConfig) ChainHandles {
	section := NewSection(inner, cfg.SectionStartFrame, cfg.SectionLength, true)
	looper := NewLooper(section, cfg.SectionLength, cfg.Looped)
	return ChainHandles{Supplier: looper, Section: section, Looper: looper}
}
