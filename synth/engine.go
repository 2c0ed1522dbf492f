package synth

import (
	"sync"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/audio"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/util"
)

// Engine renders a model.Timeline to audible sound with a seekable,
// tempo-scalable transport and per-voice mixing. All transport state lives
// behind one mutex; the render path takes it once per block.
type Engine struct {
	mu sync.Mutex

	timeline   *model.Timeline
	sampleRate float64
	clock      audio.Clock
	out        *audio.OutputDevice
	ownsDevice bool

	voices []*voice
	mix    map[string]model.VoiceMixState

	playing         bool
	position        float64 // frozen score position while paused/stopped
	playStartDevice float64 // device time at last play/seek/tempo anchor
	playStartScore  float64 // score time at the same anchor
	tempo           float64

	onLoop   func()
	disposed bool
}

// NewEngine builds an engine on an output device it will drive and, when
// ownsDevice is set, tear down on Dispose. The device may instead be shared
// with microphone capture so playback and analysis stay on one clock.
func NewEngine(tl *model.Timeline, out *audio.OutputDevice, ownsDevice bool) *Engine {
	e := newEngine(tl, out.Clock(), out.SampleRate())
	e.out = out
	e.ownsDevice = ownsDevice
	out.SetRender(e.RenderBlock)
	return e
}

// NewOfflineEngine builds an engine with no device, rendered by calling
// RenderBlock directly against the supplied clock. Used by tests and the
// calibrator's synthetic paths.
func NewOfflineEngine(tl *model.Timeline, clock audio.Clock, sampleRate float64) *Engine {
	return newEngine(tl, clock, sampleRate)
}

func newEngine(tl *model.Timeline, clock audio.Clock, sampleRate float64) *Engine {
	tl.SortNotes()
	e := &Engine{
		timeline:   tl,
		sampleRate: sampleRate,
		clock:      clock,
		mix:        make(map[string]model.VoiceMixState),
		tempo:      1.0,
	}
	for _, name := range tl.Voices() {
		e.voices = append(e.voices, newVoice(name, buildSegments(tl.NotesForVoice(name))))
		e.mix[name] = model.DefaultVoiceMixState()
	}
	e.applyGainsLocked()
	return e
}

// RenderBlock fills one mono block. It is called from the device data
// callback before the device clock advances, so the block's first sample
// corresponds to clock.Now().
func (e *Engine) RenderBlock(out []float32) {
	for i := range out {
		out[i] = 0
	}

	e.mu.Lock()
	if !e.playing || e.disposed {
		e.mu.Unlock()
		return
	}
	devT := e.clock.Now()
	startScore := e.playStartScore + (devT-e.playStartDevice)*e.tempo
	scoreStep := e.tempo / e.sampleRate

	// Auto-loop: wrap before rendering a block that would cross the end,
	// so playback continues from 0 with no gap.
	var looped bool
	if startScore >= e.timeline.TotalDuration-constants.LoopEpsilonSec {
		e.playStartDevice = devT
		e.playStartScore = 0
		startScore = 0
		for _, v := range e.voices {
			v.segIdx = 0
		}
		looped = true
	}

	for _, v := range e.voices {
		v.render(out, startScore, scoreStep, e.tempo, e.sampleRate)
	}
	onLoop := e.onLoop
	e.mu.Unlock()

	if looped && onLoop != nil {
		go onLoop()
	}
}

// Play starts the transport. Playing while already playing is a no-op.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing || e.disposed {
		return
	}
	e.playing = true
	e.playStartDevice = e.clock.Now()
	e.playStartScore = e.position
}

// Pause freezes the transport, capturing the position from the device
// clock delta since the last play anchor.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
}

func (e *Engine) pauseLocked() {
	if !e.playing {
		return
	}
	e.position = e.positionLocked()
	e.playing = false
}

// Stop pauses and rewinds to zero.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.pauseLocked()
	e.position = 0
	for _, v := range e.voices {
		v.seek(0)
	}
}

// SeekTo jumps to t, clamped to [0, duration], without changing the
// playing state.
func (e *Engine) SeekTo(t float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t = util.Clamp(t, 0, e.timeline.TotalDuration)
	if e.playing {
		e.playStartDevice = e.clock.Now()
		e.playStartScore = t
	} else {
		e.position = t
	}
	for _, v := range e.voices {
		v.seek(t)
	}
}

// SetTempoMultiplier changes playback speed without jumping the audible
// position: while playing it re-anchors at the current position.
func (e *Engine) SetTempoMultiplier(m float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	m = util.Clamp(m, constants.MinTempoMultiplier, constants.MaxTempoMultiplier)
	if e.playing {
		e.position = e.positionLocked()
		e.playStartDevice = e.clock.Now()
		e.playStartScore = e.position
	}
	e.tempo = m
}

func (e *Engine) GetTempoMultiplier() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempo
}

// SetVoiceSettings applies a partial mix update. Solo is global, so every
// voice's effective gain is recomputed (and ramped) on any change.
func (e *Engine) SetVoiceSettings(voiceName string, upd model.VoiceMixUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.mix[voiceName]
	if !ok {
		return
	}
	if upd.Volume != nil {
		st.Volume = util.Clamp(*upd.Volume, 0, 1)
	}
	if upd.Muted != nil {
		st.Muted = *upd.Muted
	}
	if upd.Solo != nil {
		st.Solo = *upd.Solo
	}
	e.mix[voiceName] = st
	e.applyGainsLocked()
}

func (e *Engine) GetVoiceSettings(voiceName string) (model.VoiceMixState, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.mix[voiceName]
	return st, ok
}

// VoiceSettings returns a copy of the whole mix map.
func (e *Engine) VoiceSettings() map[string]model.VoiceMixState {
	e.mu.Lock()
	defer e.mu.Unlock()
	res := make(map[string]model.VoiceMixState, len(e.mix))
	for k, v := range e.mix {
		res[k] = v
	}
	return res
}

func (e *Engine) applyGainsLocked() {
	anySolo := false
	for _, st := range e.mix {
		if st.Solo {
			anySolo = true
		}
	}
	for _, v := range e.voices {
		st := e.mix[v.name]
		gain := st.Volume
		if st.Muted || (anySolo && !st.Solo) {
			gain = 0
		}
		v.targetGain = gain
	}
}

// CurrentTime returns the transport position in score seconds.
func (e *Engine) CurrentTime() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.positionLocked()
}

func (e *Engine) positionLocked() float64 {
	if !e.playing {
		return e.position
	}
	pos := e.playStartScore + (e.clock.Now()-e.playStartDevice)*e.tempo
	return util.Clamp(pos, 0, e.timeline.TotalDuration)
}

// MapDeviceTimeToScoreTime answers what score time a past device-clock
// reading corresponded to, using the current play anchor. Needed so
// analysis can timestamp microphone frames in score time without mixing
// time bases.
func (e *Engine) MapDeviceTimeToScoreTime(deviceTime float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.playing {
		return e.position
	}
	pos := e.playStartScore + (deviceTime-e.playStartDevice)*e.tempo
	return util.Clamp(pos, 0, e.timeline.TotalDuration)
}

// DeviceClock exposes the engine's clock so capture can share its domain.
func (e *Engine) DeviceClock() audio.Clock {
	return e.clock
}

func (e *Engine) SampleRate() float64 {
	return e.sampleRate
}

func (e *Engine) Duration() float64 {
	return e.timeline.TotalDuration
}

func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Engine) Timeline() *model.Timeline {
	return e.timeline
}

// SetLoopCallback registers a hook fired (asynchronously) on auto-loop.
// The session uses it to reset evaluation state across the boundary.
func (e *Engine) SetLoopCallback(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onLoop = fn
}

// Transport returns a consistent transport snapshot.
func (e *Engine) Transport() model.TransportState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return model.TransportState{
		PositionSeconds: e.positionLocked(),
		TempoMultiplier: e.tempo,
		IsPlaying:       e.playing,
	}
}

// Dispose stops rendering and releases the output device only if the
// engine created it itself; a shared device is left running for its other
// users. Teardown never fails.
func (e *Engine) Dispose() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.playing = false
	out := e.out
	owns := e.ownsDevice
	e.mu.Unlock()

	if out != nil {
		out.SetRender(nil)
		if owns {
			out.Close()
		}
	}
}
