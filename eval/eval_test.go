package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

// identityMapper treats device time as score time.
type identityMapper struct{ tempo float64 }

func (m identityMapper) MapDeviceTimeToScoreTime(t float64) float64 { return t }
func (m identityMapper) GetTempoMultiplier() float64                { return m.tempo }

func testNotes() []model.NoteEvent {
	return []model.NoteEvent{
		{Voice: "soprano", Start: 0, Duration: 1.0, Pitch: 69},
		{Voice: "soprano", Start: 1.0, Duration: 1.0, Pitch: 71},
		{Voice: "soprano", Start: 2.0, Duration: 0.6, Pitch: 64},
	}
}

func newTestEvaluator(s model.Settings) *Evaluator {
	e := NewEvaluator(identityMapper{tempo: 1}, NewSettingsHolder(s))
	e.SetNotes(testNotes())
	return e
}

// fastSettings removes smoothing lag and grace so confirmation counters can
// be exercised frame by frame.
func fastSettings() model.Settings {
	s := model.DifficultySettings("normal")
	s.SmoothingAlpha = 1
	s.MinGraceMs = 0
	s.MaxGraceMs = 0
	return s
}

func voiced(t, freq float64) model.PitchEvent {
	return model.PitchEvent{Frequency: freq, Voiced: true, Clarity: 0.9, DeviceTime: t}
}

func unvoiced(t float64) model.PitchEvent {
	return model.PitchEvent{DeviceTime: t}
}

func TestOnPitchConfirmedOnlyAfterGrace(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(model.DifficultySettings("normal"))
	st := e.Reset()

	// First tick locks the 1.0 s A4 target; grace is capped at 450 ms.
	var fb model.Feedback
	for tt := 0.50; tt < 0.95; tt += 0.05 {
		st, fb = e.Process(st, voiced(tt, 440))
		assert.True(fb.InGrace, "t=%v should still be in grace", tt)
		assert.Equal(model.BucketNone, fb.Confirmed)
	}

	st, fb = e.Process(st, voiced(0.95, 440))
	assert.False(fb.InGrace)
	assert.Equal(model.BucketOnPitch, fb.Confirmed)
	assert.True(fb.HasCents)
	assert.InDelta(0, fb.Cents, 5)
	_ = st
}

func TestTargetChangeSuppressesClassificationDuringGrace(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(model.DifficultySettings("normal"))
	st := e.Reset()

	for tt := 0.50; tt <= 0.95; tt += 0.05 {
		st, _ = e.Process(st, voiced(tt, 440))
	}

	// Keep singing A4 into the B4 note, past the boundary pair window.
	// The target change restarts grace: clarity is high and the deviation
	// is a full wrong-note, yet nothing may be classified until grace ends.
	var fb model.Feedback
	graceEnd := 1.14 + 0.45
	for tt := 1.14; tt < graceEnd; tt += 0.05 {
		st, fb = e.Process(st, voiced(tt, 440))
		assert.True(fb.InGrace, "t=%v", tt)
		assert.Equal(model.BucketNone, fb.Confirmed, "t=%v", tt)
	}

	// After grace the persisting deviation confirms, but only after three
	// consecutive wrong-note frames.
	st, fb = e.Process(st, voiced(graceEnd, 440))
	assert.Equal(model.BucketNone, fb.Confirmed)
	st, fb = e.Process(st, voiced(graceEnd+0.05, 440))
	assert.Equal(model.BucketNone, fb.Confirmed)
	st, fb = e.Process(st, voiced(graceEnd+0.10, 440))
	assert.Equal(model.BucketWrongNote, fb.Confirmed)
	assert.InDelta(-200, fb.Cents, 10)
}

func TestSingleOutlierDoesNotFlipConfirmed(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(fastSettings())
	st := e.Reset()

	var fb model.Feedback
	st, fb = e.Process(st, voiced(0.10, 440))
	assert.Equal(model.BucketOnPitch, fb.Confirmed)

	// One low-clarity frame: counters reset, confirmed state frozen.
	st, fb = e.Process(st, model.PitchEvent{Frequency: 600, Voiced: true, Clarity: 0.2, DeviceTime: 0.12})
	assert.Equal(model.BucketOnPitch, fb.Confirmed)

	// One off-pitch frame (A#4, +100 cents) is not enough to flip.
	st, fb = e.Process(st, voiced(0.14, 466.16))
	assert.Equal(model.BucketOnPitch, fb.Confirmed)

	st, fb = e.Process(st, voiced(0.16, 440))
	assert.Equal(model.BucketOnPitch, fb.Confirmed)

	// Two consecutive off-pitch frames confirm.
	st, fb = e.Process(st, voiced(0.18, 466.16))
	assert.Equal(model.BucketOnPitch, fb.Confirmed)
	st, fb = e.Process(st, voiced(0.20, 466.16))
	assert.Equal(model.BucketOffPitch, fb.Confirmed)

	// Wrong-note needs three; the first two leave off-pitch standing.
	st, fb = e.Process(st, voiced(0.22, 330))
	assert.Equal(model.BucketOffPitch, fb.Confirmed)
	st, fb = e.Process(st, voiced(0.24, 330))
	assert.Equal(model.BucketOffPitch, fb.Confirmed)
	st, fb = e.Process(st, voiced(0.26, 330))
	assert.Equal(model.BucketWrongNote, fb.Confirmed)
}

func TestFreezeOnDropoutKeepsLastDeviation(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(fastSettings())
	st := e.Reset()

	var fb model.Feedback
	st, fb = e.Process(st, voiced(0.10, 440))
	assert.True(fb.HasCents)
	want := fb.Cents

	for i, tt := range []float64{0.15, 0.20, 0.25} {
		st, fb = e.Process(st, unvoiced(tt))
		assert.True(fb.HasCents, "dropout frame %d", i)
		assert.Equal(want, fb.Cents)
		assert.Equal(model.BucketOnPitch, fb.Confirmed)
	}
}

func TestTransitionWindowPairsAcrossBoundary(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(model.DifficultySettings("normal"))

	targetAt := func(tt float64) model.TargetWindow {
		_, fb := e.Process(e.Reset(), voiced(tt, 440))
		return fb.Target
	}

	mid := targetAt(0.5)
	if assert.Len(mid.Notes, 1) {
		assert.EqualValues(69, mid.Notes[0].Pitch)
	}

	before := targetAt(0.95)
	if assert.Len(before.Notes, 2) {
		assert.EqualValues(69, before.Notes[0].Pitch)
		assert.EqualValues(71, before.Notes[1].Pitch)
		assert.Equal(69, before.HintMidi)
	}

	after := targetAt(1.05)
	if assert.Len(after.Notes, 2) {
		assert.Equal(71, after.HintMidi)
	}

	settled := targetAt(1.20)
	if assert.Len(settled.Notes, 1) {
		assert.EqualValues(71, settled.Notes[0].Pitch)
	}
}

func TestIdenticalPitchBoundaryCollapses(t *testing.T) {
	assert := assert.New(t)
	e := NewEvaluator(identityMapper{tempo: 1}, NewSettingsHolder(model.DifficultySettings("normal")))
	e.SetNotes([]model.NoteEvent{
		{Voice: "alto", Start: 0, Duration: 1.0, Pitch: 69},
		{Voice: "alto", Start: 1.0, Duration: 1.0, Pitch: 69},
	})

	_, fb := e.Process(e.Reset(), voiced(1.05, 440))
	assert.Len(fb.Target.Notes, 1)
	assert.Equal(69, fb.Target.HintMidi)
}

func TestGapHandling(t *testing.T) {
	assert := assert.New(t)
	e := NewEvaluator(identityMapper{tempo: 1}, NewSettingsHolder(model.DifficultySettings("normal")))
	e.SetNotes([]model.NoteEvent{
		{Voice: "tenor", Start: 0, Duration: 0.4, Pitch: 69},
		{Voice: "tenor", Start: 0.6, Duration: 0.4, Pitch: 71},
	})

	targetAt := func(tt float64) model.TargetWindow {
		_, fb := e.Process(e.Reset(), voiced(tt, 440))
		return fb.Target
	}

	// Just after the first note ends, it alone is still the target.
	assert.Len(targetAt(0.45).Notes, 1)
	// Mid-gap, within the window of both boundaries, both apply.
	assert.Len(targetAt(0.5).Notes, 2)
	// Close to the next note only.
	n := targetAt(0.55)
	if assert.Len(n.Notes, 1) {
		assert.EqualValues(71, n.Notes[0].Pitch)
	}
	// Far from everything: no target.
	e.SetNotes([]model.NoteEvent{
		{Voice: "tenor", Start: 0, Duration: 0.2, Pitch: 69},
		{Voice: "tenor", Start: 1.0, Duration: 0.2, Pitch: 71},
	})
	assert.False(targetAt(0.5).HasHint)
}

func TestLatencyOffsetShiftsJudgment(t *testing.T) {
	assert := assert.New(t)
	s := model.DifficultySettings("normal")
	s.LatencyOffsetMs = 100
	e := newTestEvaluator(s)

	_, fb := e.Process(e.Reset(), voiced(1.05, 440))
	assert.InDelta(0.95, fb.ScoreTime, 1e-9)
	assert.Equal(69, fb.Target.HintMidi)
}

func TestLatencyOffsetScalesWithTempo(t *testing.T) {
	assert := assert.New(t)
	s := model.DifficultySettings("normal")
	s.LatencyOffsetMs = 100
	e := NewEvaluator(identityMapper{tempo: 2}, NewSettingsHolder(s))
	e.SetNotes(testNotes())

	// 100 ms of real time is 200 ms of score time at double tempo.
	_, fb := e.Process(e.Reset(), voiced(1.05, 440))
	assert.InDelta(0.85, fb.ScoreTime, 1e-9)
	assert.Len(fb.Target.Notes, 1)
}

func TestWindowCenterIsJudged(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(model.DifficultySettings("normal"))

	_, fb := e.Process(e.Reset(), model.PitchEvent{
		Frequency: 440, Voiced: true, Clarity: 0.9,
		DeviceTime: 1.10, HalfWindow: 0.05,
	})
	assert.InDelta(1.05, fb.ScoreTime, 1e-9)
}

func TestCursorRetreatsOnBackwardJump(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(fastSettings())
	st := e.Reset()

	var fb model.Feedback
	st, fb = e.Process(st, voiced(2.3, 330))
	assert.Equal(64, fb.Target.HintMidi)
	assert.Equal(2, st.Cursor)

	st, fb = e.Process(st, voiced(0.5, 440))
	assert.Equal(69, fb.Target.HintMidi)
	assert.Equal(0, st.Cursor)
}

func TestPairBandCents(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(fastSettings())

	// Inside the padded band between A4 and B4 the deviation reads zero.
	_, fb := e.Process(e.Reset(), voiced(1.05, 466.16))
	assert.True(fb.HasCents)
	assert.InDelta(0, fb.Cents, 1)

	// Below the band: signed distance to the lower edge.
	_, fb = e.Process(e.Reset(), voiced(1.05, 420))
	assert.Less(fb.Cents, -40.0)
	assert.Greater(fb.Cents, -70.0)
}

func TestDynamicGraceScaling(t *testing.T) {
	assert := assert.New(t)
	cfg := model.DifficultySettings("normal")

	assert.InDelta(0.120, graceSeconds(0.1, cfg), 1e-9) // floored
	assert.InDelta(0.250, graceSeconds(0.5, cfg), 1e-9) // half the note
	assert.InDelta(0.450, graceSeconds(2.0, cfg), 1e-9) // capped
}

func TestResetClearsEverything(t *testing.T) {
	assert := assert.New(t)
	e := newTestEvaluator(fastSettings())
	st := e.Reset()

	st, _ = e.Process(st, voiced(0.5, 466.16))
	st, _ = e.Process(st, voiced(0.55, 466.16))
	assert.NotEqual(model.EvaluationState{PrevHint: -1}, st)

	fresh := e.Reset()
	assert.Equal(model.NewEvaluationState(), fresh)
	assert.Equal(-1, fresh.PrevHint)
	assert.Equal(0, fresh.Cursor)
	assert.False(fresh.HasLastCents)
}

func TestSettingsHolderSwapsWholeValues(t *testing.T) {
	assert := assert.New(t)
	h := NewSettingsHolder(model.DifficultySettings("normal"))
	assert.Equal("normal", h.Load().Difficulty)

	h.Store(model.DifficultySettings("strict"))
	assert.Equal("strict", h.Load().Difficulty)
	assert.EqualValues(20, h.Load().OnPitchCents)

	got := h.Update(func(s model.Settings) model.Settings {
		s.LatencyOffsetMs = 42
		return s
	})
	assert.EqualValues(42, got.LatencyOffsetMs)
	assert.EqualValues(42, h.Load().LatencyOffsetMs)
}
