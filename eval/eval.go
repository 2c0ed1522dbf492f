package eval

import (
	"math"
	"sync/atomic"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/pitch"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/util"
)

// TimeMapper converts device-clock timestamps to score time. The synthesis
// engine satisfies this.
type TimeMapper interface {
	MapDeviceTimeToScoreTime(deviceTime float64) float64
	GetTempoMultiplier() float64
}

// Evaluator turns ordered pitch events into classified intonation feedback
// against the selected voice's note list. All cross-tick state lives in the
// EvaluationState value the caller passes through Process; reset boundaries
// (stop, seek, loop restart, reload) replace that value via Reset instead of
// mutating fields.
type Evaluator struct {
	mapper   TimeMapper
	settings *SettingsHolder
	notes    atomic.Pointer[[]model.NoteEvent]
}

func NewEvaluator(mapper TimeMapper, settings *SettingsHolder) *Evaluator {
	e := &Evaluator{mapper: mapper, settings: settings}
	empty := []model.NoteEvent{}
	e.notes.Store(&empty)
	return e
}

// SetNotes installs the start-time-sorted note list of the voice being
// evaluated. Callers should Reset their state afterwards.
func (e *Evaluator) SetNotes(notes []model.NoteEvent) {
	own := make([]model.NoteEvent, len(notes))
	copy(own, notes)
	e.notes.Store(&own)
}

// Reset is the state for a fresh start: microphone start, stop, seek, loop
// restart and file reload all swap this in.
func (e *Evaluator) Reset() model.EvaluationState {
	return model.NewEvaluationState()
}

// Process evaluates one pitch event and returns the next state plus the
// feedback for this tick. Events must arrive in the order produced.
func (e *Evaluator) Process(st model.EvaluationState, ev model.PitchEvent) (model.EvaluationState, model.Feedback) {
	cfg := e.settings.Load()
	notes := *e.notes.Load()

	// The event is stamped at the end of its analysis window; judge the
	// window's center, then pull back by the calibrated latency converted
	// into score units.
	center := ev.DeviceTime - ev.HalfWindow
	scoreT := e.mapper.MapDeviceTimeToScoreTime(center) -
		cfg.LatencyOffsetMs/1000*e.mapper.GetTempoMultiplier()

	target, targetDur := selectTarget(&st, notes, scoreT, cfg.TransitionWindow)

	hint := -1
	if target.HasHint {
		hint = target.HintMidi
	}
	if hint != st.PrevHint {
		st.SmoothedMidi, st.HasSmoothed = 0, false
		st.LastCents, st.HasLastCents = 0, false
		st.ConfirmedBucket = model.BucketNone
		st.OffStreak, st.WrongStreak = 0, 0
		st.GraceUntil = 0
		if target.HasHint {
			st.GraceUntil = scoreT + graceSeconds(targetDur, cfg)
		}
		st.PrevHint = hint
	}

	exact := 0.0
	if ev.Voiced {
		exact = pitch.FrequencyToMidi(ev.Frequency)
		if st.HasSmoothed {
			st.SmoothedMidi = cfg.SmoothingAlpha*exact + (1-cfg.SmoothingAlpha)*st.SmoothedMidi
		} else {
			st.SmoothedMidi = exact
			st.HasSmoothed = true
		}
	}

	inGrace := target.HasHint && scoreT < st.GraceUntil

	cents, hasCents := 0.0, false
	if target.HasHint && ev.Voiced && st.HasSmoothed {
		cents = centsAgainst(target, st.SmoothedMidi, cfg.PairPadCents)
		hasCents = true
	}

	clear := ev.Voiced && ev.Clarity >= cfg.ClarityGate
	if clear && !inGrace && hasCents {
		st.LastCents, st.HasLastCents = cents, true
		switch classify(cents, cfg) {
		case model.BucketOnPitch:
			st.ConfirmedBucket = model.BucketOnPitch
			st.OffStreak, st.WrongStreak = 0, 0
		case model.BucketOffPitch:
			st.OffStreak++
			st.WrongStreak = 0
			if st.OffStreak >= cfg.OffConfirm {
				st.ConfirmedBucket = model.BucketOffPitch
			}
		case model.BucketWrongNote:
			st.WrongStreak++
			st.OffStreak = 0
			if st.WrongStreak >= cfg.WrongConfirm {
				st.ConfirmedBucket = model.BucketWrongNote
			}
		}
	} else {
		// Unclear, graced or targetless frames never count toward a
		// confirmation streak; the confirmed bucket and last deviation
		// stay frozen through brief dropouts.
		st.OffStreak, st.WrongStreak = 0, 0
	}

	fb := model.Feedback{
		ScoreTime: scoreT,
		Target:    target,
		Estimate: model.PitchEstimate{
			FrequencyHz: ev.Frequency,
			Voiced:      ev.Voiced,
			Clarity:     ev.Clarity,
		},
		ExactMidi: exact,
		Cents:     st.LastCents,
		HasCents:  st.HasLastCents,
		InGrace:   inGrace,
		Confirmed: st.ConfirmedBucket,
	}
	return st, fb
}

// selectTarget locates the notes active at scoreT, moving the cursor by
// linear steps in either direction so small backward jumps never force a
// rescan. Near a boundary between notes of different pitch, both sides of
// the boundary are targets; identical pitches collapse to one. The second
// return is the primary target's duration, which sizes the grace period.
func selectTarget(st *model.EvaluationState, notes []model.NoteEvent, scoreT, tw float64) (model.TargetWindow, float64) {
	none := model.TargetWindow{HintMidi: -1}
	if len(notes) == 0 {
		return none, 0
	}

	c := util.Clamp(st.Cursor, 0, len(notes)-1)
	for c > 0 && notes[c].Start > scoreT {
		c--
	}
	for c+1 < len(notes) && notes[c+1].Start <= scoreT {
		c++
	}
	st.Cursor = c

	cur := notes[c]
	var primary, second *model.NoteEvent
	switch {
	case scoreT < cur.Start:
		if cur.Start-scoreT <= tw {
			primary = &cur
		}
	case scoreT < cur.End():
		primary = &cur
		if c+1 < len(notes) {
			next := notes[c+1]
			if next.Start-scoreT <= tw && next.Pitch != cur.Pitch {
				second = &next
			}
		}
		if second == nil && c > 0 {
			prev := notes[c-1]
			if scoreT-cur.Start <= tw && cur.Start-prev.End() <= tw && prev.Pitch != cur.Pitch {
				second = &prev
			}
		}
	default:
		if scoreT-cur.End() <= tw {
			primary = &cur
		}
		if c+1 < len(notes) {
			next := notes[c+1]
			if next.Start-scoreT <= tw {
				if primary == nil {
					primary = &next
				} else if next.Pitch != cur.Pitch {
					second = &next
				}
			}
		}
	}

	if primary == nil {
		return none, 0
	}
	winNotes := []model.NoteEvent{*primary}
	if second != nil {
		if second.Start < primary.Start {
			winNotes = []model.NoteEvent{*second, *primary}
		} else {
			winNotes = append(winNotes, *second)
		}
	}
	return model.TargetWindow{
		Notes:    winNotes,
		HintMidi: int(primary.Pitch),
		HasHint:  true,
	}, primary.Duration
}

// graceSeconds sizes the post-target-change grace period from the target
// note's duration: half the note, floored and capped.
func graceSeconds(noteDur float64, cfg model.Settings) float64 {
	ms := util.Clamp(0.5*noteDur*1000, cfg.MinGraceMs, cfg.MaxGraceMs)
	return ms / 1000
}

// centsAgainst measures the smoothed estimate against the target window.
// A single target compares directly; a pair forms an allowed band padded on
// both sides, inside which the deviation is zero.
func centsAgainst(target model.TargetWindow, smoothedMidi, padCents float64) float64 {
	mc := smoothedMidi * 100
	if len(target.Notes) == 1 {
		return mc - float64(target.Notes[0].Pitch)*100
	}
	lo := math.Min(float64(target.Notes[0].Pitch), float64(target.Notes[1].Pitch))*100 - padCents
	hi := math.Max(float64(target.Notes[0].Pitch), float64(target.Notes[1].Pitch))*100 + padCents
	switch {
	case mc < lo:
		return mc - lo
	case mc > hi:
		return mc - hi
	default:
		return 0
	}
}

func classify(cents float64, cfg model.Settings) model.Bucket {
	abs := math.Abs(cents)
	switch {
	case abs <= cfg.OnPitchCents:
		return model.BucketOnPitch
	case abs >= cfg.WrongNoteCents:
		return model.BucketWrongNote
	default:
		return model.BucketOffPitch
	}
}
