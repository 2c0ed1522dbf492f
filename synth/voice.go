package synth

import (
	"math"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
)

// voice is one continuous tone generator. It exists for the lifetime of the
// loaded timeline (not per note) so there is never a cross-note
// discontinuity in phase or gain.
type voice struct {
	name     string
	segments []segment

	segIdx     int
	phase      float64
	freq       float64 // current glided frequency in Hz
	gain       float64 // ramped effective mix gain
	targetGain float64
}

func newVoice(name string, segs []segment) *voice {
	v := &voice{name: name, segments: segs, gain: 1, targetGain: 1}
	if len(segs) > 0 {
		v.freq = segs[0].freq
	}
	return v
}

// seek repositions the segment cursor with a bounded linear walk. Large
// jumps (loop restart) reset to the front instead of scanning backwards.
func (v *voice) seek(scoreT float64) {
	if v.segIdx >= len(v.segments) || scoreT < v.currentStart()-1.0 {
		v.segIdx = 0
	}
	v.advance(scoreT)
}

func (v *voice) currentStart() float64 {
	if v.segIdx < len(v.segments) {
		return v.segments[v.segIdx].start
	}
	return math.Inf(1)
}

// advance moves segIdx so it points at the first segment not yet ended.
func (v *voice) advance(scoreT float64) {
	for v.segIdx < len(v.segments) && v.segments[v.segIdx].end < scoreT {
		v.segIdx++
	}
	for v.segIdx > 0 && v.segments[v.segIdx-1].end >= scoreT {
		v.segIdx--
	}
}

// render adds this voice's contribution to out. startScore is the score
// time of the first sample; scoreStep is the score-time advance per sample
// (tempo multiplier / sample rate).
func (v *voice) render(out []float32, startScore, scoreStep, tempoMul, sampleRate float64) {
	glideCoeff := 1 - math.Exp(-1/(sampleRate*constants.PortamentoSec/3))
	gainStep := 1 / (sampleRate * constants.GainRampSec)
	dt := 1 / sampleRate

	for i := range out {
		scoreT := startScore + float64(i)*scoreStep
		v.advance(scoreT)

		amp := constants.AmplitudeFloor
		target := v.freq
		if v.segIdx < len(v.segments) {
			seg := v.segments[v.segIdx]
			if scoreT >= seg.start && scoreT <= seg.end {
				target = seg.freq
				amp = seg.amplitude(scoreT, tempoMul)
			}
		}

		// Short portamento toward the scheduled pitch.
		v.freq += (target - v.freq) * glideCoeff

		// Gain ramp toward the mix target.
		if v.gain < v.targetGain {
			v.gain = math.Min(v.targetGain, v.gain+gainStep)
		} else if v.gain > v.targetGain {
			v.gain = math.Max(v.targetGain, v.gain-gainStep)
		}

		v.phase += v.freq * dt
		if v.phase >= 1 {
			v.phase--
		}
		out[i] += float32(math.Sin(2*math.Pi*v.phase) * amp * v.gain)
	}
}
