package synth

import (
	"math"
	"sort"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/pitch"
)

// segment is one sustained stretch of a single pitch in a voice. Adjacent
// notes of identical pitch separated by at most MergeGapSec collapse into
// one segment so the envelope never retriggers across the join.
type segment struct {
	start float64 // score seconds
	end   float64
	pitch uint8
	freq  float64
}

// buildSegments converts a voice's note list into scheduled segments.
// Notes are sorted defensively; zero and negative durations are dropped.
func buildSegments(notes []model.NoteEvent) []segment {
	sorted := make([]model.NoteEvent, 0, len(notes))
	for _, n := range notes {
		if n.Duration > 0 {
			sorted = append(sorted, n)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Start < sorted[j].Start
	})

	var segs []segment
	for _, n := range sorted {
		if len(segs) > 0 {
			last := &segs[len(segs)-1]
			if last.pitch == n.Pitch && n.Start-last.end <= constants.MergeGapSec {
				if n.End() > last.end {
					last.end = n.End()
				}
				continue
			}
		}
		segs = append(segs, segment{
			start: n.Start,
			end:   n.End(),
			pitch: n.Pitch,
			freq:  pitch.MidiToFrequency(float64(n.Pitch)),
		})
	}
	return segs
}

// amplitude evaluates the segment envelope at a score time. Ramp lengths
// are real-time constants, so their score-time spans scale with the tempo
// multiplier m.
func (s segment) amplitude(scoreT, m float64) float64 {
	if scoreT < s.start || scoreT > s.end {
		return constants.AmplitudeFloor
	}
	attackSpan := constants.AttackSec * m
	releaseSpan := constants.ReleaseSec * m
	a := 1.0
	if attackSpan > 0 {
		a = math.Min(a, (scoreT-s.start)/attackSpan)
	}
	if releaseSpan > 0 {
		a = math.Min(a, (s.end-scoreT)/releaseSpan)
	}
	if a < 0 {
		a = 0
	}
	return constants.AmplitudeFloor + (1-constants.AmplitudeFloor)*a
}
