package model

import "sort"

// NoteEvent is one note in the loaded score. Immutable once produced by the
// score loader.
type NoteEvent struct {
	Voice    string  `json:"voice"`
	Start    float64 `json:"start"`    // seconds of score time
	Duration float64 `json:"duration"` // seconds of score time
	Pitch    uint8   `json:"pitch"`    // midi number
}

func (n NoteEvent) End() float64 {
	return n.Start + n.Duration
}

// Timeline is the full score the engine plays. It is replaced wholesale on
// file reload, never mutated in place.
type Timeline struct {
	Notes         []NoteEvent `json:"notes"`
	TotalDuration float64     `json:"total_duration"`
	TempoBPM      float64     `json:"tempo_bpm"`
}

// SortNotes orders notes by voice then start time. The loader already emits
// sorted notes but the engine sorts again on load rather than trusting it.
func (t *Timeline) SortNotes() {
	sort.SliceStable(t.Notes, func(i, j int) bool {
		if t.Notes[i].Voice != t.Notes[j].Voice {
			return t.Notes[i].Voice < t.Notes[j].Voice
		}
		return t.Notes[i].Start < t.Notes[j].Start
	})
}

// Voices returns the distinct voice names in stable sorted order.
func (t *Timeline) Voices() []string {
	seen := make(map[string]bool)
	var res []string
	for _, n := range t.Notes {
		if !seen[n.Voice] {
			seen[n.Voice] = true
			res = append(res, n.Voice)
		}
	}
	sort.Strings(res)
	return res
}

// NotesForVoice returns that voice's notes in start-time-ascending order.
func (t *Timeline) NotesForVoice(voice string) []NoteEvent {
	var res []NoteEvent
	for _, n := range t.Notes {
		if n.Voice == voice {
			res = append(res, n)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return res[i].Start < res[j].Start
	})
	return res
}
