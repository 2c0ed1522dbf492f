package model

// Settings is the full evaluation configuration. It is an immutable value:
// holders publish a new Settings rather than mutating fields, so the
// analysis path always reads a consistent snapshot.
type Settings struct {
	Voice           string  `json:"voice"`
	Difficulty      string  `json:"difficulty"`
	LatencyOffsetMs float64 `json:"latency_offset_ms"`

	ClarityGate    float64 `json:"clarity_gate"`     // min clarity to confirm a frame
	OnPitchCents   float64 `json:"on_pitch_cents"`   // |cents| <= this is on-pitch
	WrongNoteCents float64 `json:"wrong_note_cents"` // |cents| >= this is wrong-note
	OffConfirm     int     `json:"off_confirm"`      // consecutive frames to confirm off-pitch
	WrongConfirm   int     `json:"wrong_confirm"`    // consecutive frames to confirm wrong-note

	SmoothingAlpha   float64 `json:"smoothing_alpha"`
	MinGraceMs       float64 `json:"min_grace_ms"`
	MaxGraceMs       float64 `json:"max_grace_ms"`
	TransitionWindow float64 `json:"transition_window"` // seconds around a note boundary
	PairPadCents     float64 `json:"pair_pad_cents"`
}

// DifficultySettings returns the preset for a difficulty name. Unknown
// names fall back to normal.
func DifficultySettings(name string) Settings {
	s := Settings{
		Difficulty:       "normal",
		ClarityGate:      0.6,
		OnPitchCents:     35,
		WrongNoteCents:   120,
		OffConfirm:       2,
		WrongConfirm:     3,
		SmoothingAlpha:   0.35,
		MinGraceMs:       120,
		MaxGraceMs:       450,
		TransitionWindow: 0.13,
		PairPadCents:     30,
	}
	switch name {
	case "easy":
		s.Difficulty = "easy"
		s.ClarityGate = 0.4
		s.OnPitchCents = 50
		s.WrongNoteCents = 150
	case "strict":
		s.Difficulty = "strict"
		s.ClarityGate = 0.85
		s.OnPitchCents = 20
		s.WrongNoteCents = 100
	}
	return s
}
