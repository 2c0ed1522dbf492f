package model

// Bucket is the intonation classification of one analysis frame.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketOnPitch
	BucketOffPitch
	BucketWrongNote
)

func (b Bucket) String() string {
	switch b {
	case BucketOnPitch:
		return "on-pitch"
	case BucketOffPitch:
		return "off-pitch"
	case BucketWrongNote:
		return "wrong-note"
	default:
		return "none"
	}
}

// TargetWindow is the zero, one or two adjacent notes considered active for
// evaluation at a given score time, plus the derived midi hint.
type TargetWindow struct {
	Notes    []NoteEvent `json:"notes"` // 0..2
	HintMidi int         `json:"hint_midi"`
	HasHint  bool        `json:"has_hint"`
}

// EvaluationState is all mutable cross-tick evaluation state, held as one
// explicit value. Reset boundaries (stop, seek, loop restart, reload,
// target change where noted) replace the struct rather than mutating
// fields, so stale state cannot leak across them.
type EvaluationState struct {
	Cursor          int     // index into the selected voice's sorted notes
	SmoothedMidi    float64 // exponential filter of the exact midi estimate
	HasSmoothed     bool
	PrevHint        int     // effective target midi of the previous tick, -1 if none
	GraceUntil      float64 // score time at which the grace period ends
	LastCents       float64 // last confirmed cents deviation
	HasLastCents    bool
	ConfirmedBucket Bucket
	OffStreak       int
	WrongStreak     int
}

// NewEvaluationState is the state used at microphone start and after every
// reset trigger.
func NewEvaluationState() EvaluationState {
	return EvaluationState{PrevHint: -1}
}

// Feedback is one tick of classified output for display layers.
type Feedback struct {
	ScoreTime float64       `json:"score_time"`
	Target    TargetWindow  `json:"target"`
	Estimate  PitchEstimate `json:"estimate"`
	ExactMidi float64       `json:"exact_midi"`
	Cents     float64       `json:"cents"` // last confirmed deviation
	HasCents  bool          `json:"has_cents"`
	InGrace   bool          `json:"in_grace"`
	Confirmed Bucket        `json:"confirmed"`
}
