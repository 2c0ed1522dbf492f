package model

// PitchEstimate is the result of analyzing one buffer of microphone audio.
// Voiced=false means no stable pitch was found this frame.
type PitchEstimate struct {
	FrequencyHz float64 `json:"frequency_hz"`
	Voiced      bool    `json:"voiced"`
	Clarity     float64 `json:"clarity"` // [0,1]
}

// NoteInfo is a frequency expressed in musical terms.
type NoteInfo struct {
	NoteName  string  `json:"note_name"`
	Midi      int     `json:"midi"`
	ExactMidi float64 `json:"exact_midi"`
	CentsOff  float64 `json:"cents_off"`
}

// PitchEvent is the analysis->control message: a pitch estimate stamped
// against the device audio clock. HalfWindow is half the analysis window
// duration in seconds, so consumers can evaluate at the window center.
type PitchEvent struct {
	Frequency  float64 `json:"frequency"`
	Voiced     bool    `json:"voiced"`
	Clarity    float64 `json:"clarity"`
	DeviceTime float64 `json:"device_time"`
	HalfWindow float64 `json:"half_window"`
}
