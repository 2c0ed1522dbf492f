package model

// VoiceMixState holds the user-facing mix controls for one voice.
// Effective gain is 0 if muted, or if any voice is soloed and this one
// isn't; otherwise it equals Volume.
type VoiceMixState struct {
	Volume float64 `json:"volume"` // [0,1]
	Muted  bool    `json:"muted"`
	Solo   bool    `json:"solo"`
}

func DefaultVoiceMixState() VoiceMixState {
	return VoiceMixState{Volume: 1.0}
}

// VoiceMixUpdate is a partial update; nil fields keep the current value.
type VoiceMixUpdate struct {
	Volume *float64 `json:"volume,omitempty"`
	Muted  *bool    `json:"muted,omitempty"`
	Solo   *bool    `json:"solo,omitempty"`
}

// TransportState is a snapshot of the engine transport. Position is
// monotonic while playing and frozen while paused/stopped.
type TransportState struct {
	PositionSeconds float64 `json:"position_seconds"`
	TempoMultiplier float64 `json:"tempo_multiplier"` // [0.25, 2.0]
	IsPlaying       bool    `json:"is_playing"`
}
