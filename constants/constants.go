package constants

import (
	"os"
	"strconv"
)

// GetSampleRate returns the engine sample rate, overridable via SAMPLE_RATE.
func GetSampleRate() int {
	if v := os.Getenv("SAMPLE_RATE"); v != "" {
		if sr, err := strconv.Atoi(v); err == nil && sr > 0 {
			return sr
		}
	}
	return 48000
}

// Synthesis envelope shaping. Values in seconds unless noted.
const (
	PortamentoSec = 0.018
	AttackSec     = 0.030
	ReleaseSec    = 0.045
	GainRampSec   = 0.015

	// Amplitude floor stays slightly above zero so gain changes never make
	// an instantaneous jump from exact silence.
	AmplitudeFloor = 1e-4

	// Adjacent notes of identical pitch closer than this are merged into
	// one sustained segment.
	MergeGapSec = 0.010

	// Auto-loop fires when playback position crosses duration minus this.
	LoopEpsilonSec = 0.010
)

// Transport limits.
const (
	MinTempoMultiplier = 0.25
	MaxTempoMultiplier = 2.0
)

// Pitch estimation defaults.
const (
	MinVoiceHz      = 80.0
	MaxVoiceHz      = 1000.0
	HintBandFactor  = 1.189 // +/- 3 semitones
	RMSGate         = 0.008
	PeakKeepRatio   = 0.70 // hinted: keep peaks at least this strong vs best
	OctaveKeepRatio = 0.80 // unhinted: accept double period at this strength
	OctaveMinHz     = 80.0
	OctaveMaxHz     = 500.0

	DefaultWindowSize    = 2048
	AnalysisIntervalMs   = 50 // ~20 Hz
	TransportPollMs      = 80
	EventChannelCapacity = 64
)

// Latency calibration.
const (
	SpeakerClickSec      = 0.008
	SpeakerIntervalSec   = 0.350
	SpeakerClicks        = 12
	HeadphoneIntervalSec = 0.800
	HeadphoneClicks      = 6
	PeakThreshold        = 0.05
	PeakRearmSec         = 0.150
)
