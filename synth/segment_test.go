package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

func TestMergesAdjacentIdenticalPitches(t *testing.T) {
	assert := assert.New(t)
	notes := []model.NoteEvent{
		{Voice: "soprano", Start: 0, Duration: 1.0, Pitch: 69},
		{Voice: "soprano", Start: 1.005, Duration: 1.0, Pitch: 69},
	}
	segs := buildSegments(notes)
	assert.Len(segs, 1)
	assert.Equal(0.0, segs[0].start)
	assert.InDelta(2.005, segs[0].end, 1e-9)
}

func TestDoesNotMergeDifferentPitches(t *testing.T) {
	assert := assert.New(t)
	notes := []model.NoteEvent{
		{Voice: "alto", Start: 0, Duration: 1.0, Pitch: 69},
		{Voice: "alto", Start: 1.002, Duration: 1.0, Pitch: 71},
	}
	segs := buildSegments(notes)
	assert.Len(segs, 2)
}

func TestDoesNotMergeAcrossLargeGap(t *testing.T) {
	assert := assert.New(t)
	notes := []model.NoteEvent{
		{Voice: "alto", Start: 0, Duration: 1.0, Pitch: 69},
		{Voice: "alto", Start: 1.05, Duration: 1.0, Pitch: 69},
	}
	segs := buildSegments(notes)
	assert.Len(segs, 2)
}

func TestMergedSegmentDoesNotRetriggerEnvelope(t *testing.T) {
	assert := assert.New(t)
	notes := []model.NoteEvent{
		{Voice: "tenor", Start: 0, Duration: 1.0, Pitch: 60},
		{Voice: "tenor", Start: 1.004, Duration: 1.0, Pitch: 60},
	}
	segs := buildSegments(notes)
	assert.Len(segs, 1)

	// At the former note boundary the sustained envelope stays at full
	// amplitude instead of dipping to the floor for a new attack.
	amp := segs[0].amplitude(1.002, 1.0)
	assert.Greater(amp, 0.95)
}

func TestEnvelopeShape(t *testing.T) {
	assert := assert.New(t)
	seg := segment{start: 1.0, end: 2.0, pitch: 69, freq: 440}

	assert.Equal(constants.AmplitudeFloor, seg.amplitude(0.5, 1.0))
	assert.Equal(constants.AmplitudeFloor, seg.amplitude(2.5, 1.0))

	// Mid-attack is partial, sustain is full, release tapers.
	assert.InDelta(0.5, seg.amplitude(1.015, 1.0), 0.05)
	assert.Greater(seg.amplitude(1.5, 1.0), 0.99)
	assert.Less(seg.amplitude(1.99, 1.0), 0.5)

	// The floor is near zero but never exactly zero.
	assert.Greater(seg.amplitude(0.5, 1.0), 0.0)
}

func TestNegativeDurationNotesDropped(t *testing.T) {
	assert := assert.New(t)
	notes := []model.NoteEvent{
		{Voice: "bass", Start: 0, Duration: -1, Pitch: 40},
		{Voice: "bass", Start: 1, Duration: 0, Pitch: 40},
		{Voice: "bass", Start: 2, Duration: 1, Pitch: 40},
	}
	segs := buildSegments(notes)
	assert.Len(segs, 1)
	assert.Equal(2.0, segs[0].start)
}
