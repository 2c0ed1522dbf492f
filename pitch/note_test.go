package pitch

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrequencyToNoteInfo(t *testing.T) {
	cases := []struct {
		freq  float64
		name  string
		midi  int
		cents float64
	}{
		{440.0, "A4", 69, 0},
		{261.63, "C4", 60, 0},
		{880.0, "A5", 81, 0},
		{446.0, "A4", 69, 23.44},
		{130.81, "C3", 48, 0},
	}

	for _, c := range cases {
		t.Run(fmt.Sprintf("%.2fHz", c.freq), func(t *testing.T) {
			assert := assert.New(t)
			info := FrequencyToNoteInfo(c.freq)
			assert.Equal(c.name, info.NoteName)
			assert.Equal(c.midi, info.Midi)
			assert.InDelta(c.cents, info.CentsOff, 0.5)
		})
	}
}

func TestMidiFrequencyRoundTrip(t *testing.T) {
	assert := assert.New(t)
	for midi := 36; midi <= 96; midi++ {
		f := MidiToFrequency(float64(midi))
		assert.InDelta(float64(midi), FrequencyToMidi(f), 1e-9)
	}
	assert.InDelta(440.0, MidiToFrequency(69), 1e-9)
	assert.InDelta(69.0, FrequencyToMidi(440), 1e-9)
	assert.True(math.Abs(MidiToFrequency(60)-261.625) < 0.01)
}

func TestFrequencyToNoteInfoRejectsNonPositive(t *testing.T) {
	assert := assert.New(t)
	info := FrequencyToNoteInfo(0)
	assert.Equal("--", info.NoteName)
	assert.Equal(-1, info.Midi)
}
