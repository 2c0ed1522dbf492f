package pitch

import (
	"fmt"
	"math"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

var noteNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// FrequencyToNoteInfo converts a frequency to its nearest note plus the
// signed cents deviation from it.
func FrequencyToNoteInfo(freqHz float64) model.NoteInfo {
	if freqHz <= 0 {
		return model.NoteInfo{NoteName: "--", Midi: -1}
	}
	exact := FrequencyToMidi(freqHz)
	nearest := int(math.Round(exact))
	octave := nearest/12 - 1
	name := noteNames[((nearest%12)+12)%12]
	return model.NoteInfo{
		NoteName:  fmt.Sprintf("%s%d", name, octave),
		Midi:      nearest,
		ExactMidi: exact,
		CentsOff:  (exact - float64(nearest)) * 100,
	}
}

func FrequencyToMidi(freqHz float64) float64 {
	return 69 + 12*math.Log2(freqHz/440.0)
}

func MidiToFrequency(midi float64) float64 {
	return 440.0 * math.Pow(2, (midi-69)/12)
}
