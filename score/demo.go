package score

import (
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

// WriteDemo writes a small four-part cadence so the tool can be tried
// without bringing a score of your own.
func WriteDemo(path string) error {
	clock := smf.MetricTicks(960)
	s := smf.New()
	s.TimeFormat = clock

	parts := []struct {
		name    string
		pitches []uint8
	}{
		{"soprano", []uint8{72, 71, 72}},
		{"alto", []uint8{67, 67, 67}},
		{"tenor", []uint8{64, 62, 64}},
		{"bass", []uint8{48, 43, 48}},
	}
	for i, part := range parts {
		var tr smf.Track
		tr.Add(0, smf.MetaTrackSequenceName(part.name))
		if i == 0 {
			tr.Add(0, smf.MetaTempo(90))
		}
		for _, key := range part.pitches {
			tr.Add(0, midi.NoteOn(0, key, 96))
			tr.Add(2*clock.Ticks4th(), midi.NoteOff(0, key))
		}
		tr.Close(0)
		s.Add(tr)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating demo score: %w", err)
	}
	if _, err := s.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing demo score: %w", err)
	}
	return f.Close()
}
