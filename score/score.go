package score

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

// readFile parses an SMF from disk. The reader can panic on malformed
// files, so parsing is fenced with a recover.
// https://github.com/gomidi/midi/issues/20
func readFile(path string) (s *smf.SMF, e error) {
	defer func() {
		if r := recover(); r != nil {
			e = fmt.Errorf("parsing midi file %v: %v", path, r)
		}
	}()

	dat, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading midi file: %w", err)
	}
	res, err := smf.ReadFrom(bytes.NewReader(dat))
	if err != nil {
		return nil, fmt.Errorf("parsing midi file: %w", err)
	}
	return res, nil
}

// Load reads an SMF file into a practice timeline. Each track becomes one
// voice, named by its track-name meta event when present, and note on/off
// pairs become note events in seconds. Unterminated notes are dropped.
func Load(path string) (*model.Timeline, error) {
	s, err := readFile(path)
	if err != nil {
		return nil, err
	}

	tl := &model.Timeline{TempoBPM: 120}
	sawTempo := false

	for trackNum, events := range s.Tracks {
		voice := fmt.Sprintf("track-%d", trackNum+1)
		pressed := make(map[uint8]float64)
		var absTicks int64
		var trackNotes []model.NoteEvent

		for _, event := range events {
			absTicks += int64(event.Delta)
			absTime := float64(s.TimeAt(absTicks)) / 1e6

			var channel, key, velocity uint8
			var name string
			var bpm float64
			switch {
			case event.Message.GetMetaTrackName(&name):
				if name != "" {
					voice = name
				}
			case event.Message.GetMetaTempo(&bpm):
				if !sawTempo && bpm > 0 {
					tl.TempoBPM = bpm
					sawTempo = true
				}
			case event.Message.GetNoteOn(&channel, &key, &velocity):
				if velocity == 0 {
					// running-status note-off
					if start, ok := pressed[key]; ok {
						delete(pressed, key)
						trackNotes = append(trackNotes, noteEvent(key, start, absTime))
					}
					continue
				}
				pressed[key] = absTime
			case event.Message.GetNoteOff(&channel, &key, &velocity):
				if start, ok := pressed[key]; ok {
					delete(pressed, key)
					trackNotes = append(trackNotes, noteEvent(key, start, absTime))
				}
			}
		}

		for i := range trackNotes {
			trackNotes[i].Voice = voice
		}
		tl.Notes = append(tl.Notes, trackNotes...)
	}

	if len(tl.Notes) == 0 {
		return nil, errors.New("midi file contains no notes")
	}

	for _, n := range tl.Notes {
		if end := n.End(); end > tl.TotalDuration {
			tl.TotalDuration = end
		}
	}
	tl.SortNotes()
	return tl, nil
}

func noteEvent(key uint8, start, end float64) model.NoteEvent {
	return model.NoteEvent{Start: start, Duration: end - start, Pitch: key}
}
