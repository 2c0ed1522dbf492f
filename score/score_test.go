package score

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
)

func writeTestSMF(t *testing.T, s *smf.SMF) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "score.mid")
	f, err := os.Create(path)
	assert.NoError(t, err)
	_, err = s.WriteTo(f)
	assert.NoError(t, err)
	assert.NoError(t, f.Close())
	return path
}

func twoVoiceSMF() *smf.SMF {
	clock := smf.MetricTicks(960)
	s := smf.New()
	s.TimeFormat = clock

	var tr1 smf.Track
	tr1.Add(0, smf.MetaTrackSequenceName("soprano"))
	tr1.Add(0, smf.MetaTempo(120))
	tr1.Add(0, midi.NoteOn(0, 69, 100))
	tr1.Add(clock.Ticks4th(), midi.NoteOff(0, 69))
	tr1.Add(0, midi.NoteOn(0, 71, 100))
	tr1.Add(clock.Ticks4th(), midi.NoteOff(0, 71))
	tr1.Close(0)
	s.Add(tr1)

	var tr2 smf.Track
	tr2.Add(0, smf.MetaTrackSequenceName("alto"))
	tr2.Add(0, midi.NoteOn(0, 64, 90))
	tr2.Add(2*clock.Ticks4th(), midi.NoteOff(0, 64))
	tr2.Close(0)
	s.Add(tr2)

	return s
}

func TestLoadBuildsTimeline(t *testing.T) {
	assert := assert.New(t)
	path := writeTestSMF(t, twoVoiceSMF())

	tl, err := Load(path)
	assert.NoError(err)
	assert.Equal([]string{"alto", "soprano"}, tl.Voices())
	assert.EqualValues(120, tl.TempoBPM)
	assert.InDelta(1.0, tl.TotalDuration, 1e-6)

	// At 120 bpm a quarter note is half a second.
	sop := tl.NotesForVoice("soprano")
	if assert.Len(sop, 2) {
		assert.EqualValues(69, sop[0].Pitch)
		assert.InDelta(0, sop[0].Start, 1e-6)
		assert.InDelta(0.5, sop[0].Duration, 1e-6)
		assert.EqualValues(71, sop[1].Pitch)
		assert.InDelta(0.5, sop[1].Start, 1e-6)
	}

	alto := tl.NotesForVoice("alto")
	if assert.Len(alto, 1) {
		assert.EqualValues(64, alto[0].Pitch)
		assert.InDelta(1.0, alto[0].Duration, 1e-6)
	}
}

func TestLoadUnnamedTrackGetsFallbackVoice(t *testing.T) {
	assert := assert.New(t)
	clock := smf.MetricTicks(960)
	s := smf.New()
	s.TimeFormat = clock

	var tr smf.Track
	tr.Add(0, midi.NoteOn(0, 60, 100))
	tr.Add(clock.Ticks4th(), midi.NoteOff(0, 60))
	tr.Close(0)
	s.Add(tr)

	tl, err := Load(writeTestSMF(t, s))
	assert.NoError(err)
	assert.Equal([]string{"track-1"}, tl.Voices())
}

func TestLoadRejectsFileWithoutNotes(t *testing.T) {
	assert := assert.New(t)
	s := smf.New()
	s.TimeFormat = smf.MetricTicks(960)
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(90))
	tr.Close(0)
	s.Add(tr)

	_, err := Load(writeTestSMF(t, s))
	assert.Error(err)
}

func TestLoadRejectsGarbage(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "junk.mid")
	assert.NoError(os.WriteFile(path, []byte("not a midi file"), 0644))

	_, err := Load(path)
	assert.Error(err)
}

func TestWriteDemoRoundTrips(t *testing.T) {
	assert := assert.New(t)
	path := filepath.Join(t.TempDir(), "demo.mid")
	assert.NoError(WriteDemo(path))

	tl, err := Load(path)
	assert.NoError(err)
	assert.Equal([]string{"alto", "bass", "soprano", "tenor"}, tl.Voices())
	assert.EqualValues(90, tl.TempoBPM)
	assert.Greater(tl.TotalDuration, 0.0)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.mid"))
	assert.Error(t, err)
}
