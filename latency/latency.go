package latency

import (
	"errors"
	"math"
	"math/rand"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/util"
)

var (
	// ErrNoDetections means the microphone never crossed the peak threshold.
	ErrNoDetections = errors.New("latency: no peaks detected")
	// ErrNoMatches means peaks were detected but none lined up with an
	// emitted click.
	ErrNoMatches = errors.New("latency: no detections matched an emission")
)

// speakerClick is an 8 ms burst of decaying noise, percussive enough to
// survive a speaker-to-microphone acoustic path.
func speakerClick(sampleRate float64) []float32 {
	n := int(constants.SpeakerClickSec * sampleRate)
	rng := rand.New(rand.NewSource(1))
	click := make([]float32, n)
	for i := range click {
		env := math.Exp(-6 * float64(i) / float64(n))
		click[i] = float32((rng.Float64()*2 - 1) * env)
	}
	return click
}

// headphoneClick is a single clean 1 kHz impulse with a sharp decay, meant
// to be heard rather than acoustically looped back.
func headphoneClick(sampleRate float64) []float32 {
	n := int(constants.SpeakerClickSec * sampleRate)
	click := make([]float32, n)
	for i := range click {
		t := float64(i) / sampleRate
		env := math.Exp(-8 * float64(i) / float64(n))
		click[i] = float32(0.9 * math.Sin(2*math.Pi*1000*t) * env)
	}
	return click
}

// clickTrain renders a fixed number of clicks at a fixed interval and
// records when each was emitted on the device clock. The render method is
// called from the audio callback; anchor is the device time of the first
// rendered sample.
type clickTrain struct {
	click    []float32
	interval int // samples between click starts
	count    int
	pos      int // absolute sample position since anchor
	anchor   float64
	rate     float64
}

func newClickTrain(click []float32, intervalSec float64, count int, anchor, sampleRate float64) *clickTrain {
	return &clickTrain{
		click:    click,
		interval: int(intervalSec * sampleRate),
		count:    count,
		anchor:   anchor,
		rate:     sampleRate,
	}
}

func (t *clickTrain) render(out []float32) {
	for i := range out {
		out[i] = 0
		idx := t.pos % t.interval
		click := t.pos / t.interval
		if click < t.count && idx < len(t.click) {
			out[i] = t.click[idx]
		}
		t.pos++
	}
}

// expected returns the device-clock emission time of every click.
func (t *clickTrain) expected() []float64 {
	times := make([]float64, t.count)
	for i := range times {
		times[i] = t.anchor + float64(i*t.interval)/t.rate
	}
	return times
}

func (t *clickTrain) done() bool {
	return t.pos >= t.interval*t.count
}

// peakDetector finds threshold crossings in the time domain, with a re-arm
// gap so one click's ring-out is not counted twice.
type peakDetector struct {
	threshold float64
	rearm     float64
	times     []float64
}

func newPeakDetector() *peakDetector {
	return &peakDetector{
		threshold: constants.PeakThreshold,
		rearm:     constants.PeakRearmSec,
	}
}

// feed scans one capture block whose first sample is at blockStart.
func (p *peakDetector) feed(in []float32, blockStart, sampleRate float64) {
	for i, s := range in {
		if math.Abs(float64(s)) < p.threshold {
			continue
		}
		t := blockStart + float64(i)/sampleRate
		if len(p.times) > 0 && t-p.times[len(p.times)-1] < p.rearm {
			continue
		}
		p.times = append(p.times, t)
	}
}

// matchOffsets pairs each detection with its nearest still-unmatched
// expected emission, within maxDelta, and returns the detected-minus-
// expected differences.
func matchOffsets(expected, detected []float64, maxDelta float64) []float64 {
	used := make([]bool, len(expected))
	var offsets []float64
	for _, d := range detected {
		best := -1
		bestDiff := maxDelta
		for i, e := range expected {
			if used[i] {
				continue
			}
			if diff := math.Abs(d - e); diff <= bestDiff {
				best = i
				bestDiff = diff
			}
		}
		if best >= 0 {
			used[best] = true
			offsets = append(offsets, d-expected[best])
		}
	}
	return offsets
}

// computeOffset turns emission and detection times into the calibrated
// offset in seconds: the median of matched differences, robust against
// spurious detections and echoes.
func computeOffset(expected, detected []float64, intervalSec float64) (float64, error) {
	if len(detected) == 0 {
		return 0, ErrNoDetections
	}
	offsets := matchOffsets(expected, detected, intervalSec/2)
	if len(offsets) == 0 {
		return 0, ErrNoMatches
	}
	return util.Median(offsets), nil
}
