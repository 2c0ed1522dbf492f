package audio

import (
	"math"
	"sync/atomic"
)

// Clock reports device time in seconds. The synthesis engine, the analysis
// scheduler and the latency calibrator all read the same Clock so their
// timestamps live in one time base.
type Clock interface {
	Now() float64
}

// SampleClock is a Clock advanced by an audio device callback: one tick per
// rendered or captured frame. Reads and advances are lock-free so it is
// safe to touch from the callback and from control goroutines.
type SampleClock struct {
	samples atomic.Uint64
	rate    float64
}

func NewSampleClock(sampleRate float64) *SampleClock {
	return &SampleClock{rate: sampleRate}
}

func (c *SampleClock) Advance(frames int) {
	if frames > 0 {
		c.samples.Add(uint64(frames))
	}
}

func (c *SampleClock) Now() float64 {
	return float64(c.samples.Load()) / c.rate
}

func (c *SampleClock) SampleRate() float64 {
	return c.rate
}

// ManualClock is a settable Clock for offline rendering and tests.
type ManualClock struct {
	bits atomic.Uint64
}

func (c *ManualClock) Set(t float64) {
	c.bits.Store(math.Float64bits(t))
}

func (c *ManualClock) Now() float64 {
	return math.Float64frombits(c.bits.Load())
}
