package audio

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSampleClockAdvances(t *testing.T) {
	assert := assert.New(t)
	c := NewSampleClock(48000)
	assert.Equal(0.0, c.Now())

	c.Advance(48000)
	assert.InDelta(1.0, c.Now(), 1e-9)

	c.Advance(24000)
	assert.InDelta(1.5, c.Now(), 1e-9)

	c.Advance(-5)
	assert.InDelta(1.5, c.Now(), 1e-9)
}

func TestSampleClockConcurrentAdvance(t *testing.T) {
	assert := assert.New(t)
	c := NewSampleClock(48000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				c.Advance(48)
			}
		}()
	}
	wg.Wait()
	assert.InDelta(8.0, c.Now(), 1e-9)
}

func TestManualClock(t *testing.T) {
	assert := assert.New(t)
	var c ManualClock
	assert.Equal(0.0, c.Now())
	c.Set(2.5)
	assert.Equal(2.5, c.Now())
}
