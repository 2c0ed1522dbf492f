package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedian(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(0.0, Median(nil))
	assert.Equal(3.0, Median([]float64{3}))
	assert.Equal(2.0, Median([]float64{3, 1, 2}))
	assert.Equal(2.5, Median([]float64{4, 1, 2, 3}))

	// Input stays untouched.
	in := []float64{3, 1, 2}
	Median(in)
	assert.Equal([]float64{3, 1, 2}, in)
}

func TestClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(5, Clamp(7, 0, 5))
	assert.Equal(0, Clamp(-2, 0, 5))
	assert.Equal(3, Clamp(3, 0, 5))
	assert.Equal(1.5, Clamp(1.5, 1.0, 2.0))
}
