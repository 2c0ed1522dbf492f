package pitch

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

// baseClarityGate is the floor below which a frame is reported unvoiced no
// matter what lag was found. Difficulty-dependent gating on top of this
// happens in the evaluator.
const baseClarityGate = 0.3

// Estimator computes monophonic pitch estimates via normalized
// autocorrelation. The autocorrelation itself is FFT-accelerated; scratch
// buffers are reused across calls so Estimate is safe to run inside an
// audio callback. An Estimator is not safe for concurrent use.
type Estimator struct {
	winSize int
	padded  int
	fft     *fourier.FFT
	scratch []float64
	coeff   []complex128
	corr    []float64
}

func NewEstimator(windowSize int) *Estimator {
	padded := nextPow2(windowSize * 2)
	return &Estimator{
		winSize: windowSize,
		padded:  padded,
		fft:     fourier.NewFFT(padded),
		scratch: make([]float64, padded),
		coeff:   make([]complex128, padded/2+1),
		corr:    make([]float64, padded),
	}
}

// Estimate analyzes one buffer. hint is a target midi number narrowing the
// search band to +/- 3 semitones; pass hint < 0 for no hint.
func (e *Estimator) Estimate(buf []float64, sampleRate float64, hint int) model.PitchEstimate {
	if len(buf) == 0 || sampleRate <= 0 {
		return model.PitchEstimate{}
	}
	if len(buf) > e.winSize {
		buf = buf[len(buf)-e.winSize:]
	}

	// Energy gate: silence is not worth a transform.
	mean := 0.0
	for _, s := range buf {
		mean += s
	}
	mean /= float64(len(buf))
	energy := 0.0
	for i, s := range buf {
		v := s - mean
		e.scratch[i] = v
		energy += v * v
	}
	for i := len(buf); i < e.padded; i++ {
		e.scratch[i] = 0
	}
	rms := math.Sqrt(energy / float64(len(buf)))
	if rms < constants.RMSGate {
		return model.PitchEstimate{}
	}

	// Autocorrelation r = IFFT(|FFT(x)|^2). The padded length keeps the
	// circular wrap out of the lag range we care about.
	e.fft.Coefficients(e.coeff, e.scratch)
	for i, c := range e.coeff {
		re := real(c)
		im := imag(c)
		e.coeff[i] = complex(re*re+im*im, 0)
	}
	e.fft.Sequence(e.corr, e.coeff)
	r0 := e.corr[0]
	if r0 <= 0 {
		return model.PitchEstimate{}
	}

	minLag, maxLag := e.lagRange(sampleRate, hint)
	if maxLag >= len(buf) {
		maxLag = len(buf) - 1
	}
	if minLag < 2 || minLag >= maxLag {
		return model.PitchEstimate{}
	}

	peaks := findPeaks(e.corr, minLag, maxLag)
	if len(peaks) == 0 {
		return model.PitchEstimate{}
	}
	best := peaks[0]
	for _, p := range peaks {
		if e.corr[p] > e.corr[best] {
			best = p
		}
	}

	var lag float64
	if hint >= 0 {
		// The hint narrows the candidate set, but among surviving peaks the
		// clearest one wins; the hint must never force the estimate toward
		// a pitch the singer didn't produce.
		lag = e.pickHintedLag(peaks, best)
	} else {
		lag = e.pickUnhintedLag(best, maxLag, sampleRate)
	}

	clarity := e.clarityAt(lag, r0)
	if clarity < baseClarityGate {
		return model.PitchEstimate{}
	}
	return model.PitchEstimate{
		FrequencyHz: sampleRate / lag,
		Voiced:      true,
		Clarity:     clarity,
	}
}

func (e *Estimator) lagRange(sampleRate float64, hint int) (int, int) {
	loHz, hiHz := constants.MinVoiceHz, constants.MaxVoiceHz
	if hint >= 0 {
		hintHz := MidiToFrequency(float64(hint))
		lo := hintHz / constants.HintBandFactor
		hi := hintHz * constants.HintBandFactor
		if lo > loHz {
			loHz = lo
		}
		if hi < hiHz {
			hiHz = hi
		}
	}
	minLag := int(math.Floor(sampleRate / hiHz))
	maxLag := int(math.Ceil(sampleRate / loHz))
	return minLag, maxLag
}

// pickHintedLag gathers all peaks within PeakKeepRatio of the strongest one
// and returns the refined lag of the clearest.
func (e *Estimator) pickHintedLag(peaks []int, best int) float64 {
	keep := e.corr[best] * constants.PeakKeepRatio
	chosen := best
	for _, p := range peaks {
		if e.corr[p] >= keep && e.corr[p] > e.corr[chosen] {
			chosen = p
		}
	}
	return e.refine(chosen)
}

// pickUnhintedLag checks the double period (half frequency) of the best
// peak; a comparably strong subharmonic in the plausible vocal range wins,
// correcting the common octave-up misdetection.
func (e *Estimator) pickUnhintedLag(best, maxLag int, sampleRate float64) float64 {
	double := best * 2
	if double <= maxLag && double < len(e.corr) {
		freq := sampleRate / float64(double)
		if e.corr[double] >= e.corr[best]*constants.OctaveKeepRatio &&
			freq >= constants.OctaveMinHz && freq <= constants.OctaveMaxHz {
			return e.refine(double)
		}
	}
	return e.refine(best)
}

// refine applies parabolic interpolation across the correlation curve
// around lag for sub-sample period precision.
func (e *Estimator) refine(lag int) float64 {
	if lag <= 0 || lag+1 >= len(e.corr) {
		return float64(lag)
	}
	y0 := e.corr[lag-1]
	y1 := e.corr[lag]
	y2 := e.corr[lag+1]
	denom := y0 - 2*y1 + y2
	if denom == 0 {
		return float64(lag)
	}
	delta := 0.5 * (y0 - y2) / denom
	if delta > 0.5 || delta < -0.5 {
		return float64(lag)
	}
	return float64(lag) + delta
}

func (e *Estimator) clarityAt(lag float64, r0 float64) float64 {
	i := int(math.Round(lag))
	if i < 0 || i >= len(e.corr) {
		return 0
	}
	c := e.corr[i] / r0
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// findPeaks returns indexes of local correlation maxima in [minLag, maxLag].
func findPeaks(corr []float64, minLag, maxLag int) []int {
	var peaks []int
	for i := minLag; i <= maxLag && i+1 < len(corr); i++ {
		if corr[i] > 0 && corr[i] > corr[i-1] && corr[i] >= corr[i+1] {
			peaks = append(peaks, i)
		}
	}
	return peaks
}

func nextPow2(n int) int {
	v := 1
	for v < n {
		v <<= 1
	}
	return v
}

// Estimate is a convenience wrapper allocating a one-shot Estimator.
func Estimate(buf []float64, sampleRate float64, hint int) model.PitchEstimate {
	return NewEstimator(len(buf)).Estimate(buf, sampleRate, hint)
}
