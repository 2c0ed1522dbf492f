package analysis

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/pitch"
)

// CallbackSource runs the pitch estimator directly inside the capture data
// callback, so event timestamps are as close to the audio as the backend
// allows. Scratch state is preallocated and configuration is swapped
// atomically; the callback never blocks.
type CallbackSource struct {
	capture     CaptureStream
	ownsCapture bool
	sampleRate  float64

	cfg  atomic.Pointer[config]
	hint atomic.Int64

	// mu serializes Start/Stop against in-flight callbacks: the callback
	// holds the read side, so Stop cannot close the channel mid-send.
	mu        sync.RWMutex
	events    chan model.PitchEvent
	running   bool
	ring      *ring
	estimator *pitch.Estimator
	window    []float64
	sinceLast int
}

func NewCallbackSource(capture CaptureStream, sampleRate float64, ownsCapture bool) *CallbackSource {
	s := &CallbackSource{
		capture:     capture,
		ownsCapture: ownsCapture,
		sampleRate:  sampleRate,
	}
	s.cfg.Store(&config{
		windowSize: constants.DefaultWindowSize,
		interval:   constants.AnalysisIntervalMs * time.Millisecond,
	})
	s.hint.Store(-1)
	return s
}

func (s *CallbackSource) Start() (<-chan model.PitchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return s.events, nil
	}
	cfg := s.cfg.Load()
	s.events = make(chan model.PitchEvent, constants.EventChannelCapacity)
	s.ring = newRing(cfg.windowSize * 2)
	s.estimator = pitch.NewEstimator(cfg.windowSize)
	s.window = make([]float64, cfg.windowSize)
	s.sinceLast = 0
	s.running = true

	s.capture.SetOnData(s.onData)
	return s.events, nil
}

// onData is the realtime path. It accumulates samples and analyzes one
// window every interval's worth of frames.
func (s *CallbackSource) onData(in []float32, deviceTime float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return
	}

	cfg := s.cfg.Load()
	s.maybeResize(cfg)

	s.ring.write(in)
	s.sinceLast += len(in)

	intervalSamples := int(cfg.interval.Seconds() * s.sampleRate)
	if intervalSamples <= 0 {
		intervalSamples = len(in)
	}
	if s.sinceLast < intervalSamples {
		return
	}
	s.sinceLast = 0

	if !s.ring.snapshot(s.window) {
		return
	}
	est := s.estimator.Estimate(s.window, s.sampleRate, int(s.hint.Load()))
	sendOrDropOldest(s.events, model.PitchEvent{
		Frequency:  est.FrequencyHz,
		Voiced:     est.Voiced,
		Clarity:    est.Clarity,
		DeviceTime: deviceTime,
		HalfWindow: float64(cfg.windowSize) / (2 * s.sampleRate),
	})
}

// maybeResize rebuilds window-sized scratch after Configure changed the
// window size. Only the callback goroutine touches these fields.
func (s *CallbackSource) maybeResize(cfg *config) {
	if len(s.window) == cfg.windowSize {
		return
	}
	s.ring = newRing(cfg.windowSize * 2)
	s.estimator = pitch.NewEstimator(cfg.windowSize)
	s.window = make([]float64, cfg.windowSize)
}

// Stop detaches from the capture stream, releases it if owned and closes
// the event channel. Idempotent.
func (s *CallbackSource) Stop() {
	s.capture.SetOnData(nil)
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	s.running = false
	if s.ownsCapture {
		s.capture.Close()
	}
	close(s.events)
}

func (s *CallbackSource) SetHint(midi int) {
	s.hint.Store(int64(midi))
}

func (s *CallbackSource) Configure(windowSize int, interval time.Duration) {
	if windowSize <= 0 || interval <= 0 {
		return
	}
	s.cfg.Store(&config{windowSize: windowSize, interval: interval})
}
