package analysis

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/pitch"
)

// PollingSource is the fallback when running analysis on the realtime
// callback path is unavailable: the capture callback only copies samples
// into a ring, and a timer goroutine analyzes the latest window at the
// same cadence. Functionally equivalent, higher latency.
type PollingSource struct {
	capture     CaptureStream
	ownsCapture bool
	sampleRate  float64

	cfg  atomic.Pointer[config]
	hint atomic.Int64

	mu      sync.Mutex
	events  chan model.PitchEvent
	ring    *ring
	done    chan struct{}
	wg      sync.WaitGroup
	running bool
}

func NewPollingSource(capture CaptureStream, sampleRate float64, ownsCapture bool) *PollingSource {
	s := &PollingSource{
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

func (s *PollingSource) Start() (<-chan model.PitchEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return s.events, nil
	}
	cfg := s.cfg.Load()
	s.events = make(chan model.PitchEvent, constants.EventChannelCapacity)
	s.ring = newRing(cfg.windowSize * 4)
	s.done = make(chan struct{})
	s.running = true

	ring := s.ring
	s.capture.SetOnData(func(in []float32, _ float64) {
		ring.write(in)
	})

	s.wg.Add(1)
	go s.loop(cfg)
	return s.events, nil
}

func (s *PollingSource) loop(cfg *config) {
	defer s.wg.Done()

	estimator := pitch.NewEstimator(cfg.windowSize)
	window := make([]float64, cfg.windowSize)
	ticker := time.NewTicker(cfg.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}

		if cur := s.cfg.Load(); cur != cfg {
			if cur.windowSize != cfg.windowSize {
				estimator = pitch.NewEstimator(cur.windowSize)
				window = make([]float64, cur.windowSize)
			}
			if cur.interval != cfg.interval {
				ticker.Reset(cur.interval)
			}
			cfg = cur
		}

		if !s.ring.snapshot(window) {
			continue
		}
		est := estimator.Estimate(window, s.sampleRate, int(s.hint.Load()))
		sendOrDropOldest(s.events, model.PitchEvent{
			Frequency:  est.FrequencyHz,
			Voiced:     est.Voiced,
			Clarity:    est.Clarity,
			DeviceTime: s.capture.Clock().Now(),
			HalfWindow: float64(cfg.windowSize) / (2 * s.sampleRate),
		})
	}
}

// Stop cancels the timer goroutine, waits for it, detaches the capture
// callback and releases the stream if owned. Idempotent.
func (s *PollingSource) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.done)
	s.mu.Unlock()

	s.capture.SetOnData(nil)
	s.wg.Wait()
	if s.ownsCapture {
		s.capture.Close()
	}
	close(s.events)
}

func (s *PollingSource) SetHint(midi int) {
	s.hint.Store(int64(midi))
}

func (s *PollingSource) Configure(windowSize int, interval time.Duration) {
	if windowSize <= 0 || interval <= 0 {
		return
	}
	s.cfg.Store(&config{windowSize: windowSize, interval: interval})
}
