package analysis

import (
	"time"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/audio"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

// Source produces pitch events from live microphone audio, in the order
// they were analyzed, stamped against the device clock. Implementations:
// CallbackSource (analysis inside the capture callback, low latency) and
// PollingSource (timer-driven fallback, same cadence, higher latency).
type Source interface {
	// Start begins producing events. The channel is closed by Stop.
	Start() (<-chan model.PitchEvent, error)
	// Stop synchronously cancels timers, detaches from the capture stream
	// and releases it if owned. Safe to call more than once.
	Stop()
	// SetHint narrows the pitch search to a target midi; -1 clears it.
	SetHint(midi int)
	// Configure replaces the analysis window and cadence. Takes effect on
	// the next tick.
	Configure(windowSize int, interval time.Duration)
}

// CaptureStream is the slice of audio.CaptureDevice the sources need;
// tests substitute fakes that push synthetic blocks.
type CaptureStream interface {
	SetOnData(fn audio.CaptureFunc)
	Clock() audio.Clock
	Close()
}

type config struct {
	windowSize int
	interval   time.Duration
}

// sendOrDropOldest keeps the channel bounded without ever reordering:
// when full, the oldest queued event is discarded to make room.
func sendOrDropOldest(ch chan model.PitchEvent, ev model.PitchEvent) {
	select {
	case ch <- ev:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- ev:
	default:
	}
}
