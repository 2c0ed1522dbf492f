package latency

import (
	"context"
	"sync"
	"time"

	"github.com/rickardevertsson123/choir-practice-tool-sub000/audio"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/constants"
	"github.com/rickardevertsson123/choir-practice-tool-sub000/model"
)

// Options supplies devices to calibrate with. Nil fields are opened for the
// run and released afterwards; supplied devices are left running for the
// caller on every exit path.
type Options struct {
	Output  *audio.OutputDevice
	Capture *audio.CaptureDevice
}

// CalibrateSpeaker measures acoustic round-trip latency by emitting a train
// of short noise clicks through the speaker and timing their arrival at the
// microphone on the shared device clock.
func CalibrateSpeaker(ctx context.Context, opts Options) (model.CalibrationResult, error) {
	sr := float64(constants.GetSampleRate())
	return calibrate(ctx, opts, speakerClick(sr),
		constants.SpeakerIntervalSec, constants.SpeakerClicks)
}

// CalibrateHeadphones emits fewer, slower, cleaner clicks: the user taps or
// vocalizes in response, so the measured offset includes reaction time.
func CalibrateHeadphones(ctx context.Context, opts Options) (model.CalibrationResult, error) {
	sr := float64(constants.GetSampleRate())
	return calibrate(ctx, opts, headphoneClick(sr),
		constants.HeadphoneIntervalSec, constants.HeadphoneClicks)
}

func calibrate(ctx context.Context, opts Options, click []float32, intervalSec float64, count int) (model.CalibrationResult, error) {
	out := opts.Output
	ownsOut := false
	if out == nil {
		var err error
		out, err = audio.NewOutputDevice(constants.GetSampleRate())
		if err != nil {
			return model.CalibrationResult{}, err
		}
		ownsOut = true
	}
	defer func() {
		out.SetRender(nil)
		if ownsOut {
			out.Close()
		}
	}()

	mic := opts.Capture
	ownsMic := false
	if mic == nil {
		var err error
		mic, err = audio.NewCaptureDevice(int(out.SampleRate()), out.Clock())
		if err != nil {
			return model.CalibrationResult{}, err
		}
		ownsMic = true
	}
	defer func() {
		mic.SetOnData(nil)
		if ownsMic {
			mic.Close()
		}
	}()

	sr := out.SampleRate()

	var detMu sync.Mutex
	det := newPeakDetector()
	mic.SetOnData(func(in []float32, deviceTime float64) {
		blockStart := deviceTime - float64(len(in))/sr
		detMu.Lock()
		det.feed(in, blockStart, sr)
		detMu.Unlock()
	})

	// The train anchors itself to the device time of the first rendered
	// sample, so expected emission times line up with what was played.
	train := newClickTrain(click, intervalSec, count, 0, sr)
	var trainMu sync.Mutex
	anchored := false
	out.SetRender(func(o []float32) {
		trainMu.Lock()
		if !anchored {
			train.anchor = out.Clock().Now()
			anchored = true
		}
		train.render(o)
		trainMu.Unlock()
	})

	// Emission span plus a tail for the last click's round trip.
	total := time.Duration((float64(count)*intervalSec + 0.75) * float64(time.Second))
	select {
	case <-ctx.Done():
		return model.CalibrationResult{}, ctx.Err()
	case <-time.After(total):
	}

	out.SetRender(nil)
	mic.SetOnData(nil)

	trainMu.Lock()
	expected := train.expected()
	trainMu.Unlock()
	detMu.Lock()
	detected := append([]float64(nil), det.times...)
	detMu.Unlock()

	offset, err := computeOffset(expected, detected, intervalSec)
	if err != nil {
		return model.CalibrationResult{}, err
	}
	return model.CalibrationResult{OffsetMs: offset * 1000}, nil
}
