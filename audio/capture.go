package audio

import (
	"fmt"
	"sync/atomic"

	"github.com/gen2brain/malgo"
)

// CaptureFunc receives one block of mono f32 microphone input inside the
// device callback, stamped with the device time at the end of the block.
// It must not block.
type CaptureFunc func(in []float32, deviceTime float64)

// CaptureDevice wraps a malgo capture device. When constructed with an
// external Clock (normally the output device's) its timestamps share that
// clock domain; otherwise it advances a clock of its own.
type CaptureDevice struct {
	device   *malgo.Device
	clock    Clock
	ownClock *SampleClock
	onData   atomic.Pointer[CaptureFunc]
	closed   atomic.Bool
}

// NewCaptureDevice opens the default microphone at the given rate and
// starts it. Acquisition failures leave no open stream behind.
func NewCaptureDevice(sampleRate int, clock Clock) (*CaptureDevice, error) {
	c, err := SharedContext()
	if err != nil {
		return nil, err
	}

	d := &CaptureDevice{clock: clock}
	if clock == nil {
		d.ownClock = NewSampleClock(float64(sampleRate))
		d.clock = d.ownClock
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = 1
	config.SampleRate = uint32(sampleRate)
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, input []byte, frameCount uint32) {
			if len(input) == 0 {
				return
			}
			if d.ownClock != nil {
				d.ownClock.Advance(int(frameCount))
			}
			if fn := d.onData.Load(); fn != nil {
				(*fn)(bytesToFloat32(input), d.clock.Now())
			}
		},
	}

	dev, err := malgo.InitDevice(c.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	}
	d.device = dev
	return d, nil
}

func (d *CaptureDevice) SetOnData(fn CaptureFunc) {
	if fn == nil {
		d.onData.Store(nil)
		return
	}
	d.onData.Store(&fn)
}

func (d *CaptureDevice) Clock() Clock {
	return d.clock
}

// Close stops and releases the microphone. Best-effort, idempotent.
func (d *CaptureDevice) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.onData.Store(nil)
	if d.device != nil {
		_ = d.device.Stop()
		d.device.Uninit()
	}
}
