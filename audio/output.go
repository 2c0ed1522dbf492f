package audio

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/gen2brain/malgo"
)

// RenderFunc fills one block of mono f32 output inside the device callback.
// It must not block.
type RenderFunc func(out []float32)

// OutputDevice wraps a malgo playback device. Its SampleClock advances once
// per rendered frame, making it the clock master for the engine.
type OutputDevice struct {
	device *malgo.Device
	clock  *SampleClock
	render atomic.Pointer[RenderFunc]
	closed atomic.Bool
}

// NewOutputDevice opens the default playback device at the given rate and
// starts it. The returned device renders silence until SetRender is called.
func NewOutputDevice(sampleRate int) (*OutputDevice, error) {
	c, err := SharedContext()
	if err != nil {
		return nil, err
	}

	d := &OutputDevice{clock: NewSampleClock(float64(sampleRate))}

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 1
	config.SampleRate = uint32(sampleRate)
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, input []byte, frameCount uint32) {
			out := bytesToFloat32(output)
			if fn := d.render.Load(); fn != nil {
				(*fn)(out)
			} else {
				for i := range out {
					out[i] = 0
				}
			}
			d.clock.Advance(int(frameCount))
		},
	}

	dev, err := malgo.InitDevice(c.Context, config, callbacks)
	if err != nil {
		return nil, fmt.Errorf("%w: init playback: %v", ErrUnsupportedRealtimeAudio, err)
	}
	if err := dev.Start(); err != nil {
		dev.Uninit()
		return nil, fmt.Errorf("%w: start playback: %v", ErrUnsupportedRealtimeAudio, err)
	}
	d.device = dev
	return d, nil
}

func (d *OutputDevice) SetRender(fn RenderFunc) {
	if fn == nil {
		d.render.Store(nil)
		return
	}
	d.render.Store(&fn)
}

func (d *OutputDevice) Clock() *SampleClock {
	return d.clock
}

func (d *OutputDevice) SampleRate() float64 {
	return d.clock.SampleRate()
}

// Close stops and releases the device. Teardown is best-effort and safe to
// call more than once.
func (d *OutputDevice) Close() {
	if !d.closed.CompareAndSwap(false, true) {
		return
	}
	d.render.Store(nil)
	if d.device != nil {
		_ = d.device.Stop()
		d.device.Uninit()
	}
}

func bytesToFloat32(b []byte) []float32 {
	if len(b) < 4 {
		return nil
	}
	return unsafe.Slice((*float32)(unsafe.Pointer(&b[0])), len(b)/4)
}
