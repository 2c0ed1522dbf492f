package audio

import (
	"fmt"
	"log"
	"sync"

	"github.com/gen2brain/malgo"
)

var (
	ctxOnce sync.Once
	ctx     *malgo.AllocatedContext
	ctxErr  error
)

// SharedContext lazily initializes the process-wide malgo context. Playback,
// capture and calibration all share it so every device lives in one backend.
func SharedContext() (*malgo.AllocatedContext, error) {
	ctxOnce.Do(func() {
		ctx, ctxErr = malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {
			log.Printf("malgo: %s", message)
		})
		if ctxErr != nil {
			ctxErr = fmt.Errorf("%w: %v", ErrUnsupportedRealtimeAudio, ctxErr)
		}
	})
	return ctx, ctxErr
}

// ListCaptureDevices enumerates microphone devices by name.
func ListCaptureDevices() ([]string, error) {
	c, err := SharedContext()
	if err != nil {
		return nil, err
	}
	infos, err := c.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}
	return deviceNames(infos), nil
}

// ListPlaybackDevices enumerates output devices by name.
func ListPlaybackDevices() ([]string, error) {
	c, err := SharedContext()
	if err != nil {
		return nil, err
	}
	infos, err := c.Devices(malgo.Playback)
	if err != nil {
		return nil, fmt.Errorf("enumerate playback devices: %w", err)
	}
	return deviceNames(infos), nil
}

func deviceNames(infos []malgo.DeviceInfo) []string {
	var res []string
	for i := range infos {
		name := infos[i].Name()
		if name == "" {
			name = "(unnamed device)"
		}
		res = append(res, name)
	}
	return res
}
