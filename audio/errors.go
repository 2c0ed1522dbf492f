package audio

import "errors"

var (
	// ErrPermissionDenied means microphone access was refused. Surfaced to
	// the caller; there is no retry.
	ErrPermissionDenied = errors.New("microphone permission denied")

	// ErrUnsupportedRealtimeAudio means the low-latency callback path is
	// unavailable. Callers fall back to polling-based analysis.
	ErrUnsupportedRealtimeAudio = errors.New("realtime audio unsupported")
)
