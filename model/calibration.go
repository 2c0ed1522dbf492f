package model

// CalibrationResult is the measured round-trip audio delay. Alignment
// subtracts OffsetMs (converted to score time) from raw score time.
type CalibrationResult struct {
	OffsetMs float64 `json:"offset_ms"`
}
