package model

type StateResponse struct {
	SessionID string                   `json:"session_id"`
	Transport TransportState           `json:"transport"`
	Settings  Settings                 `json:"settings"`
	Voices    map[string]VoiceMixState `json:"voices"`
	Duration  float64                  `json:"duration"`
}

type SeekRequestBody struct {
	Seconds float64 `json:"seconds"`
}

type TempoRequestBody struct {
	Multiplier float64 `json:"multiplier"`
}

type SettingsRequestBody struct {
	Voice           *string  `json:"voice,omitempty"`
	Difficulty      *string  `json:"difficulty,omitempty"`
	LatencyOffsetMs *float64 `json:"latency_offset_ms,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
