package models

// Reading is the current three-phase voltage snapshot plus its sum.
type Reading struct {
	Voltage1  Value   `json:"voltage1"`
	Voltage2  Value   `json:"voltage2"`
	Voltage3  Value   `json:"voltage3"`
	Total     float64 `json:"total"`
	Timestamp int64   `json:"timestamp"`
}

// Health is the body of the liveness endpoint.
type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}
