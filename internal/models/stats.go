package models

// VoltageAverages holds per-phase means formatted with two decimals.
type VoltageAverages struct {
	Voltage1 string `json:"voltage1"`
	Voltage2 string `json:"voltage2"`
	Voltage3 string `json:"voltage3"`
}

// VoltageExtremes holds a per-phase maximum or minimum. Fields are nil when
// there was nothing to aggregate.
type VoltageExtremes struct {
	Voltage1 *float64 `json:"voltage1"`
	Voltage2 *float64 `json:"voltage2"`
	Voltage3 *float64 `json:"voltage3"`
}

// Stats aggregates the most recent history entries.
type Stats struct {
	Averages  VoltageAverages `json:"averages"`
	Max       VoltageExtremes `json:"max"`
	Min       VoltageExtremes `json:"min"`
	Timestamp int64           `json:"timestamp"`
}
