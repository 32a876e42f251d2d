package models

import (
	"bytes"
	"encoding/json"
)

// Voltage field names inside a history entry's voltages object.
const (
	FieldVoltage1 = "voltage1"
	FieldVoltage2 = "voltage2"
	FieldVoltage3 = "voltage3"
)

// HistoryEntry is one stored child of the history node:
// {"timestamp": <ms>, "voltages": {"voltage1": ..., ...}}.
type HistoryEntry struct {
	Key       string
	Timestamp Value
	Voltages  map[string]Value
}

// Voltage returns the named voltage, unset when the entry has none.
func (e HistoryEntry) Voltage(name string) Value {
	return e.Voltages[name]
}

// Flatten spreads the voltages next to the timestamp. Voltages missing from
// the entry are left out of the record.
func (e HistoryEntry) Flatten(sampleMillis float64) HistoryRecord {
	record := HistoryRecord{Timestamp: e.Timestamp, sampleMillis: sampleMillis}
	if v, ok := e.Voltages[FieldVoltage1]; ok {
		record.Voltage1 = &v
	}
	if v, ok := e.Voltages[FieldVoltage2]; ok {
		record.Voltage2 = &v
	}
	if v, ok := e.Voltages[FieldVoltage3]; ok {
		record.Voltage3 = &v
	}
	return record
}

// HistoryRecord is a flattened history entry as served by the history endpoint.
type HistoryRecord struct {
	Timestamp Value  `json:"timestamp"`
	Voltage1  *Value `json:"voltage1,omitempty"`
	Voltage2  *Value `json:"voltage2,omitempty"`
	Voltage3  *Value `json:"voltage3,omitempty"`

	sampleMillis float64
}

// SampleMillis is the numeric sample time the record was filtered on.
func (r HistoryRecord) SampleMillis() float64 {
	return r.sampleMillis
}

func decodeHistoryEntry(c Child) HistoryEntry {
	entry := HistoryEntry{Key: c.Key}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(c.Raw, &fields); err != nil {
		return entry
	}
	if ts, ok := fields["timestamp"]; ok {
		entry.Timestamp = RawValue(ts)
	}
	raw, ok := fields["voltages"]
	if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return entry
	}
	var voltages map[string]json.RawMessage
	if err := json.Unmarshal(raw, &voltages); err != nil {
		return entry
	}
	entry.Voltages = make(map[string]Value, len(voltages))
	for name, v := range voltages {
		entry.Voltages[name] = RawValue(v)
	}
	return entry
}
