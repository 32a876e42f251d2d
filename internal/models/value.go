package models

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// leadingDecimal matches the numeric prefix of a stored field, so "230.5V"
// parses as 230.5.
var leadingDecimal = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// Value is a telemetry field exactly as the store holds it. Devices write
// voltages as decimal strings ("120.4") but bare numbers show up too, so the
// raw JSON is kept and only interpreted on demand.
type Value struct {
	raw json.RawMessage
}

// StringValue wraps s as a JSON string value.
func StringValue(s string) Value {
	b, _ := json.Marshal(s)
	return Value{raw: b}
}

// NumberValue wraps f as a JSON number value.
func NumberValue(f float64) Value {
	return Value{raw: json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))}
}

// RawValue wraps an already encoded JSON value.
func RawValue(raw json.RawMessage) Value {
	return Value{raw: bytes.TrimSpace(raw)}
}

// IsSet reports whether the field was present at all.
func (v Value) IsSet() bool {
	return len(v.raw) > 0
}

// Truthy reports whether the value counts as present for defaulting: absent,
// null, false, "" and 0 do not.
func (v Value) Truthy() bool {
	if !v.IsSet() {
		return false
	}
	switch v.raw[0] {
	case 'n', 'f':
		return false
	case 't', '{', '[':
		return true
	case '"':
		s, ok := v.text()
		return ok && s != ""
	default:
		f, err := strconv.ParseFloat(string(v.raw), 64)
		return err != nil || f != 0
	}
}

// OrZeroString returns v when it is truthy and the string "0" otherwise.
func (v Value) OrZeroString() Value {
	if v.Truthy() {
		return v
	}
	return StringValue("0")
}

// Float parses the leading decimal of the value. Falsy, non-numeric and
// out-of-range values yield 0.
func (v Value) Float() float64 {
	if !v.Truthy() {
		return 0
	}
	var s string
	switch v.raw[0] {
	case '"':
		s, _ = v.text()
	case 't', '{', '[':
		return 0
	default:
		s = string(v.raw)
	}
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	prefix := leadingDecimal.FindString(s)
	if prefix == "" {
		return 0
	}
	f, err := strconv.ParseFloat(prefix, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

// Number converts the whole value to a number the way a loose comparison
// would: null and false are 0, true is 1, blank strings are 0. ok is false
// when the value is absent or does not convert.
func (v Value) Number() (float64, bool) {
	if !v.IsSet() {
		return 0, false
	}
	switch v.raw[0] {
	case 'n', 'f':
		return 0, true
	case 't':
		return 1, true
	case '{', '[':
		return 0, false
	case '"':
		s, ok := v.text()
		if !ok {
			return 0, false
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return 0, true
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		f, err := strconv.ParseFloat(string(v.raw), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
}

func (v Value) text() (string, bool) {
	var s string
	if err := json.Unmarshal(v.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// MarshalJSON writes the value back exactly as it was read.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.IsSet() {
		return []byte("null"), nil
	}
	return v.raw, nil
}

// UnmarshalJSON keeps a copy of the raw value.
func (v *Value) UnmarshalJSON(data []byte) error {
	v.raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}
