package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueFloat(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"decimal string", `"120.5"`, 120.5},
		{"number", `119`, 119},
		{"unit suffix", `"230.1V"`, 230.1},
		{"leading spaces", `"  12"`, 12},
		{"exponent", `"1.5e2"`, 150},
		{"negative", `"-3.25"`, -3.25},
		{"not numeric", `"abc"`, 0},
		{"empty string", `""`, 0},
		{"null", `null`, 0},
		{"false", `false`, 0},
		{"true", `true`, 0},
		{"object", `{"a":1}`, 0},
		{"overflow", `"1e999"`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, RawValue(json.RawMessage(tc.raw)).Float())
		})
	}

	assert.Equal(t, 0.0, Value{}.Float())
}

func TestValueOrZeroString(t *testing.T) {
	keep := []string{`"120"`, `121`, `"abc"`, `true`}
	for _, raw := range keep {
		got, err := json.Marshal(RawValue(json.RawMessage(raw)).OrZeroString())
		require.NoError(t, err)
		assert.Equal(t, raw, string(got))
	}

	replace := []string{``, `null`, `""`, `0`, `false`, `0.0`}
	for _, raw := range replace {
		got, err := json.Marshal(RawValue(json.RawMessage(raw)).OrZeroString())
		require.NoError(t, err)
		assert.Equal(t, `"0"`, string(got), "raw %q", raw)
	}
}

func TestValueNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
		ok   bool
	}{
		{`1700000000000`, 1700000000000, true},
		{`"1700000000000"`, 1700000000000, true},
		{`" 42 "`, 42, true},
		{`""`, 0, true},
		{`null`, 0, true},
		{`true`, 1, true},
		{`"12abc"`, 0, false},
		{`{}`, 0, false},
	}
	for _, tc := range cases {
		got, ok := RawValue(json.RawMessage(tc.raw)).Number()
		assert.Equal(t, tc.ok, ok, "raw %s", tc.raw)
		assert.Equal(t, tc.want, got, "raw %s", tc.raw)
	}

	_, ok := Value{}.Number()
	assert.False(t, ok)
}

func TestValueRoundTripKeepsRawJSON(t *testing.T) {
	var payload struct {
		V Value `json:"v"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"v": "120.40"}`), &payload))

	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":"120.40"}`, string(out))
}
