package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlattenSpreadsOnlyPresentVoltages(t *testing.T) {
	entries, err := NewSnapshot("/h", []byte(`{"a":{"timestamp":1700000000000,"voltages":{"voltage1":"120","voltage2":null}}}`)).HistoryEntries()
	require.NoError(t, err)

	record := entries[0].Flatten(1700000000000)
	assert.Equal(t, 1700000000000.0, record.SampleMillis())

	out, err := json.Marshal(record)
	require.NoError(t, err)
	assert.JSONEq(t, `{"timestamp":1700000000000,"voltage1":"120","voltage2":null}`, string(out))
}
