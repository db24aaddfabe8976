package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDAcceptsNumbersAndStrings(t *testing.T) {
	var got struct {
		A ID `json:"a"`
		B ID `json:"b"`
		C ID `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 42, "b": "42", "c": null}`), &got))

	assert.Equal(t, ID("42"), got.A)
	assert.Equal(t, got.A, got.B, "numeric and string ids compare equal")
	assert.True(t, got.C.IsZero())
}

func TestIDMarshalsIntegersAsNumbers(t *testing.T) {
	data, err := json.Marshal(map[string]ID{"n": "7", "s": "abc-1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n": 7, "s": "abc-1"}`, string(data))
}

func TestDecimalAcceptsNumericStrings(t *testing.T) {
	var got struct {
		Num   Decimal `json:"num"`
		Str   Decimal `json:"str"`
		Empty Decimal `json:"empty"`
		Null  Decimal `json:"null"`
	}
	require.NoError(t, json.Unmarshal(
		[]byte(`{"num": 12.5, "str": "165.00", "empty": "", "null": null}`), &got))

	assert.Equal(t, 12.5, got.Num.Float())
	assert.Equal(t, 165.0, got.Str.Float())
	assert.Zero(t, got.Empty.Float())
	assert.Zero(t, got.Null.Float())
}

func TestDecimalRejectsGarbage(t *testing.T) {
	var d Decimal
	assert.Error(t, json.Unmarshal([]byte(`"abc"`), &d))
}
