package model

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	got, err := MarshalCanonical(map[string]any{"b": 1, "a": 2, "c": map[string]any{"z": true, "y": nil}})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":{"y":null,"z":true}}`, string(got))
}

func TestMarshalCanonical_UTF16KeyOrder(t *testing.T) {
	// U+1F600 encodes as a surrogate pair (0xD83D...) which sorts before U+FF21
	// in UTF-16 but after it in UTF-8.
	got, err := MarshalCanonical(map[string]any{"\uff21": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"\uff21\":1}", string(got))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	got, err := MarshalCanonical("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(got))
}

func TestMarshalCanonical_EscapesControls(t *testing.T) {
	got, err := MarshalCanonical("a\"b\\c\n\x01")
	require.NoError(t, err)
	assert.Equal(t, `"a\"b\\c\n\u0001"`, string(got))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	got, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(got))
}

func TestMarshalCanonical_Numbers(t *testing.T) {
	got, err := MarshalCanonical([]any{json.Number("10"), json.Number("1.50"), int64(-3), 2.5})
	require.NoError(t, err)
	assert.Equal(t, `[10,1.5,-3,2.5]`, string(got))
}

func TestMarshalCanonical_RejectsNonFinite(t *testing.T) {
	_, err := MarshalCanonical(math.Inf(1))
	assert.Error(t, err)
}

func TestMarshalCanonical_RejectsUnsupported(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestCanonicalizeJSON_Equivalent(t *testing.T) {
	a, err := CanonicalizeJSON([]byte(`{ "b" : [1, 2], "a": "x" }`))
	require.NoError(t, err)
	b, err := CanonicalizeJSON([]byte(`{"a":"x","b":[1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCanonicalizeJSON_Invalid(t *testing.T) {
	_, err := CanonicalizeJSON([]byte(`{`))
	assert.Error(t, err)
}
