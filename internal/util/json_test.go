package util

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalJSON(t *testing.T) {
	data, err := MarshalJSON(map[string]interface{}{"event": "message", "count": 2})

	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"message","count":2}`, string(data))
}

func TestMarshalJSONWrapsEncodeFailure(t *testing.T) {
	_, err := MarshalJSON(math.NaN())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "JSON marshal error")
}
