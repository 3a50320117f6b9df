package postgres

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		name     string
		input    int
		expected int32
	}{
		{"within int32 range unchanged", 50, 50},
		{"at int32 max unchanged", math.MaxInt32, math.MaxInt32},
		{"exceeds int32 max clamped", math.MaxInt64, math.MaxInt32},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, clampLimit(tt.input))
		})
	}
}

func TestEncodeMetadata(t *testing.T) {
	empty, err := encodeMetadata(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(empty))

	b, err := encodeMetadata(map[string]any{"endpoint": "blogs", "count": 61})
	require.NoError(t, err)
	assert.JSONEq(t, `{"endpoint":"blogs","count":61}`, string(b))

	_, err = encodeMetadata(map[string]any{"bad": make(chan int)})
	assert.Error(t, err)
}
