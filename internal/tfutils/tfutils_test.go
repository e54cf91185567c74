package tfutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeframe(t *testing.T) {
	d, err := ParseTimeframe("15m")
	assert.NoError(t, err)
	assert.Equal(t, 15*time.Minute, d)

	_, err = ParseTimeframe("7m")
	assert.Error(t, err)
}

func TestIsValidTimeframe(t *testing.T) {
	for _, tf := range GetSupportedTimeframes() {
		assert.True(t, IsValidTimeframe(tf), tf)
	}
	assert.False(t, IsValidTimeframe(""))
	assert.False(t, IsValidTimeframe("2w"))
}

func TestResolution(t *testing.T) {
	assert.Equal(t, "1", Resolution("1m"))
	assert.Equal(t, "15", Resolution("15m"))
	assert.Equal(t, "240", Resolution("4h"))
	assert.Equal(t, "1D", Resolution("1d"))
}
