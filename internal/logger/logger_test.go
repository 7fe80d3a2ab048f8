package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthcare-scheduling-server/internal/config"
)

func TestNew(t *testing.T) {
	log, err := New(config.LogConfig{Level: "debug", Format: "console", OutputPath: "stdout"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(-1))

	_, err = New(config.LogConfig{Level: "loud", Format: "json", OutputPath: "stdout"})
	assert.Error(t, err)
}
