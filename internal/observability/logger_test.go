package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "info", "simulate")
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Int("draws", 10).Msg("visible")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible")
	assert.Contains(t, out, "component=simulate")
	assert.Contains(t, out, "draws=10")
}

func TestNewLogger_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "", "analyze")
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	assert.Empty(t, buf.String())
}

func TestNewLogger_BadLevel(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "loud", "analyze")
	assert.Error(t, err)
}
