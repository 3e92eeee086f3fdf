package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "warn", false)
	require.NoError(t, err)

	logger.Info().Msg("dropped")
	logger.Warn().Str("todo_id", "t1").Msg("kept")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "kept", line["message"])
	assert.Equal(t, "t1", line["todo_id"])
	assert.Equal(t, "warn", line["level"])
	assert.Contains(t, line, "timestamp")
}

func TestNew_EmptyLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, "", false)
	require.NoError(t, err)

	logger.Debug().Msg("dropped")
	assert.Zero(t, buf.Len())
	logger.Info().Msg("kept")
	assert.NotZero(t, buf.Len())
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(nil, "loud", false)
	assert.Error(t, err)
}
