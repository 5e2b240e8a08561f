package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractionResultSuccessJSON(t *testing.T) {
	r := ExtractionResult{Success: true, VideoID: "dQw4w9WgXcQ", OutputDir: "/tmp/out"}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, true, got["success"])
	assert.Equal(t, []any{}, got["frames"])
	assert.Contains(t, got, "stats")
	assert.NotContains(t, got, "error")
}

func TestExtractionResultFailureJSON(t *testing.T) {
	r := ExtractionResult{VideoID: "dQw4w9WgXcQ", Error: "Failed to download video"}

	data, err := json.Marshal(r)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))

	assert.Equal(t, false, got["success"])
	assert.Equal(t, "Failed to download video", got["error"])
	assert.NotContains(t, got, "frames")
	assert.NotContains(t, got, "stats")
}
