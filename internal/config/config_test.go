package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, "hybrid", cfg.Strategy)
	assert.Equal(t, 0.3, cfg.SceneThreshold)
	assert.Equal(t, 10, cfg.Interval)
	assert.Equal(t, 10, cfg.DedupThreshold)
	assert.Equal(t, "ocr", cfg.Classifier)
	assert.Equal(t, 50, cfg.MaxFrames)
	assert.False(t, cfg.KeepVideo)
	assert.Equal(t, 1080, cfg.MaxResolution)
	assert.True(t, cfg.Chronological)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
strategy: interval
interval_seconds: 30
max_frames: 12
ollama:
  model: llava:7b
`), 0644))

	t.Setenv("YTFRAMES_MAX_FRAMES", "20")
	t.Setenv("YTFRAMES_OLLAMA_PORT", "9999")
	t.Setenv("YTFRAMES_KEEP_VIDEO", "true")
	t.Setenv("YTFRAMES_ANTHROPIC_API_KEY", "sk-ant-test")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "interval", cfg.Strategy)
	assert.Equal(t, 30, cfg.Interval)
	assert.Equal(t, 20, cfg.MaxFrames)
	assert.True(t, cfg.KeepVideo)
	assert.Equal(t, "llava:7b", cfg.Ollama.Model)
	assert.Equal(t, 9999, cfg.Ollama.Port)
	assert.Equal(t, "http://localhost", cfg.Ollama.BaseURL)
	assert.Equal(t, 0.3, cfg.SceneThreshold)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.APIKey)
	assert.Equal(t, "claude-sonnet-4-20250514", cfg.Anthropic.Model)
}

func TestLoadExplicitMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strategy: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := defaultConfig()
	cfg.SceneThreshold = 1.5
	cfg.MaxFrames = 0
	cfg.DedupThreshold = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scene_threshold")
	assert.Contains(t, err.Error(), "max_frames")
	assert.Contains(t, err.Error(), "dedup_threshold")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := defaultConfig()
	cfg.Classifier = "gpt4v"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gpt4v", loaded.Classifier)
}

func TestContext(t *testing.T) {
	cfg := defaultConfig()
	cfg.MaxFrames = 7
	ctx := WithConfig(context.Background(), cfg)
	assert.Equal(t, 7, FromContext(ctx).MaxFrames)
	assert.Equal(t, 50, FromContext(context.Background()).MaxFrames)
}
