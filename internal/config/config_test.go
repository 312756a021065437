package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "text-embedding-3-small", cfg.Embedder.Model)
	assert.Equal(t, 384, cfg.Embedder.FallbackDim)
	assert.Equal(t, "video_chunks", cfg.VectorStore.Collection)
	assert.Equal(t, 2, cfg.OCR.Engine)
	require.NotNil(t, cfg.OCR.DetectOrientation)
	assert.True(t, *cfg.OCR.DetectOrientation, "orientation detection is on by default")
	assert.Equal(t, 2, cfg.OCR.Retries)
	assert.InDelta(t, 1.5, cfg.OCR.RetryDelaySecs, 1e-9)
	assert.Equal(t, 5, cfg.Search.TopK)
}

func TestLoadAppliesDefaultsToPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"vector_store:\n  path: /data/index\nsearch:\n  top_k: 10\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/index", cfg.VectorStore.Path)
	assert.Equal(t, 10, cfg.Search.TopK)
	assert.Equal(t, "video_chunks", cfg.VectorStore.Collection)
	assert.Equal(t, "eng", cfg.OCR.Language)
}

func TestLoadKeepsExplicitOrientationOff(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"ocr:\n  detect_orientation: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg.OCR.DetectOrientation)
	assert.False(t, *cfg.OCR.DetectOrientation, "an explicit false is not overwritten by the default")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := defaultConfig()
	cfg.Search.TopK = 3

	require.NoError(t, Save(path, cfg))
	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Search.TopK)
	assert.Equal(t, cfg.Embedder.Model, loaded.Embedder.Model)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("embedder: [oops"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
