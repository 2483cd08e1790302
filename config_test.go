package corvus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultEngineConfig_MatchesReferenceValues(t *testing.T) {
	c := DefaultEngineConfig()
	assert.Equal(t, 16, c.Shards)
	assert.Equal(t, 512, c.BlockSize)
	assert.Equal(t, 2, c.MinTokenLen)
	assert.Equal(t, 32, c.MaxTokenLen)
	assert.Equal(t, 1.2, c.K1)
	assert.Equal(t, 0.75, c.B)
}

func TestNormalize_FillsZeroFieldsWithDefaults(t *testing.T) {
	c := EngineConfig{}.Normalize()
	assert.Equal(t, DefaultEngineConfig(), c)
}

func TestNormalize_RoundsShardsUpToPowerOfTwo(t *testing.T) {
	c := EngineConfig{Shards: 10}.Normalize()
	assert.Equal(t, 16, c.Shards)

	c2 := EngineConfig{Shards: 16}.Normalize()
	assert.Equal(t, 16, c2.Shards)
}

func TestNormalize_PreservesExplicitNonZeroValues(t *testing.T) {
	c := EngineConfig{Shards: 4, BlockSize: 128, MinTokenLen: 1, MaxTokenLen: 16, K1: 2.0, B: 0.5}.Normalize()
	assert.Equal(t, 4, c.Shards)
	assert.Equal(t, 128, c.BlockSize)
	assert.Equal(t, 1, c.MinTokenLen)
	assert.Equal(t, 16, c.MaxTokenLen)
	assert.Equal(t, 2.0, c.K1)
	assert.Equal(t, 0.5, c.B)
}

func TestLoadEngineConfig_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadEngineConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultEngineConfig(), cfg)
}

func TestLoadEngineConfig_ParsesYAMLAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shards: 10\nblockSize: 64\n"), 0o644))

	cfg, err := LoadEngineConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Shards) // rounded up from 10
	assert.Equal(t, 64, cfg.BlockSize)
	assert.Equal(t, 1.2, cfg.K1) // defaulted
}

func TestLoadEngineConfig_CorruptYAMLIsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("shards: [this is not valid: yaml structure\n"), 0o644))

	_, err := LoadEngineConfig(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorrupted)
}
