package corvus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig tunes the knobs spec.md leaves to the implementation: shard
// count, block size, tokenizer bounds, and the BM25 parameters. Zero values
// are replaced by DefaultEngineConfig's defaults by Normalize.
type EngineConfig struct {
	// Shards is the number of term-hash partitions the sharded profiles
	// use. Must be a power of two.
	Shards int `yaml:"shards"`

	// BlockSize is the number of posting entries per block-max block (B
	// in spec.md §4.2).
	BlockSize int `yaml:"blockSize"`

	// MinTokenLen and MaxTokenLen bound which tokens the tokenizer keeps.
	MinTokenLen int `yaml:"minTokenLen"`
	MaxTokenLen int `yaml:"maxTokenLen"`

	// BM25 tuning parameters.
	K1 float64 `yaml:"k1"`
	B  float64 `yaml:"b"`
}

// DefaultEngineConfig returns the reference values from spec.md: B=512
// posting entries per block, S=16 shards, token lengths [2,32], and the
// classical BM25 k1=1.2, b=0.75.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Shards:      16,
		BlockSize:   512,
		MinTokenLen: 2,
		MaxTokenLen: 32,
		K1:          1.2,
		B:           0.75,
	}
}

// Normalize fills zero fields with DefaultEngineConfig's values and
// validates the rest. Shards must remain a power of two (spec.md §4.2 and
// §9); Normalize rounds up to the next one rather than failing, since a
// host-supplied config is more likely to have picked a nearby round number
// than to be deliberately invalid.
func (c EngineConfig) Normalize() EngineConfig {
	def := DefaultEngineConfig()
	if c.Shards <= 0 {
		c.Shards = def.Shards
	}
	c.Shards = nextPowerOfTwo(c.Shards)
	if c.BlockSize <= 0 {
		c.BlockSize = def.BlockSize
	}
	if c.MinTokenLen <= 0 {
		c.MinTokenLen = def.MinTokenLen
	}
	if c.MaxTokenLen <= 0 {
		c.MaxTokenLen = def.MaxTokenLen
	}
	if c.K1 <= 0 {
		c.K1 = def.K1
	}
	if c.B <= 0 {
		c.B = def.B
	}
	return c
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

// LoadEngineConfig reads a YAML config file from path. A missing file is not
// an error: the host is not required to supply one, and an absent config
// means DefaultEngineConfig applies (see Normalize).
func LoadEngineConfig(path string) (EngineConfig, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultEngineConfig(), nil
	}
	if err != nil {
		return EngineConfig{}, fmt.Errorf("%w: reading config %s: %v", ErrIO, path, err)
	}

	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return EngineConfig{}, fmt.Errorf("%w: parsing config %s: %v", ErrCorrupted, path, err)
	}
	return cfg.Normalize(), nil
}
