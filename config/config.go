// Package config loads the engine's top-level YAML configuration: pool
// sizing, disk I/O, and the logging/telemetry sub-configs every other
// package consumes.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rhea-devare/corestore/pkg/logger"
	"github.com/rhea-devare/corestore/pkg/telemetry"
)

// BufferConfig sizes the buffer pool and its replacement policy.
type BufferConfig struct {
	// PoolSize is the number of frames in the buffer pool.
	PoolSize int `yaml:"pool_size"`
	// ReplacerK is the LRU-K policy's history length.
	ReplacerK int `yaml:"replacer_k"`
}

// DiskConfig configures the disk gateway and scheduler.
type DiskConfig struct {
	// DataFile is the path to the single backing file of fixed-size pages.
	DataFile string `yaml:"data_file"`
	// Workers is the size of the disk scheduler's worker pool. Defaults
	// to diskio.DefaultWorkers when zero.
	Workers int `yaml:"workers"`
	// RateLimitRPS, if positive, caps Schedule submissions per second.
	RateLimitRPS float64 `yaml:"rate_limit_rps"`
	// RateLimitBurst is the burst allowance paired with RateLimitRPS.
	RateLimitBurst int `yaml:"rate_limit_burst"`
}

// Config is the engine's top-level configuration document.
type Config struct {
	Buffer    BufferConfig     `yaml:"buffer"`
	Disk      DiskConfig       `yaml:"disk"`
	Logger    logger.Config    `yaml:"logger"`
	Telemetry telemetry.Config `yaml:"telemetry"`
}

// defaults are applied to zero-valued fields after decoding, the same
// way logger.New and telemetry.New fall back to sane defaults rather
// than requiring every field to be present in the file.
func (c *Config) applyDefaults() {
	if c.Buffer.PoolSize <= 0 {
		c.Buffer.PoolSize = 64
	}
	if c.Buffer.ReplacerK <= 0 {
		c.Buffer.ReplacerK = 2
	}
	if c.Disk.DataFile == "" {
		c.Disk.DataFile = "corestore.db"
	}
	if c.Logger.ServiceName == "" {
		c.Logger.ServiceName = "corestore"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
	if c.Logger.Format == "" {
		c.Logger.Format = "console"
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = c.Logger.ServiceName
	}
}

// Load reads and decodes a YAML config document from path, applying
// defaults to anything left unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	c.applyDefaults()
	return &c, nil
}
