// Copyright (c) 2025 A Bit of Help, Inc.

// Package config loads runtime tuning from the environment. The command
// line carries only the operation and its paths; everything else is set
// through TREEPACK_* variables or a local .env file.
package config

import (
	"fmt"

	"github.com/abitofhelp/treepack/pkg/archive"
	"github.com/abitofhelp/treepack/pkg/codec"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envPrefix = "treepack"

// Config holds the tunable settings of a run.
type Config struct {
	// Workers is the number of concurrent file processors. Zero means one
	// per CPU.
	Workers int `envconfig:"WORKERS" default:"0"`

	// Level is the compression level passed to the codec. Codecs clamp it
	// to their own scale.
	Level int `envconfig:"LEVEL" default:"21"`

	// Codec selects the compression codec by name.
	Codec string `envconfig:"CODEC" default:"zstd"`

	// Container selects the archive container by name.
	Container string `envconfig:"CONTAINER" default:"tar"`

	// ChunkSize is the read buffer size used while ingesting files, in
	// bytes. Zero means the ingest default.
	ChunkSize int `envconfig:"CHUNK_SIZE" default:"0"`

	// LogLevel sets the logger verbosity (debug, info, warn, error).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Quiet disables the interactive progress line.
	Quiet bool `envconfig:"QUIET" default:"false"`
}

// Load reads the configuration from the environment, after merging in a
// .env file if one exists next to the working directory.
func Load() (*Config, error) {
	// A missing .env file is the normal case
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the loaded values against the registered codecs and
// containers.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.ChunkSize < 0 {
		return fmt.Errorf("chunk size must not be negative, got %d", c.ChunkSize)
	}
	if _, err := codec.ByName(c.Codec); err != nil {
		return err
	}
	if _, err := archive.ContainerByName(c.Container); err != nil {
		return err
	}
	return nil
}
