// Package config loads the YAML configuration for the tinycms command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// MemoryPath selects the in-memory blob store instead of a bbolt file.
const MemoryPath = ":memory:"

// Config is the top-level configuration file.
type Config struct {
	Storage  Storage  `yaml:"storage"`
	Snapshot Snapshot `yaml:"snapshot"`
	Log      Log      `yaml:"log"`
}

// Storage locates the durable snapshot.
type Storage struct {
	// Path of the bbolt file, or MemoryPath.
	Path string `yaml:"path"`

	// Key under which the snapshot is stored.
	Key string `yaml:"key"`

	// Timeout for acquiring the bbolt file lock.
	Timeout time.Duration `yaml:"timeout"`
}

// Snapshot controls the snapshot encoding.
type Snapshot struct {
	Compress bool `yaml:"compress"`
}

// Log controls the process logger.
type Log struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Storage: Storage{
			Path:    "tinycms.db",
			Key:     "tinyCMS_sqlite",
			Timeout: 5 * time.Second,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads path over the defaults. Unknown fields are rejected.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields.
func (c Config) Validate() error {
	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}
	if c.Storage.Key == "" {
		return fmt.Errorf("storage.key is required")
	}
	if c.Storage.Timeout < 0 {
		return fmt.Errorf("storage.timeout must not be negative")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
