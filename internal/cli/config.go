package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tabledb"
)

// Config is the optional YAML file passed with --config.
type Config struct {
	// Root is the directory holding one sub-directory per table.
	Root string `yaml:"root"`

	// Hasher picks the bucket hash: "strhash" or "murmur3".
	Hasher string `yaml:"hasher"`

	SyncWrites bool   `yaml:"sync_writes"`
	LogLevel   string `yaml:"log_level"` // debug, info, warn or error
}

// DefaultRoot is used when neither --root nor the config file name a root.
const DefaultRoot = "."

// LoadConfig reads the YAML config at path. An empty path yields the zero
// Config.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) level(verbose bool) (slog.Level, error) {
	if verbose {
		return slog.LevelDebug, nil
	}
	if c.LogLevel == "" {
		return slog.LevelWarn, nil
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return l, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return l, nil
}

// providerConfig merges the file config with the command line flags, flags
// winning.
func (c Config) providerConfig(opts *RootOptions, logger *slog.Logger) tabledb.ProviderConfig {
	root := DefaultRoot
	if c.Root != "" {
		root = c.Root
	}
	if opts.Root != "" {
		root = opts.Root
	}
	cfg := tabledb.DefaultProviderConfig(root)
	if c.Hasher != "" {
		cfg.Hasher = c.Hasher
	}
	cfg.SyncWrites = c.SyncWrites
	cfg.Logger = logger
	return cfg
}
