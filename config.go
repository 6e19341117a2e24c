package tabledb

import (
	"log/slog"
	"path/filepath"

	"tabledb/row"
	"tabledb/shard"
)

const (
	defaultHasher = shard.HashString

	// SignatureFileName holds the schema of a table inside its directory.
	SignatureFileName = "signature.tsv"
)

// Validator checks a row against the table schema before it is put.
type Validator func(schema row.Schema, r *row.Row) error

type TableConfig struct {
	Dir        string // Directory holding the bucket files; its base name is the table name.
	Hasher     string // Key hash deciding the bucket of a key: "strhash" (default) or "murmur3".
	SyncWrites bool   // fsync every bucket file written by a commit.

	//  Codec turns rows into the text stored as record values.
	//  Defaults to row.XMLCodec.
	Codec row.Codec

	//  Validator runs before every put.
	//  Defaults to row.Validate.
	Validator Validator

	Logger *slog.Logger
}

func DefaultTableConfig(dir string) TableConfig {
	return TableConfig{
		Dir:       dir,
		Hasher:    defaultHasher,
		Codec:     row.XMLCodec{},
		Validator: row.Validate,
		Logger:    slog.Default(),
	}
}

func (c *TableConfig) fillDefaults() {
	if c.Hasher == "" {
		c.Hasher = defaultHasher
	}
	if c.Codec == nil {
		c.Codec = row.XMLCodec{}
	}
	if c.Validator == nil {
		c.Validator = row.Validate
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

type ProviderConfig struct {
	Root       string // Directory holding one sub-directory per table.
	Hasher     string // Applied to every table opened by the provider.
	SyncWrites bool
	Logger     *slog.Logger
}

func DefaultProviderConfig(root string) ProviderConfig {
	return ProviderConfig{
		Root:   root,
		Hasher: defaultHasher,
		Logger: slog.Default(),
	}
}

func (c ProviderConfig) tableConfig(name string) TableConfig {
	cfg := DefaultTableConfig(filepath.Join(c.Root, name))
	cfg.Hasher = c.Hasher
	cfg.SyncWrites = c.SyncWrites
	if c.Logger != nil {
		cfg.Logger = c.Logger
	}
	return cfg
}
