package tabledb

import (
	"errors"

	"tabledb/row"
	"tabledb/shardfile"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrIOFailure       = errors.New("shard write failed")
	ErrTableClosed     = errors.New("table is closed")
	ErrTableExists     = errors.New("table already exists")
	ErrTableNotFound   = errors.New("table not found")

	// ErrTypeMismatch is returned by Put for rows that do not fit the schema.
	ErrTypeMismatch = row.ErrTypeMismatch
	// ErrCorruptShard is returned by Open when a bucket file cannot be loaded.
	ErrCorruptShard = shardfile.ErrCorruptShard
)
