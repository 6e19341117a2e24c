package tabledb

import (
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/bwmarrin/snowflake"

	"tabledb/ds"
	"tabledb/row"
	"tabledb/shard"
	"tabledb/shardfile"
	"tabledb/util"
)

// Table is one on-disk table. The committed rows (the baseline) are shared by
// every transaction begun on the table; uncommitted changes live in each Tx.
type Table struct {
	name    string
	schema  row.Schema
	cfg     TableConfig
	locator *shard.Locator
	store   *shardfile.Store
	logger  *slog.Logger
	node    *snowflake.Node

	// baseline has one shard per grid bucket, so the keys of a bucket are
	// exactly the content of one map shard.
	baseline *ds.ConcurrentMap[string, *row.Row]

	commitMu sync.Mutex // serializes commits
	closed   atomic.Bool
}

// Open loads every bucket file under cfg.Dir. A bucket that cannot be decoded
// fails the whole open with ErrCorruptShard.
func Open(cfg TableConfig, schema row.Schema) (*Table, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: empty table directory", ErrInvalidArgument)
	}
	if len(schema) == 0 {
		return nil, fmt.Errorf("%w: empty schema", ErrInvalidArgument)
	}
	cfg.fillDefaults()
	hasher, err := shard.NewHasher(cfg.Hasher)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	node, err := snowflake.NewNode(rand.Int63() % 1024)
	if err != nil {
		return nil, err
	}

	t := &Table{
		name:    filepath.Base(filepath.Clean(cfg.Dir)),
		schema:  schema,
		cfg:     cfg,
		locator: shard.NewLocator(hasher),
		store:   shardfile.NewStore(cfg.Dir, cfg.SyncWrites),
		logger:  cfg.Logger,
		node:    node,
	}
	t.baseline = ds.NewWithCustomShardingFunction[string, *row.Row](shard.BucketCount, func(key string) uint32 {
		return uint32(t.locator.Index(key))
	})

	err = t.store.Load(t.locator.Locate, func(b shard.Bucket, r shardfile.Record) error {
		// r.Value points into the mapped file; Parse copies what it keeps.
		value, err := cfg.Codec.Parse(schema, util.ByteToString(r.Value))
		if err != nil {
			return fmt.Errorf("key %q: %w", r.Key, err)
		}
		t.baseline.Set(r.Key, value)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("open table %s: %w", t.name, err)
	}

	t.logger.Info("table opened", "table", t.name, "dir", cfg.Dir, "rows", t.baseline.Size())
	return t, nil
}

// Name is the base name of the table directory.
func (t *Table) Name() string {
	return t.name
}

func (t *Table) Logger() *slog.Logger {
	return t.logger
}

func (t *Table) Dir() string {
	return t.cfg.Dir
}

func (t *Table) Schema() row.Schema {
	return t.schema
}

func (t *Table) ColumnCount() int {
	return len(t.schema)
}

func (t *Table) ColumnType(i int) (row.ColumnType, error) {
	if i < 0 || i >= len(t.schema) {
		return 0, fmt.Errorf("%w: column %d not in [0, %d)", ErrInvalidArgument, i, len(t.schema))
	}
	return t.schema[i], nil
}

// NewRow returns an empty row shaped for this table.
func (t *Table) NewRow() *row.Row {
	return row.New(t.schema)
}

// CommittedSize is the number of committed rows.
func (t *Table) CommittedSize() int {
	return t.baseline.Size()
}

func (t *Table) IsClosed() bool {
	return t.closed.Load()
}

// Close waits for a running commit and marks the table closed. Transactions
// begun on it fail with ErrTableClosed afterwards.
func (t *Table) Close() error {
	t.commitMu.Lock()
	defer t.commitMu.Unlock()
	if t.closed.Swap(true) {
		return nil
	}
	t.logger.Debug("table closed", "table", t.name)
	return nil
}

// Begin starts a transaction with an empty diff.
func (t *Table) Begin() (*Tx, error) {
	if t.IsClosed() {
		return nil, ErrTableClosed
	}
	return newTx(t, uint64(t.node.Generate().Int64())), nil
}
