package tabledb

import (
	"errors"
	"fmt"

	"tabledb/row"
)

// Tx is one caller's view of a table: its own uncommitted changes layered
// over the table's committed rows. Other transactions never see these
// changes until Commit. A Tx must not be shared between goroutines; it stays
// usable after Commit and Rollback with an empty diff.
//
// Every key sits in at most one of added, changed and removed:
//   - added: not committed, put by this Tx
//   - changed: committed, overridden by this Tx
//   - removed: committed, removed by this Tx
type Tx struct {
	id      uint64
	table   *Table
	added   map[string]*row.Row
	changed map[string]*row.Row
	removed map[string]struct{}
}

func newTx(t *Table, id uint64) *Tx {
	tx := &Tx{id: id, table: t}
	tx.reset()
	return tx
}

func (tx *Tx) reset() {
	tx.added = make(map[string]*row.Row)
	tx.changed = make(map[string]*row.Row)
	tx.removed = make(map[string]struct{})
}

func (tx *Tx) ID() uint64 {
	return tx.id
}

func (tx *Tx) Table() *Table {
	return tx.table
}

func (tx *Tx) checkKey(key string) error {
	if tx.table.IsClosed() {
		return ErrTableClosed
	}
	if key == "" {
		return fmt.Errorf("%w: empty key", ErrInvalidArgument)
	}
	return nil
}

// Get returns the row visible to this transaction, or nil.
func (tx *Tx) Get(key string) (*row.Row, error) {
	if err := tx.checkKey(key); err != nil {
		return nil, err
	}
	if _, ok := tx.removed[key]; ok {
		return nil, nil
	}
	if v, ok := tx.changed[key]; ok {
		return v.Clone(), nil
	}
	if v, ok := tx.added[key]; ok {
		return v.Clone(), nil
	}
	v, _ := tx.table.baseline.Get(key)
	return v.Clone(), nil
}

// Put sets key to value and returns the row key held before, or nil. A row
// that does not fit the table schema is rejected with ErrTypeMismatch and
// leaves the transaction untouched.
func (tx *Tx) Put(key string, value *row.Row) (*row.Row, error) {
	if err := tx.checkKey(key); err != nil {
		return nil, err
	}
	if value == nil {
		return nil, fmt.Errorf("%w: nil row", ErrInvalidArgument)
	}
	if err := tx.table.cfg.Validator(tx.table.schema, value); err != nil {
		if !errors.Is(err, ErrTypeMismatch) {
			err = fmt.Errorf("%w: %v", ErrTypeMismatch, err)
		}
		return nil, fmt.Errorf("put %q: %w", key, err)
	}
	value = value.Clone()

	_, wasRemoved := tx.removed[key]
	delete(tx.removed, key)

	if old, ok := tx.changed[key]; ok {
		tx.changed[key] = value
		return old, nil
	}
	if old, ok := tx.added[key]; ok {
		tx.added[key] = value
		return old, nil
	}

	old, committed := tx.table.baseline.Get(key)
	if committed {
		tx.changed[key] = value
	} else {
		tx.added[key] = value
	}
	if wasRemoved {
		return nil, nil
	}
	return old.Clone(), nil
}

// Remove deletes key and returns the row it held, or nil.
func (tx *Tx) Remove(key string) (*row.Row, error) {
	if err := tx.checkKey(key); err != nil {
		return nil, err
	}
	if _, ok := tx.removed[key]; ok {
		return nil, nil
	}
	if v, ok := tx.added[key]; ok {
		delete(tx.added, key)
		return v, nil
	}
	if v, ok := tx.changed[key]; ok {
		delete(tx.changed, key)
		tx.removed[key] = struct{}{}
		return v, nil
	}
	if v, ok := tx.table.baseline.Get(key); ok {
		tx.removed[key] = struct{}{}
		return v.Clone(), nil
	}
	return nil, nil
}

// Size is the committed row count adjusted by this transaction's additions
// and removals.
func (tx *Tx) Size() (int, error) {
	if tx.table.IsClosed() {
		return 0, ErrTableClosed
	}
	return tx.table.baseline.Size() + len(tx.added) - len(tx.removed), nil
}

// List returns the keys visible to this transaction in no particular order.
func (tx *Tx) List() ([]string, error) {
	if tx.table.IsClosed() {
		return nil, ErrTableClosed
	}
	committed := tx.table.baseline.Keys()
	keys := make([]string, 0, len(committed)+len(tx.added))
	for _, k := range committed {
		if _, ok := tx.removed[k]; ok {
			continue
		}
		if _, ok := tx.added[k]; ok {
			continue
		}
		keys = append(keys, k)
	}
	for k := range tx.added {
		keys = append(keys, k)
	}
	return keys, nil
}

// UncommittedChanges counts the keys this transaction has touched.
func (tx *Tx) UncommittedChanges() int {
	return len(tx.added) + len(tx.changed) + len(tx.removed)
}

// Rollback drops every uncommitted change and returns how many there were.
func (tx *Tx) Rollback() int {
	n := tx.UncommittedChanges()
	tx.reset()
	return n
}

// Commit publishes the transaction's changes to the table and writes the
// affected buckets. It returns the number of keys whose committed state
// changed. The diff is cleared even when a bucket write fails; see
// Table.commit.
func (tx *Tx) Commit() (int, error) {
	defer tx.reset()
	if tx.table.IsClosed() {
		return 0, ErrTableClosed
	}
	return tx.table.commit(tx)
}
