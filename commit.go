package tabledb

import (
	"errors"
	"fmt"
	"sort"

	"tabledb/row"
	"tabledb/shard"
	"tabledb/shardfile"
	"tabledb/util"
)

// commit merges tx into the baseline and persists the touched buckets.
//
// The diff was built against whatever baseline tx saw, so it is first
// reconciled with the current one: an addition of a key that has since been
// committed becomes a change, a change of a key that has since been removed
// becomes an addition, and removals of keys that are already gone are
// dropped.
//
// Buckets holding a changed or removed key are rewritten in full from the
// baseline. Added keys in any other bucket are appended. A failed bucket
// write does not stop the others, and the baseline keeps the new state even
// if disk does not: every failure is logged and returned joined under
// ErrIOFailure after all writes were attempted.
func (t *Table) commit(tx *Tx) (int, error) {
	t.commitMu.Lock()
	defer t.commitMu.Unlock()

	if t.IsClosed() {
		return 0, ErrTableClosed
	}

	added := make(map[string]*row.Row, len(tx.added))
	changed := make(map[string]*row.Row, len(tx.changed))
	reconcile := func(src map[string]*row.Row) {
		for k, v := range src {
			if t.baseline.Has(k) {
				changed[k] = v
			} else {
				added[k] = v
			}
		}
	}
	reconcile(tx.added)
	reconcile(tx.changed)

	removed := make([]string, 0, len(tx.removed))
	for k := range tx.removed {
		if t.baseline.Has(k) {
			removed = append(removed, k)
		}
	}

	count := len(changed) + len(removed) + len(added)
	if count == 0 {
		return 0, nil
	}

	rewrite := make(map[int]struct{})
	for k := range changed {
		rewrite[t.locator.Index(k)] = struct{}{}
	}
	for _, k := range removed {
		rewrite[t.locator.Index(k)] = struct{}{}
	}
	appends := make(map[int][]string)
	for k := range added {
		idx := t.locator.Index(k)
		if _, ok := rewrite[idx]; ok {
			continue
		}
		appends[idx] = append(appends[idx], k)
	}

	for _, k := range removed {
		t.baseline.Remove(k)
	}
	for k, v := range changed {
		t.baseline.Set(k, v)
	}
	for k, v := range added {
		t.baseline.Set(k, v)
	}

	var errs []error
	for _, idx := range sortedIndexes(rewrite) {
		if err := t.rewriteBucket(idx); err != nil {
			errs = append(errs, t.bucketFailed(idx, err))
		}
	}
	for _, idx := range sortedIndexes(appends) {
		if err := t.appendBucket(idx, appends[idx], added); err != nil {
			errs = append(errs, t.bucketFailed(idx, err))
		}
	}

	t.logger.Debug("transaction committed",
		"table", t.name,
		"tx", tx.id,
		"changes", count,
		"rewritten", len(rewrite),
		"appended", len(appends),
		"failed", len(errs),
	)
	if len(errs) > 0 {
		return count, fmt.Errorf("commit table %s: %w: %w", t.name, ErrIOFailure, errors.Join(errs...))
	}
	return count, nil
}

func (t *Table) bucketFailed(idx int, err error) error {
	b := shard.BucketFromIndex(idx)
	t.logger.Error("bucket write failed", "table", t.name, "bucket", b.String(), "err", err)
	return fmt.Errorf("bucket %s: %w", b, err)
}

// rewriteBucket writes every committed row of bucket idx, in key order.
func (t *Table) rewriteBucket(idx int) error {
	m := t.baseline.ShardAt(idx)
	m.RLock()
	records := make([]shardfile.Record, 0, m.Len())
	var err error
	m.Range(func(key string, value *row.Row) bool {
		var r shardfile.Record
		if r, err = t.encode(key, value); err != nil {
			return false
		}
		records = append(records, r)
		return true
	})
	m.RUnlock()
	if err != nil {
		return err
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Key < records[j].Key
	})
	return t.store.Rewrite(shard.BucketFromIndex(idx), records)
}

func (t *Table) appendBucket(idx int, keys []string, rows map[string]*row.Row) error {
	sort.Strings(keys)
	records := make([]shardfile.Record, 0, len(keys))
	for _, k := range keys {
		r, err := t.encode(k, rows[k])
		if err != nil {
			return err
		}
		records = append(records, r)
	}
	return t.store.Append(shard.BucketFromIndex(idx), records)
}

func (t *Table) encode(key string, value *row.Row) (shardfile.Record, error) {
	text, err := t.cfg.Codec.Serialize(t.schema, value)
	if err != nil {
		return shardfile.Record{}, fmt.Errorf("serialize %q: %w", key, err)
	}
	return shardfile.Record{Key: key, Value: util.StringToByte(text)}, nil
}

func sortedIndexes[V any](m map[int]V) []int {
	idx := make([]int, 0, len(m))
	for i := range m {
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}
