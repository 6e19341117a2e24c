package tabledb

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabledb/row"
	"tabledb/shard"
	"tabledb/shardfile"
)

// bucketBytes is the expected content of a bucket file holding rows in key
// order.
func bucketBytes(t *testing.T, rows map[string]*row.Row) []byte {
	t.Helper()
	keys := make([]string, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	records := make([]shardfile.Record, 0, len(keys))
	for _, k := range keys {
		text, err := row.XMLCodec{}.Serialize(testSchema, rows[k])
		require.NoError(t, err)
		records = append(records, shardfile.Record{Key: k, Value: []byte(text)})
	}
	return shardfile.EncodeRecords(records)
}

func readBucket(t *testing.T, dir string, b shard.Bucket) []byte {
	t.Helper()
	data, err := os.ReadFile(shardfile.NewStore(dir, false).FilePath(b))
	require.NoError(t, err)
	return data
}

func TestCommit_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	tbl := openTestTable(t, dir)
	v1 := newTestRow(t, 100, "example", 3.25)
	commitRows(t, tbl, map[string]*row.Row{"k1": v1})
	require.NoError(t, tbl.Close())

	reopened := openTestTable(t, dir)
	tx := begin(t, reopened)
	got, err := tx.Get("k1")
	require.NoError(t, err)
	assert.Equal(t, v1, got)
}

func TestCommit_NullColumnsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tbl := openTestTable(t, dir)
	v := tbl.NewRow()
	require.NoError(t, v.SetColumnAt(1, "<&>"))
	commitRows(t, tbl, map[string]*row.Row{"k": v})
	require.NoError(t, tbl.Close())

	reopened := openTestTable(t, dir)
	got, err := begin(t, reopened).Get("k")
	require.NoError(t, err)
	assert.Equal(t, v, got)
}

func TestCommit_Count(t *testing.T) {
	tbl := openTestTable(t, t.TempDir())
	commitRows(t, tbl, map[string]*row.Row{
		"a": newTestRow(t, 1, "a", 1),
		"b": newTestRow(t, 2, "b", 2),
	})

	tests := []struct {
		name string
		ops  func(tx *Tx)
		want int
	}{
		{"empty", func(tx *Tx) {}, 0},
		{"put then remove new key", func(tx *Tx) {
			_, _ = tx.Put("n", newTestRow(t, 1, "n", 1))
			_, _ = tx.Remove("n")
		}, 0},
		{"repeated puts count once", func(tx *Tx) {
			_, _ = tx.Put("a", newTestRow(t, 10, "a", 1))
			_, _ = tx.Put("a", newTestRow(t, 11, "a", 1))
			_, _ = tx.Put("c", newTestRow(t, 3, "c", 1))
			_, _ = tx.Put("c", newTestRow(t, 4, "c", 1))
		}, 2},
		{"remove and put back", func(tx *Tx) {
			_, _ = tx.Remove("b")
			_, _ = tx.Put("b", newTestRow(t, 20, "b", 2))
		}, 1},
		{"remove missing key", func(tx *Tx) {
			_, _ = tx.Remove("zzz")
		}, 0},
		{"remove existing", func(tx *Tx) {
			_, _ = tx.Remove("c")
		}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := begin(t, tbl)
			tt.ops(tx)
			n, err := tx.Commit()
			require.NoError(t, err)
			assert.Equal(t, tt.want, n)
			assert.Equal(t, 0, tx.UncommittedChanges())
		})
	}
	assert.Equal(t, 2, tbl.CommittedSize())
}

func TestCommit_Reconcile(t *testing.T) {
	t.Run("added key committed meanwhile", func(t *testing.T) {
		dir := t.TempDir()
		tbl := openTestTable(t, dir)
		tx1 := begin(t, tbl)
		tx2 := begin(t, tbl)

		_, err := tx1.Put("k", newTestRow(t, 1, "first", 0))
		require.NoError(t, err)
		v2 := newTestRow(t, 2, "second", 0)
		_, err = tx2.Put("k", v2)
		require.NoError(t, err)

		_, err = tx1.Commit()
		require.NoError(t, err)
		n, err := tx2.Commit()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.Equal(t, 1, tbl.CommittedSize())

		// the second commit rewrote the bucket instead of appending a duplicate
		b := testLocator.Locate("k")
		assert.Equal(t, bucketBytes(t, map[string]*row.Row{"k": v2}), readBucket(t, dir, b))
	})

	t.Run("changed key removed meanwhile", func(t *testing.T) {
		tbl := openTestTable(t, t.TempDir())
		commitRows(t, tbl, map[string]*row.Row{"k": newTestRow(t, 1, "a", 0)})
		tx1 := begin(t, tbl)
		tx2 := begin(t, tbl)

		_, err := tx1.Remove("k")
		require.NoError(t, err)
		v := newTestRow(t, 2, "b", 0)
		_, err = tx2.Put("k", v)
		require.NoError(t, err)

		_, err = tx1.Commit()
		require.NoError(t, err)
		assert.Equal(t, 0, tbl.CommittedSize())

		n, err := tx2.Commit()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		got, err := begin(t, tbl).Get("k")
		require.NoError(t, err)
		assert.Equal(t, v, got)
	})

	t.Run("removed key removed meanwhile", func(t *testing.T) {
		tbl := openTestTable(t, t.TempDir())
		commitRows(t, tbl, map[string]*row.Row{"k": newTestRow(t, 1, "a", 0)})
		tx1 := begin(t, tbl)
		tx2 := begin(t, tbl)
		_, err := tx1.Remove("k")
		require.NoError(t, err)
		_, err = tx2.Remove("k")
		require.NoError(t, err)

		n, err := tx1.Commit()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		n, err = tx2.Commit()
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})
}

func TestCommit_BucketIntegrity(t *testing.T) {
	dir := t.TempDir()
	b := shard.Bucket{Dir: 0, File: 0}
	keys := keysInBucket(b, 16)

	tbl := openTestTable(t, dir)
	rows := make(map[string]*row.Row, len(keys))
	for i, k := range keys {
		rows[k] = newTestRow(t, int32(i), k, float64(i))
	}
	commitRows(t, tbl, rows)

	tx := begin(t, tbl)
	for _, k := range keys[:8] {
		_, err := tx.Remove(k)
		require.NoError(t, err)
		delete(rows, k)
	}
	n, err := tx.Commit()
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	require.NoError(t, tbl.Close())

	assert.Equal(t, bucketBytes(t, rows), readBucket(t, dir, b))

	reopened := openTestTable(t, dir)
	assert.Equal(t, 8, reopened.CommittedSize())
	rtx := begin(t, reopened)
	for _, k := range keys[:8] {
		got, err := rtx.Get(k)
		require.NoError(t, err)
		assert.Nil(t, got)
	}
	for _, k := range keys[8:] {
		got, err := rtx.Get(k)
		require.NoError(t, err)
		assert.Equal(t, rows[k], got)
	}
}

func TestCommit_RemoveLastKeyDeletesBucket(t *testing.T) {
	dir := t.TempDir()
	tbl := openTestTable(t, dir)
	commitRows(t, tbl, map[string]*row.Row{"k": newTestRow(t, 1, "a", 0)})
	b := testLocator.Locate("k")
	store := shardfile.NewStore(dir, false)
	require.FileExists(t, store.FilePath(b))

	tx := begin(t, tbl)
	_, err := tx.Remove("k")
	require.NoError(t, err)
	_, err = tx.Commit()
	require.NoError(t, err)

	assert.NoFileExists(t, store.FilePath(b))
	assert.NoDirExists(t, store.DirPath(b))
}

func TestCommit_AppendAndRewriteLayout(t *testing.T) {
	dir := t.TempDir()
	b := shard.Bucket{Dir: 5, File: 9}
	keys := keysInBucket(b, 4)
	tbl := openTestTable(t, dir)

	// additions only: appended in key order
	rows := map[string]*row.Row{
		keys[2]: newTestRow(t, 2, "c", 0),
		keys[0]: newTestRow(t, 0, "a", 0),
	}
	commitRows(t, tbl, rows)
	assert.Equal(t, bucketBytes(t, rows), readBucket(t, dir, b))

	// a later addition is appended after the existing records
	rows2 := map[string]*row.Row{keys[1]: newTestRow(t, 1, "b", 0)}
	commitRows(t, tbl, rows2)
	want := append(bucketBytes(t, rows), bucketBytes(t, rows2)...)
	assert.Equal(t, want, readBucket(t, dir, b))

	// a change plus an addition in the same bucket rewrites it once
	tx := begin(t, tbl)
	changed := newTestRow(t, 20, "cc", 0)
	added := newTestRow(t, 3, "d", 0)
	_, err := tx.Put(keys[2], changed)
	require.NoError(t, err)
	_, err = tx.Put(keys[3], added)
	require.NoError(t, err)
	n, err := tx.Commit()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	all := map[string]*row.Row{
		keys[0]: rows[keys[0]],
		keys[1]: rows2[keys[1]],
		keys[2]: changed,
		keys[3]: added,
	}
	assert.Equal(t, bucketBytes(t, all), readBucket(t, dir, b))
	require.NoError(t, tbl.Close())

	reopened := openTestTable(t, dir)
	assert.Equal(t, 4, reopened.CommittedSize())
}

func TestCommit_BestEffort(t *testing.T) {
	dir := t.TempDir()
	tbl := openTestTable(t, dir)

	blocked := keysInBucket(shard.Bucket{Dir: 3, File: 0}, 1)[0]
	healthy := keysInBucket(shard.Bucket{Dir: 4, File: 0}, 1)[0]
	// a plain file where bucket directory 3 should go
	require.NoError(t, os.WriteFile(filepath.Join(dir, "3.dir"), nil, 0644))

	tx := begin(t, tbl)
	vb := newTestRow(t, 1, "blocked", 0)
	vh := newTestRow(t, 2, "healthy", 0)
	_, err := tx.Put(blocked, vb)
	require.NoError(t, err)
	_, err = tx.Put(healthy, vh)
	require.NoError(t, err)

	n, err := tx.Commit()
	assert.ErrorIs(t, err, ErrIOFailure)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, tx.UncommittedChanges())

	// memory keeps both rows even though one bucket never reached disk
	got, err := tx.Get(blocked)
	require.NoError(t, err)
	assert.Equal(t, vb, got)
	require.NoError(t, tbl.Close())

	reopened := openTestTable(t, dir)
	rtx := begin(t, reopened)
	got, err = rtx.Get(healthy)
	require.NoError(t, err)
	assert.Equal(t, vh, got)
	got, err = rtx.Get(blocked)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCommit_Concurrent(t *testing.T) {
	dir := t.TempDir()
	tbl := openTestTable(t, dir)

	const writers, perWriter = 4, 50
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			tx, err := tbl.Begin()
			if err != nil {
				errs <- err
				return
			}
			for i := 0; i < perWriter; i++ {
				r, _ := row.FromValues(testSchema, []any{int32(i), "w" + strconv.Itoa(w), 0.0})
				if _, err := tx.Put("w"+strconv.Itoa(w)+"-"+strconv.Itoa(i), r); err != nil {
					errs <- err
					return
				}
			}
			_, err = tx.Commit()
			errs <- err
		}(w)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, writers*perWriter, tbl.CommittedSize())
	require.NoError(t, tbl.Close())

	reopened := openTestTable(t, dir)
	assert.Equal(t, writers*perWriter, reopened.CommittedSize())
}
