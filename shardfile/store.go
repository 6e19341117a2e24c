package shardfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"tabledb/iocontroller"
	"tabledb/shard"
	"tabledb/util"
)

const (
	DirSuffix  = ".dir"
	FileSuffix = ".dat"

	// DirPerm default permission of newly created bucket directories.
	DirPerm = 0755
)

// ErrCorruptShard is returned by Load for anything in the table directory
// that cannot be the output of this package.
var ErrCorruptShard = errors.New("shardfile: corrupt shard")

// Store lays records out as <dir>/<d>.dir/<f>.dat.
type Store struct {
	dir        string
	syncWrites bool
}

// NewStore returns a store rooted at dir. With syncWrites every rewrite and
// append is fsynced before it returns.
func NewStore(dir string, syncWrites bool) *Store {
	return &Store{dir: dir, syncWrites: syncWrites}
}

func (s *Store) Dir() string {
	return s.dir
}

// DirPath is the directory holding bucket b.
func (s *Store) DirPath(b shard.Bucket) string {
	return filepath.Join(s.dir, strconv.Itoa(b.Dir)+DirSuffix)
}

// FilePath is the file holding bucket b.
func (s *Store) FilePath(b shard.Bucket) string {
	return filepath.Join(s.DirPath(b), strconv.Itoa(b.File)+FileSuffix)
}

// Load decodes every bucket file under the store directory and hands each
// record to fn. Every key must be located, by locate, in the bucket it was
// read from. Regular files next to the bucket directories are ignored; a
// missing store directory loads as empty.
func (s *Store) Load(locate func(key string) shard.Bucket, fn func(b shard.Bucket, r Record) error) error {
	dirs, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		dirIdx, ok := parseGridName(d.Name(), DirSuffix)
		if !ok {
			return fmt.Errorf("%w: unexpected directory %s", ErrCorruptShard, d.Name())
		}
		files, err := os.ReadDir(filepath.Join(s.dir, d.Name()))
		if err != nil {
			return err
		}
		for _, f := range files {
			fileIdx, ok := parseGridName(f.Name(), FileSuffix)
			if !ok || f.IsDir() {
				return fmt.Errorf("%w: unexpected entry %s/%s", ErrCorruptShard, d.Name(), f.Name())
			}
			if err := s.loadBucket(shard.Bucket{Dir: dirIdx, File: fileIdx}, locate, fn); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Store) loadBucket(b shard.Bucket, locate func(string) shard.Bucket, fn func(shard.Bucket, Record) error) error {
	path := s.FilePath(b)
	m, err := iocontroller.NewMMapController(path)
	if err != nil {
		return err
	}
	defer m.Close()

	err = DecodeRecords(m.Bytes(), func(r Record) error {
		if got := locate(r.Key); got != b {
			return fmt.Errorf("key %q belongs to %s", r.Key, got)
		}
		return fn(b, r)
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCorruptShard, path, err)
	}
	return nil
}

// parseGridName accepts "<n><suffix>" with n in 0..15 written without
// leading zeros.
func parseGridName(name, suffix string) (int, bool) {
	num, ok := strings.CutSuffix(name, suffix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(num)
	if err != nil || n < 0 || n >= shard.DirCount || strconv.Itoa(n) != num {
		return 0, false
	}
	return n, true
}

// Rewrite replaces the content of bucket b with records. A bucket left
// without records loses its file, and its directory when that was the last
// file in it.
func (s *Store) Rewrite(b shard.Bucket, records []Record) error {
	if len(records) == 0 {
		return s.removeBucket(b)
	}
	if err := s.write(b, records, iocontroller.Truncate); err != nil {
		return fmt.Errorf("shardfile: rewrite %s: %w", b, err)
	}
	return nil
}

// Append adds records to the end of bucket b, creating it if needed.
func (s *Store) Append(b shard.Bucket, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.write(b, records, iocontroller.Append); err != nil {
		return fmt.Errorf("shardfile: append %s: %w", b, err)
	}
	return nil
}

func (s *Store) write(b shard.Bucket, records []Record, mode iocontroller.OpenMode) error {
	for _, r := range records {
		if !fits(r) {
			return fmt.Errorf("record %q too large", r.Key)
		}
	}
	if err := os.MkdirAll(s.DirPath(b), DirPerm); err != nil {
		return err
	}
	ioController, err := iocontroller.NewFileIOController(s.FilePath(b), mode)
	if err != nil {
		return err
	}

	offset, err := ioController.Size()
	if err != nil {
		_ = ioController.Close()
		return err
	}
	buf := EncodeRecords(records)
	n, err := ioController.Write(buf, offset)
	if err == nil && n != len(buf) {
		err = fmt.Errorf("short write: %d of %d bytes", n, len(buf))
	}
	if err == nil && s.syncWrites {
		err = ioController.Sync()
	}
	if cerr := ioController.Close(); err == nil {
		err = cerr
	}
	return err
}

func (s *Store) removeBucket(b shard.Bucket) error {
	if err := os.Remove(s.FilePath(b)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("shardfile: remove %s: %w", b, err)
	}
	dir := s.DirPath(b)
	if !util.IsDir(dir) {
		return nil
	}
	empty, err := util.IsEmptyDir(dir)
	if err != nil {
		return fmt.Errorf("shardfile: remove %s: %w", b, err)
	}
	if empty {
		if err := os.Remove(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("shardfile: remove %s: %w", b, err)
		}
	}
	return nil
}
