// Package shard maps keys onto the fixed 16x16 grid of on-disk buckets.
package shard

import "fmt"

const (
	// DirCount is the number of bucket directories in a table.
	DirCount = 16
	// FileCount is the number of bucket files in every directory.
	FileCount = 16
	// BucketCount is the size of the whole grid.
	BucketCount = DirCount * FileCount
)

// Bucket is one (directory, file) cell of the grid.
type Bucket struct {
	Dir  int
	File int
}

// Index flattens the bucket into 0..BucketCount-1.
func (b Bucket) Index() int {
	return b.Dir*FileCount + b.File
}

// Valid reports whether both coordinates are inside the grid.
func (b Bucket) Valid() bool {
	return b.Dir >= 0 && b.Dir < DirCount && b.File >= 0 && b.File < FileCount
}

func (b Bucket) String() string {
	return fmt.Sprintf("%d.dir/%d.dat", b.Dir, b.File)
}

// BucketFromIndex is the inverse of Bucket.Index.
func BucketFromIndex(i int) Bucket {
	return Bucket{Dir: i / FileCount, File: i % FileCount}
}

// Locate maps a key hash to its bucket. Go's % truncates toward zero,
// so negative remainders are shifted back into range.
func Locate(hash int32) Bucket {
	return Bucket{
		Dir:  normalize(int(hash%DirCount), DirCount),
		File: normalize(int(hash/DirCount%FileCount), FileCount),
	}
}

func normalize(rem, n int) int {
	if rem < 0 {
		rem += n
	}
	return rem
}

// Locator binds a Hasher to the grid.
type Locator struct {
	hasher Hasher
}

func NewLocator(h Hasher) *Locator {
	return &Locator{hasher: h}
}

// Locate returns the bucket that key belongs to.
func (l *Locator) Locate(key string) Bucket {
	return Locate(l.hasher.Hash(key))
}

// Index returns the flattened bucket index of key.
func (l *Locator) Index(key string) int {
	return l.Locate(key).Index()
}
