package mmap

import "os"

// MMap uses the mmap system call to memory-map a file. If writable is true,
// memory protection of the pages is set so that they may be written to as well.
func MMap(fd *os.File, writable bool, size int64) ([]byte, error) {
	return mMap(fd, writable, size)
}

// MUnmap unmaps a mapped slice
func MUnmap(b []byte) error {
	return mUnmap(b)
}

// MAdvise provide advice on memory usage.
// Shard files are always decoded front to back, so sequential is the useful hint.
func MAdvise(b []byte, sequential bool) error {
	return mAdvise(b, sequential)
}
