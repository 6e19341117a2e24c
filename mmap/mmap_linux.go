package mmap

import (
	"os"

	"golang.org/x/sys/unix"
)

func mMap(fd *os.File, writable bool, size int64) ([]byte, error) {
	mType := unix.PROT_READ
	if writable {
		mType |= unix.PROT_WRITE
	}
	return unix.Mmap(int(fd.Fd()), 0, int(size), mType, unix.MAP_SHARED)
}

func mUnmap(b []byte) error {
	return unix.Munmap(b)
}

func mAdvise(b []byte, sequential bool) error {
	advice := unix.MADV_NORMAL
	if sequential {
		advice = unix.MADV_SEQUENTIAL
	}
	return unix.Madvise(b, advice)
}
