package iocontroller

import (
	"os"

	"tabledb/mmap"
)

// MMapController maps a whole file read-only. Shard files are only ever read
// in full at load time, so the mapping is never grown.
type MMapController struct {
	fd  *os.File
	buf []byte
}

// NewMMapController maps the current content of fName.
// An empty file yields an empty, unmapped buffer.
func NewMMapController(fName string) (*MMapController, error) {
	fd, err := os.Open(fName)
	if err != nil {
		return nil, err
	}
	stat, err := fd.Stat()
	if err != nil {
		_ = fd.Close()
		return nil, err
	}
	m := &MMapController{fd: fd}
	if stat.Size() == 0 {
		return m, nil
	}
	buf, err := mmap.MMap(fd, false, stat.Size())
	if err != nil {
		_ = fd.Close()
		return nil, err
	}
	_ = mmap.MAdvise(buf, true)
	m.buf = buf
	return m, nil
}

// Bytes returns the mapped region. It is invalid after Close.
func (m *MMapController) Bytes() []byte {
	return m.buf
}

func (m *MMapController) Close() error {
	if m.buf != nil {
		if err := mmap.MUnmap(m.buf); err != nil {
			return err
		}
		m.buf = nil
	}
	return m.fd.Close()
}
