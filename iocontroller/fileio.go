package iocontroller

import (
	"errors"
	"os"
)

// FilePerm default permission of the newly created shard file.
const FilePerm = 0644

// OpenMode decides what happens to existing bytes when a file is opened for writing.
type OpenMode uint8

const (
	// Truncate drops existing content; writes start at offset 0.
	Truncate OpenMode = iota
	// Append keeps existing content; callers write at Size().
	Append
)

// ErrInvalidMode unsupported open mode.
var ErrInvalidMode = errors.New("iocontroller: open mode is not supported")

// FileIOController represents using standard file I/O.
type FileIOController struct {
	fd *os.File // system file descriptor.
}

// NewFileIOController opens fName for reading and writing, creating it if needed.
func NewFileIOController(fName string, mode OpenMode) (IOController, error) {
	flag := os.O_CREATE | os.O_RDWR
	switch mode {
	case Truncate:
		flag |= os.O_TRUNC
	case Append:
	default:
		return nil, ErrInvalidMode
	}
	fd, err := os.OpenFile(fName, flag, FilePerm)
	if err != nil {
		return nil, err
	}
	return &FileIOController{fd: fd}, nil
}

func (f *FileIOController) Write(b []byte, offset int64) (int, error) {
	return f.fd.WriteAt(b, offset)
}

func (f *FileIOController) Read(b []byte, offset int64) (int, error) {
	return f.fd.ReadAt(b, offset)
}

func (f *FileIOController) Size() (int64, error) {
	stat, err := f.fd.Stat()
	if err != nil {
		return 0, err
	}
	return stat.Size(), nil
}

func (f *FileIOController) Sync() error {
	return f.fd.Sync()
}

func (f *FileIOController) Close() error {
	return f.fd.Close()
}

func (f *FileIOController) Delete() error {
	if err := f.fd.Close(); err != nil {
		return err
	}
	return os.Remove(f.fd.Name())
}
