// Package shardfile reads and writes the bucket files of a table.
//
// A bucket file is a flat sequence of records with no header or trailer:
//
//	+--------------+-----+----------------+-------+
//	| key size (4) | key | value size (4) | value |
//	+--------------+-----+----------------+-------+
//
// Sizes are big-endian signed 32-bit integers and must not be negative.
package shardfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

const lenFieldSize = 4

// ErrCorruptRecord is returned when a buffer does not hold a whole record.
var ErrCorruptRecord = errors.New("shardfile: corrupt record")

// Record is one key/value pair as stored on disk.
type Record struct {
	Key   string
	Value []byte
}

// Size returns the encoded size of r.
func (r Record) Size() int {
	return 2*lenFieldSize + len(r.Key) + len(r.Value)
}

// EncodeRecord appends the binary form of r to dst.
func EncodeRecord(dst []byte, r Record) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(r.Key)))
	dst = append(dst, r.Key...)
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(r.Value)))
	dst = append(dst, r.Value...)
	return dst
}

// EncodeRecords encodes records back to back.
func EncodeRecords(records []Record) []byte {
	size := 0
	for _, r := range records {
		size += r.Size()
	}
	buf := make([]byte, 0, size)
	for _, r := range records {
		buf = EncodeRecord(buf, r)
	}
	return buf
}

// DecodeRecords walks buf record by record and calls fn for each one.
// Record.Value aliases buf and is only valid during the call.
func DecodeRecords(buf []byte, fn func(Record) error) error {
	var offset int
	for offset < len(buf) {
		key, next, err := readField(buf, offset)
		if err != nil {
			return err
		}
		value, next, err := readField(buf, next)
		if err != nil {
			return err
		}
		if err := fn(Record{Key: string(key), Value: value}); err != nil {
			return err
		}
		offset = next
	}
	return nil
}

func readField(buf []byte, offset int) ([]byte, int, error) {
	if len(buf)-offset < lenFieldSize {
		return nil, 0, fmt.Errorf("%w: truncated size at offset %d", ErrCorruptRecord, offset)
	}
	size := int32(binary.BigEndian.Uint32(buf[offset:]))
	offset += lenFieldSize
	if size < 0 {
		return nil, 0, fmt.Errorf("%w: negative size %d at offset %d", ErrCorruptRecord, size, offset-lenFieldSize)
	}
	if int(size) > len(buf)-offset {
		return nil, 0, fmt.Errorf("%w: size %d exceeds remaining %d bytes", ErrCorruptRecord, size, len(buf)-offset)
	}
	return buf[offset : offset+int(size)], offset + int(size), nil
}

// fits reports whether r can be represented with 32-bit signed sizes.
func fits(r Record) bool {
	return len(r.Key) <= math.MaxInt32 && len(r.Value) <= math.MaxInt32
}
