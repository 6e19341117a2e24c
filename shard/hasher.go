package shard

import (
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"tabledb/util"
)

// Hasher names of the supported key hashes.
const (
	HashString  = "strhash"
	HashMurmur3 = "murmur3"
)

// Hasher turns a key into the signed 32-bit hash fed to Locate.
type Hasher interface {
	Hash(key string) int32
}

// StringHasher is the 31-multiplier string hash computed over UTF-16 code
// units with int32 wrap-around. Tables written by earlier versions of the
// store use this layout, so it is the default.
type StringHasher struct{}

func (StringHasher) Hash(key string) int32 {
	var h int32
	for len(key) > 0 {
		r, size := utf8.DecodeRuneInString(key)
		key = key[size:]
		if r >= 0x10000 {
			hi, lo := utf16.EncodeRune(r)
			h = 31*h + int32(hi)
			h = 31*h + int32(lo)
			continue
		}
		h = 31*h + int32(r)
	}
	return h
}

// Murmur3Hasher spreads keys with murmur3; the layout is not compatible with
// StringHasher.
type Murmur3Hasher struct{}

func (Murmur3Hasher) Hash(key string) int32 {
	return int32(util.Murmur32(key))
}

// NewHasher returns the hasher registered under kind. An empty kind selects
// the default string hash.
func NewHasher(kind string) (Hasher, error) {
	switch kind {
	case "", HashString:
		return StringHasher{}, nil
	case HashMurmur3:
		return Murmur3Hasher{}, nil
	default:
		return nil, fmt.Errorf("shard: unknown hasher %q", kind)
	}
}
