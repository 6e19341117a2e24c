package util

import (
	"github.com/spaolacci/murmur3"
)

// Murmur32 returns the 32-bit murmur3 sum of s. Unlike the runtime map hash it
// is stable across processes, so it can decide where data lives on disk.
func Murmur32(s string) uint32 {
	return murmur3.Sum32(StringToByte(s))
}
