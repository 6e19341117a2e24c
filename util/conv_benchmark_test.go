package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// go test -bench='Conv$' -count=3 -benchmem

var key = "shard_bucket_key_0123456789_shard_bucket_key_0123456789"

func TestConvRoundTrip(t *testing.T) {
	assert.Equal(t, key, ByteToString(StringToByte(key)))
	assert.Equal(t, "", ByteToString(nil))
	assert.Nil(t, StringToByte(""))
}

func BenchmarkStringToByteStdConv(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = []byte(key)
	}
}

func BenchmarkStringToByteFastConv(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = StringToByte(key)
	}
}
