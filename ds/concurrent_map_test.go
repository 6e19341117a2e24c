package ds

import (
	"hash/fnv"
	"reflect"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func fnv32(key string) uint32 {
	h := fnv.New32()
	_, _ = h.Write([]byte(key))
	return h.Sum32()
}

func TestMapShard_Get(t *testing.T) {
	type args[K comparable] struct {
		key K
	}
	type testCase[K comparable, V any] struct {
		name      string
		ms        *MapShard[K, V]
		args      args[K]
		valueWant V
		flagWant  bool
	}
	tests := []testCase[string, string]{
		{
			name: "present",
			ms: &MapShard[string, string]{
				simpleMap: map[string]string{
					"tabledb": "test1",
				},
			},
			args:      args[string]{key: "tabledb"},
			valueWant: "test1",
			flagWant:  true,
		},
		{
			name:      "absent",
			ms:        &MapShard[string, string]{simpleMap: make(map[string]string)},
			args:      args[string]{key: "tabledb"},
			valueWant: "",
			flagWant:  false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valueGot, flagGot := tt.ms.Get(tt.args.key)
			if !reflect.DeepEqual(valueGot, tt.valueWant) {
				t.Errorf("Get() valueGot = %v, valueWant %v", valueGot, tt.valueWant)
			}
			if flagGot != tt.flagWant {
				t.Errorf("Get() flagGot = %v, flagWant %v", flagGot, tt.flagWant)
			}
		})
	}
}

func TestMapShard_Remove(t *testing.T) {
	ms := &MapShard[string, int]{simpleMap: map[string]int{"a": 1, "b": 2}}

	ms.Remove("a")
	assert.False(t, ms.Has("a"))
	assert.Equal(t, 1, ms.Len())

	ms.Remove("a")
	assert.Equal(t, 1, ms.Len())
}

func TestMapShard_Range(t *testing.T) {
	ms := &MapShard[string, int]{simpleMap: map[string]int{"a": 1, "b": 2, "c": 3}}

	sum := 0
	ms.Range(func(_ string, v int) bool {
		sum += v
		return true
	})
	assert.Equal(t, 6, sum)

	visited := 0
	ms.Range(func(string, int) bool {
		visited++
		return false
	})
	assert.Equal(t, 1, visited)
}

func TestConcurrentMap_CustomSharding(t *testing.T) {
	// identity sharding over 256 shards: the key itself picks the shard
	cm := NewWithCustomShardingFunction[int, string](256, func(k int) uint32 { return uint32(k) })
	assert.Equal(t, 256, cm.ShardCount())

	for i := 0; i < 256; i++ {
		cm.Set(i, strconv.Itoa(i))
	}
	for i := 0; i < 256; i++ {
		assert.Equal(t, i, cm.ShardIndex(i))
		assert.Equal(t, 1, cm.ShardAt(i).Len())
	}
	assert.Equal(t, 256, cm.Size())
	assert.Equal(t, 0, cm.ShardIndex(256))
}

func TestConcurrentMap_Operations(t *testing.T) {
	cm := NewWithCustomShardingFunction[string, int](0, fnv32)
	assert.Equal(t, DefaultShardCount, cm.ShardCount())

	cm.Set("k1", 1)
	cm.Set("k2", 2)
	assert.True(t, cm.Has("k1"))
	v, ok := cm.Get("k2")
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	cm.Remove("k1")
	assert.False(t, cm.Has("k1"))

	assert.Equal(t, 1, cm.Size())
	assert.Equal(t, []string{"k2"}, cm.Keys())
}

func TestConcurrentMap_ConcurrentAccess(t *testing.T) {
	cm := NewWithCustomShardingFunction[string, int](64, fnv32)
	wg := sync.WaitGroup{}
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				key := strconv.Itoa(g*1000 + i)
				cm.Set(key, i)
				_, _ = cm.Get(key)
			}
		}(g)
	}
	wg.Wait()

	keys := cm.Keys()
	assert.Len(t, keys, 4000)
	sort.Strings(keys)
	assert.Equal(t, "0", keys[0])
}
