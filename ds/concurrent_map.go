package ds

import (
	"sync"
)

const (
	DefaultShardCount = 32
)

type MapShard[K comparable, V any] struct {
	simpleMap    map[K]V
	sync.RWMutex // r&w lock for every shard
}

// Get gets the value under a given key.
func (ms *MapShard[K, V]) Get(key K) (V, bool) {
	val, ok := ms.simpleMap[key]
	return val, ok
}

// Set sets the key and value under a specific MapShard.
func (ms *MapShard[K, V]) Set(key K, value V) {
	ms.simpleMap[key] = value
}

// Has returns if the map contains a specific key.
func (ms *MapShard[K, V]) Has(key K) bool {
	_, ok := ms.simpleMap[key]
	return ok
}

// Remove deletes an element from the map.
func (ms *MapShard[K, V]) Remove(key K) {
	delete(ms.simpleMap, key)
}

// Len returns the number of keys held by the shard.
func (ms *MapShard[K, V]) Len() int {
	return len(ms.simpleMap)
}

// Range calls fn for every entry until fn returns false.
func (ms *MapShard[K, V]) Range(fn func(key K, value V) bool) {
	for k, v := range ms.simpleMap {
		if !fn(k, v) {
			return
		}
	}
}

// ConcurrentMap is a map split into independently locked shards. The methods
// on ConcurrentMap lock the shard they touch; the methods on MapShard expect
// the caller to hold the lock.
type ConcurrentMap[K comparable, V any] struct {
	shards     []*MapShard[K, V]
	sharding   func(key K) uint32
	shardCount int
}

// NewWithCustomShardingFunction creates a new concurrent map whose shard of a
// key is sharding(key) % mapShardCount. Any positive shard count is kept as
// is, so callers can line shards up with their own partitioning.
func NewWithCustomShardingFunction[K comparable, V any](mapShardCount int, sharding func(key K) uint32) *ConcurrentMap[K, V] {
	if mapShardCount <= 0 {
		mapShardCount = DefaultShardCount
	}
	return newConcurrentMap[K, V](mapShardCount, sharding)
}

func newConcurrentMap[K comparable, V any](mapShardCount int, sharding func(key K) uint32) *ConcurrentMap[K, V] {
	cm := &ConcurrentMap[K, V]{
		sharding:   sharding,
		shards:     make([]*MapShard[K, V], mapShardCount),
		shardCount: mapShardCount,
	}
	for i := 0; i < mapShardCount; i++ {
		cm.shards[i] = &MapShard[K, V]{simpleMap: make(map[K]V)}
	}
	return cm
}

// ShardCount returns the number of shards.
func (cm *ConcurrentMap[K, V]) ShardCount() int {
	return cm.shardCount
}

// ShardIndex returns the index of the shard holding key.
func (cm *ConcurrentMap[K, V]) ShardIndex(key K) int {
	return int(uint(cm.sharding(key)) % uint(cm.shardCount))
}

// GetShard returns the MapShard under the given key.
func (cm *ConcurrentMap[K, V]) GetShard(key K) *MapShard[K, V] {
	return cm.shards[cm.ShardIndex(key)]
}

// ShardAt returns the i-th shard without locking it.
func (cm *ConcurrentMap[K, V]) ShardAt(i int) *MapShard[K, V] {
	return cm.shards[i]
}

// GetShardByReading returns the MapShard under the given key after RLocking.
// Remember to unlock the shard!
func (cm *ConcurrentMap[K, V]) GetShardByReading(key K) *MapShard[K, V] {
	shard := cm.GetShard(key)
	shard.RLock()
	// remember to RUnlock
	return shard
}

// GetShardByWriting returns the MapShard under the given key after Locking.
// Remember to unlock the shard!
func (cm *ConcurrentMap[K, V]) GetShardByWriting(key K) *MapShard[K, V] {
	shard := cm.GetShard(key)
	shard.Lock()
	// remember to Unlock
	return shard
}

// Get gets the value under a given key.
func (cm *ConcurrentMap[K, V]) Get(key K) (V, bool) {
	shard := cm.GetShardByReading(key)
	defer shard.RUnlock()
	return shard.Get(key)
}

// Set sets the key and value under a specific MapShard.
func (cm *ConcurrentMap[K, V]) Set(key K, value V) {
	shard := cm.GetShardByWriting(key)
	defer shard.Unlock()
	shard.Set(key, value)
}

// Has returns if the map contains a specific key.
func (cm *ConcurrentMap[K, V]) Has(key K) bool {
	shard := cm.GetShardByReading(key)
	defer shard.RUnlock()
	return shard.Has(key)
}

// Remove deletes an element from the map.
func (cm *ConcurrentMap[K, V]) Remove(key K) {
	shard := cm.GetShardByWriting(key)
	defer shard.Unlock()
	shard.Remove(key)
}

// Size returns the number of keys
func (cm *ConcurrentMap[K, V]) Size() int {
	cnt := 0
	for _, m := range cm.shards {
		m.RLock()
		cnt += len(m.simpleMap)
		m.RUnlock()
	}
	return cnt
}

// Keys returns a snapshot of every key, one shard at a time.
func (cm *ConcurrentMap[K, V]) Keys() []K {
	keys := make([]K, 0, cm.Size())
	for _, m := range cm.shards {
		m.RLock()
		for k := range m.simpleMap {
			keys = append(keys, k)
		}
		m.RUnlock()
	}
	return keys
}
