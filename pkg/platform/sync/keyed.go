// Package sync provides fine-grained locking primitives for per-resource
// serialization.
package sync

import (
	"hash/fnv"
	"sync"
)

// KeyedMutex serializes operations on the same key while letting unrelated
// keys proceed independently. Locks are distributed across a fixed set of
// shards by key hash, so memory stays bounded no matter how many keys exist.
//
// Two distinct keys may share a shard and therefore contend; that is a
// throughput concern, never a correctness one.
type KeyedMutex struct {
	shards [64]sync.Mutex
}

// NewKeyedMutex creates a KeyedMutex with 64 shards.
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{}
}

// Lock acquires the lock for the given key's shard.
func (m *KeyedMutex) Lock(key string) {
	m.shards[m.shardFor(key)].Lock()
}

// Unlock releases the lock for the given key's shard.
func (m *KeyedMutex) Unlock(key string) {
	m.shards[m.shardFor(key)].Unlock()
}

func (m *KeyedMutex) shardFor(key string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(len(m.shards)))
}
