package sync

import (
	"hash/maphash"
	"sync"
)

// DefaultShards is the shard count used when NewShardedMutex is given n <= 0.
const DefaultShards = 32

// ShardedMutex serializes work per key without a global lock. Keys that hash
// to the same shard share a mutex, so unrelated keys may occasionally wait
// on each other but the same key never runs concurrently.
type ShardedMutex struct {
	seed   maphash.Seed
	shards []sync.Mutex
}

// NewShardedMutex creates a ShardedMutex with n shards.
func NewShardedMutex(n int) *ShardedMutex {
	if n <= 0 {
		n = DefaultShards
	}
	return &ShardedMutex{
		seed:   maphash.MakeSeed(),
		shards: make([]sync.Mutex, n),
	}
}

func (m *ShardedMutex) Lock(key string) {
	m.shardFor(key).Lock()
}

func (m *ShardedMutex) Unlock(key string) {
	m.shardFor(key).Unlock()
}

// Do runs fn while holding the lock for key.
func (m *ShardedMutex) Do(key string, fn func() error) error {
	mu := m.shardFor(key)
	mu.Lock()
	defer mu.Unlock()
	return fn()
}

func (m *ShardedMutex) shardFor(key string) *sync.Mutex {
	if key == "" {
		return &m.shards[0]
	}
	return &m.shards[maphash.String(m.seed, key)%uint64(len(m.shards))]
}
