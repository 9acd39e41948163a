package interp

import (
	"encoding/binary"
	"math"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/andrewbuckingham/chargeplan-sub000/pkg/types"
)

// Cache memoizes functions by their samples and strategy so that the same
// dataset recurring across a search is only fitted once. It holds at most
// size sample hashes and evicts the least recently used first. A nil *Cache
// builds every function without caching.
type Cache struct {
	// buckets are never modified once stored so readers don't need mu
	lru *lru.Cache[uint64, []*entry]
	// mu serializes writers so concurrent misses don't drop each other's
	// entries from a shared bucket
	mu sync.Mutex

	hits   atomic.Int64
	misses atomic.Int64
}

type entry struct {
	strategy Strategy
	samples  []types.Sample
	fn       Function
}

// NewCache creates a Cache holding at most size sample hashes.
func NewCache(size int) *Cache {
	l, err := lru.New[uint64, []*entry](max(size, 1))
	if err != nil {
		// only returned for a non-positive size
		panic(err)
	}
	return &Cache{lru: l}
}

// Profile returns the function for p using the strategy for its kind.
func (c *Cache) Profile(p types.Profile) (Function, error) {
	return c.Get(StrategyFor(p.Kind), p.Samples)
}

// Get returns the cached function for samples or builds and caches it.
// Concurrent misses on the same samples may both build the function but only
// the first one is kept.
func (c *Cache) Get(strategy Strategy, samples []types.Sample) (Function, error) {
	if c == nil {
		return New(strategy, samples)
	}
	key := cacheKey(strategy, samples)

	bucket, _ := c.lru.Get(key)
	if e := find(bucket, strategy, samples); e != nil {
		c.hits.Add(1)
		return e.fn, nil
	}
	c.misses.Add(1)

	fn, err := New(strategy, samples)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	bucket, _ = c.lru.Get(key)
	if e := find(bucket, strategy, samples); e != nil {
		return e.fn, nil
	}
	c.lru.Add(key, append(slices.Clip(bucket), &entry{
		strategy: strategy,
		samples:  slices.Clone(samples),
		fn:       fn,
	}))
	return fn, nil
}

// Len returns the number of cached sample hashes.
func (c *Cache) Len() int {
	return c.lru.Len()
}

// Stats returns the number of hits and misses so far.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// find compares samples exactly so a hash collision can never return the
// wrong function.
func find(bucket []*entry, strategy Strategy, samples []types.Sample) *entry {
	for _, e := range bucket {
		if e.strategy == strategy && slices.EqualFunc(e.samples, samples, sameSample) {
			return e
		}
	}
	return nil
}

func sameSample(a, b types.Sample) bool {
	return a.TS.Equal(b.TS) && math.Float64bits(a.Value) == math.Float64bits(b.Value)
}

func cacheKey(strategy Strategy, samples []types.Sample) uint64 {
	d := xxhash.New()
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], uint64(strategy))
	d.Write(buf[:8])
	for _, s := range samples {
		binary.LittleEndian.PutUint64(buf[:8], uint64(s.TS.UnixNano()))
		binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(s.Value))
		d.Write(buf[:])
	}
	return d.Sum64()
}
