package domain

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// PriceCache holds the latest observation per pool. Entries never expire
// on their own; each scan cycle overwrites them, and a pool that fails to
// refresh keeps serving its last good observation.
type PriceCache struct {
	mu   sync.RWMutex
	data map[common.Address]*PoolObservation
}

// NewPriceCache creates an empty cache.
func NewPriceCache() *PriceCache {
	return &PriceCache{data: make(map[common.Address]*PoolObservation)}
}

// Put stores the latest observation for its pool.
func (c *PriceCache) Put(obs *PoolObservation) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[obs.Pool.Address] = obs
}

// Get returns the latest observation for a pool.
func (c *PriceCache) Get(addr common.Address) (*PoolObservation, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obs, ok := c.data[addr]
	return obs, ok
}

// All returns a snapshot of every cached observation.
func (c *PriceCache) All() []*PoolObservation {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*PoolObservation, 0, len(c.data))
	for _, obs := range c.data {
		out = append(out, obs)
	}
	return out
}

// Len returns the number of cached pools.
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}
