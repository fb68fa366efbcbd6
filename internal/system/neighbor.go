package system

import (
	"net"
	"sync"
	"time"
)

type neighborEntry struct {
	mac       net.HardwareAddr
	expiresAt time.Time
}

func (e neighborEntry) isExpired(now time.Time) bool {
	if e.expiresAt.IsZero() {
		// zero time means no expiration.
		return false
	}
	return now.After(e.expiresAt)
}

// NeighborCache remembers resolved hardware addresses for a limited time.
// A zero ttl keeps entries forever.
type NeighborCache struct {
	mu    sync.RWMutex
	items map[string]neighborEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewNeighborCache(ttl time.Duration) *NeighborCache {
	return &NeighborCache{
		items: make(map[string]neighborEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (c *NeighborCache) Get(ip net.IP) (net.HardwareAddr, bool) {
	key := ip.String()

	c.mu.RLock()
	entry, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if entry.isExpired(c.now()) {
		c.mu.Lock()
		// re-check under the write lock; Set may have refreshed it
		if cur, ok := c.items[key]; ok && cur.isExpired(c.now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	return entry.mac, true
}

func (c *NeighborCache) Set(ip net.IP, mac net.HardwareAddr) {
	entry := neighborEntry{mac: mac}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.items[ip.String()] = entry
	c.mu.Unlock()
}

func (c *NeighborCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
