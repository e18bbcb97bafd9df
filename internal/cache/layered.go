package cache

import "time"

// Layered checks memory before disk and promotes disk hits
type Layered struct {
	memory Cache
	disk   Cache
}

// NewLayered creates a new Layered cache
func NewLayered(memory, disk Cache) *Layered {
	return &Layered{memory: memory, disk: disk}
}

// Get retrieves a value from the cache (checks memory first, then disk)
func (c *Layered) Get(key string) ([]byte, bool) {
	if val, found := c.memory.Get(key); found {
		return val, true
	}

	if val, found := c.disk.Get(key); found {
		// Promote to memory cache
		_ = c.memory.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both caches
func (c *Layered) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.memory.Set(key, value, ttl); err != nil {
		return err
	}
	return c.disk.Set(key, value, ttl)
}

// Delete removes a value from both caches
func (c *Layered) Delete(key string) error {
	_ = c.memory.Delete(key)
	return c.disk.Delete(key)
}

// Clear removes all values from both caches
func (c *Layered) Clear() error {
	_ = c.memory.Clear()
	return c.disk.Clear()
}
