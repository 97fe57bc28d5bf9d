package segcache

// Evict sweeps the store, removing every entry whose TTL has elapsed, then
// reclaims any segment left entirely empty by the sweep. It is safe to call
// directly (e.g. from a test) and is what the background janitor calls on
// its own schedule when WithJanitorInterval is set.
//
// The sweep walks a snapshot of the recency list from head to tail and does
// not stop at the first unexpired node: every live node is checked.
func (c *Cache[K, V]) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.logContractPanic()
	return c.evict()
}

func (c *Cache[K, V]) evict() int {
	if c.ttl <= 0 {
		return 0
	}

	removed := 0
	for _, h := range c.store.Handles() {
		n := c.store.Deref(h)
		if !c.expired(n) {
			continue
		}
		key := n.Key
		c.store.Unlink(h)
		c.store.Free(h)
		c.index.delete(key)
		c.stats.expiries.Inc()
		removed++
	}
	if removed > 0 {
		freed := c.store.DropEmptySegments()
		if freed > 0 {
			c.stats.shrinks.Add(float64(freed / c.store.Unit()))
		}
		c.refreshGauges()
	}
	return removed
}
