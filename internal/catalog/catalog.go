package catalog

import (
	"sync"

	"go.uber.org/zap"
)

// Catalog holds every loaded pool. Pools are immutable values behind
// pointers: readers take the pointer under the read lock and then use it
// without locking. Load, Update and Clear swap pointers under the write lock.
type Catalog struct {
	mu        sync.RWMutex
	pools     map[string]*Pool
	order     []string
	defaultID string
	logger    *zap.Logger
}

// New creates an empty catalog.
func New(logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{
		pools:  make(map[string]*Pool),
		logger: logger.Named("catalog"),
	}
}

// Load validates every pool of doc and then upserts them all, or none.
// The first loaded pool becomes the default when none is set yet.
func (c *Catalog) Load(doc Document) (int, error) {
	if err := ValidateDocument(doc); err != nil {
		c.logger.Warn("catalog load rejected", zap.Error(err))
		return 0, err
	}
	built := make([]*Pool, len(doc.Pools))
	for i, p := range doc.Pools {
		built[i] = NewPool(p)
	}

	c.mu.Lock()
	for _, p := range built {
		c.putLocked(p)
	}
	if c.defaultID == "" && len(c.order) > 0 {
		c.defaultID = c.order[0]
	}
	total := len(c.order)
	c.mu.Unlock()

	c.logger.Info("catalog loaded", zap.Int("pools", len(built)), zap.Int("total", total))
	return len(built), nil
}

// Update validates p and adds it or replaces the pool with the same id.
func (c *Catalog) Update(p Pool) error {
	if err := ValidatePool(p); err != nil {
		return err
	}
	built := NewPool(p)

	c.mu.Lock()
	c.putLocked(built)
	if c.defaultID == "" {
		c.defaultID = built.PoolID
	}
	c.mu.Unlock()

	c.logger.Info("pool updated", zap.String("pool_id", built.PoolID), zap.Int("cards", len(built.Cards)))
	return nil
}

func (c *Catalog) putLocked(p *Pool) {
	if _, ok := c.pools[p.PoolID]; !ok {
		c.order = append(c.order, p.PoolID)
	}
	c.pools[p.PoolID] = p
}

// Clear drops every pool and unsets the default.
func (c *Catalog) Clear() {
	c.mu.Lock()
	c.pools = make(map[string]*Pool)
	c.order = nil
	c.defaultID = ""
	c.mu.Unlock()
	c.logger.Info("catalog cleared")
}

// Pool returns the pool with the given id.
func (c *Catalog) Pool(id string) (*Pool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pools[id]
	return p, ok
}

// Pools returns every pool in load order.
func (c *Catalog) Pools() []*Pool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Pool, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.pools[id])
	}
	return out
}

// DefaultPoolID returns the default pool id, "" when nothing is loaded.
func (c *Catalog) DefaultPoolID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaultID
}

// DefaultPool returns the default pool.
func (c *Catalog) DefaultPool() (*Pool, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	p, ok := c.pools[c.defaultID]
	return p, ok
}
