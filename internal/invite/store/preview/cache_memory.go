package preview

import (
	"context"
	"sync"
	"time"

	"fellowship/internal/invite/models"
)

type entry struct {
	preview   models.Preview
	expiresAt time.Time
}

// InMemoryCache mirrors RedisCache for single-process deployments and tests.
type InMemoryCache struct {
	mu      sync.Mutex
	entries map[string]entry
	maxTTL  time.Duration
	now     func() time.Time
}

func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{entries: make(map[string]entry), maxTTL: MaxTTL, now: time.Now}
}

func (c *InMemoryCache) Get(_ context.Context, code string) (*models.Preview, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[code]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, code)
		return nil, false, nil
	}
	p := e.preview
	return &p, true, nil
}

func (c *InMemoryCache) Set(_ context.Context, code string, p *models.Preview, validFor time.Duration) error {
	ttl := min(validFor, c.maxTTL)
	if ttl <= 0 {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[code] = entry{preview: *p, expiresAt: c.now().Add(ttl)}
	return nil
}

func (c *InMemoryCache) Invalidate(_ context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, code)
	return nil
}
