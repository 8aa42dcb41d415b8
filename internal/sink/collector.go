package sink

import (
	"context"
	"sync"

	"github.com/ssbc/go-luigi"
)

// Collector keeps every poured value in memory, bounded by limit when
// limit > 0 (oldest values are evicted first).
type Collector struct {
	mu     sync.RWMutex
	limit  int
	values []interface{}
	total  uint64
	closed bool
}

func NewCollector(limit int) *Collector {
	return &Collector{limit: limit}
}

func (c *Collector) Pour(ctx context.Context, v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	c.values = append(c.values, v)
	c.total++
	if c.limit > 0 && len(c.values) > c.limit {
		c.values = append(c.values[:0], c.values[len(c.values)-c.limit:]...)
	}
	return nil
}

func (c *Collector) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

// Values returns a copy of the retained values, oldest first.
func (c *Collector) Values() []interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]interface{}, len(c.values))
	copy(out, c.values)
	return out
}

// Total counts every value ever poured, evicted ones included.
func (c *Collector) Total() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.total
}

// Fanout pours each value into every sink in order and stops at the first
// error.
type Fanout []luigi.Sink

func (f Fanout) Pour(ctx context.Context, v interface{}) error {
	for _, s := range f {
		if err := s.Pour(ctx, v); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and returns the first error.
func (f Fanout) Close() error {
	var first error
	for _, s := range f {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
