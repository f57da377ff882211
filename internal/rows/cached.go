package rows

import (
	"context"

	"golang.org/x/sync/singleflight"

	"varlik/internal/cache"
)

// Cached wraps a TableStore with a short-TTL read cache. Concurrent reads of
// the same table are collapsed through singleflight so a burst of dashboard
// sessions costs one collaborator call. Every successful write invalidates
// the table's cache entry synchronously; a stale read after a write would be
// a correctness bug for the upsert path, not a latency trade-off.
type Cached struct {
	inner TableStore
	cache *cache.TTL[Table]
	group singleflight.Group
}

// NewCached decorates inner with the given read cache.
func NewCached(inner TableStore, readCache *cache.TTL[Table]) *Cached {
	return &Cached{inner: inner, cache: readCache}
}

var _ TableStore = (*Cached)(nil)

func (c *Cached) AppendRow(ctx context.Context, table string, values []string) error {
	if err := c.inner.AppendRow(ctx, table, values); err != nil {
		return err
	}
	c.cache.Invalidate(table)
	return nil
}

func (c *Cached) UpdateRow(ctx context.Context, table string, rowIndex int, values []string) error {
	if err := c.inner.UpdateRow(ctx, table, rowIndex, values); err != nil {
		return err
	}
	c.cache.Invalidate(table)
	return nil
}

func (c *Cached) ReadAllRows(ctx context.Context, table string) (Table, error) {
	if tbl, ok := c.cache.Get(table); ok {
		return tbl, nil
	}
	v, err, _ := c.group.Do(table, func() (any, error) {
		tbl, err := c.inner.ReadAllRows(ctx, table)
		if err != nil {
			return Table{}, err
		}
		c.cache.Set(table, tbl)
		return tbl, nil
	})
	if err != nil {
		return Table{}, err
	}
	return v.(Table), nil
}
