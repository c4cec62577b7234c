package pipeline

import (
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// Cache holds loaded datasets (keyed by handle) and inferred schemas
// (keyed by dataset fingerprint). Both are derived data, so concurrent
// recomputation is harmless and entries simply expire.
type Cache struct {
	datasets *ttlcache.Cache[string, *dataset.Dataset]
	schemas  *ttlcache.Cache[string, schema.DatasetSchema]
}

// NewCache builds a cache whose entries expire after ttl.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{
		datasets: ttlcache.New(
			ttlcache.WithTTL[string, *dataset.Dataset](ttl),
		),
		schemas: ttlcache.New(
			ttlcache.WithTTL[string, schema.DatasetSchema](ttl),
		),
	}
	go c.datasets.Start()
	go c.schemas.Start()
	return c
}

// Dataset returns the cached dataset for a handle, if present.
func (c *Cache) Dataset(handle string) (*dataset.Dataset, bool) {
	item := c.datasets.Get(handle)
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// PutDataset stores a dataset under its handle.
func (c *Cache) PutDataset(handle string, ds *dataset.Dataset) {
	c.datasets.Set(handle, ds, ttlcache.DefaultTTL)
}

// Schema returns the cached schema for a dataset fingerprint.
func (c *Cache) Schema(fingerprint string) (schema.DatasetSchema, bool) {
	item := c.schemas.Get(fingerprint)
	if item == nil {
		return schema.DatasetSchema{}, false
	}
	return item.Value(), true
}

// PutSchema stores an inferred schema under the dataset fingerprint.
func (c *Cache) PutSchema(fingerprint string, sch schema.DatasetSchema) {
	c.schemas.Set(fingerprint, sch, ttlcache.DefaultTTL)
}

// Stop shuts down the cache janitors.
func (c *Cache) Stop() {
	c.datasets.Stop()
	c.schemas.Stop()
}
