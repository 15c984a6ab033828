package cache

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DataCache is a loader-backed in-memory cache with singleflight
// deduplication of concurrent loads. Entries never expire; it is meant for
// metadata assumed stable for the whole session, like ArcGIS layer info.
type DataCache[K comparable, V any] struct {
	sync.RWMutex
	items      map[K]V
	loaderLock *singleflight.Group
	loader     func(K) (V, error)
}

func NewDataCache[K comparable, V any](loader func(K) (V, error)) *DataCache[K, V] {
	return &DataCache[K, V]{
		items:      make(map[K]V),
		loaderLock: &singleflight.Group{},
		loader:     loader,
	}
}

func (c *DataCache[K, V]) get(key K) (V, bool) {
	c.RLock()
	defer c.RUnlock()
	item, ok := c.items[key]
	return item, ok
}

// Get returns the cached value, loading it on first access. Load failures
// are not cached; the next Get retries.
func (c *DataCache[K, V]) Get(key K) (V, error) {
	if item, ok := c.get(key); ok {
		return item, nil
	}
	strKey := fmt.Sprintf("%v", key)
	res, err, _ := c.loaderLock.Do(strKey, func() (interface{}, error) {
		value, err := c.loader(key)
		if err != nil {
			return value, err
		}
		c.Lock()
		defer c.Unlock()
		c.items[key] = value
		return value, nil
	})
	var v V
	if err != nil {
		return v, err
	}
	return res.(V), nil
}

func (c *DataCache[K, V]) Remove(key K) {
	c.Lock()
	defer c.Unlock()
	delete(c.items, key)
}
