package storage

import (
	"context"
	"errors"
	"log"
	"time"

	"summarizer/pkg/cache"
)

// cacheBackend is the subset of *cache.Cache the decorator needs.
type cacheBackend interface {
	Key(parts ...string) string
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, parts ...string) error
}

// CachedStore decorates a Store with a Redis read-through cache for settings
// and URL existence checks.
type CachedStore struct {
	Store
	cache cacheBackend
}

func NewCachedStore(store Store, c *cache.Cache) *CachedStore {
	return newCachedStore(store, c)
}

func newCachedStore(store Store, c cacheBackend) *CachedStore {
	return &CachedStore{Store: store, cache: c}
}

func (c *CachedStore) GetSetting(ctx context.Context, key string) ([]byte, bool, error) {
	cacheKey := c.cache.Key("setting", key)
	if val, err := c.cache.Get(ctx, cacheKey); err == nil {
		return []byte(val), true, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		log.Printf("Warning: cache read failed for %s: %v", cacheKey, err)
	}

	raw, ok, err := c.Store.GetSetting(ctx, key)
	if err != nil || !ok {
		return raw, ok, err
	}
	if err := c.cache.Set(ctx, cacheKey, string(raw), cache.SettingTTL); err != nil {
		log.Printf("Warning: cache write failed for %s: %v", cacheKey, err)
	}
	return raw, true, nil
}

func (c *CachedStore) SaveSetting(ctx context.Context, key string, value any) error {
	if err := c.Store.SaveSetting(ctx, key, value); err != nil {
		return err
	}

	cacheKey := c.cache.Key("setting", key)
	raw, err := encodeSetting(key, value)
	if err != nil {
		log.Printf("Warning: cache write skipped for %s: %v", cacheKey, err)
		c.evict(ctx, cacheKey)
		return nil
	}
	if err := c.cache.Set(ctx, cacheKey, string(raw), cache.SettingTTL); err != nil {
		log.Printf("Warning: cache write failed for %s: %v", cacheKey, err)
		c.evict(ctx, cacheKey)
	}
	return nil
}

// evict drops a cached value that could not be refreshed so reads fall back
// to the store.
func (c *CachedStore) evict(ctx context.Context, cacheKey string) {
	if err := c.cache.Delete(ctx, cacheKey); err != nil {
		log.Printf("Warning: cache delete failed for %s: %v", cacheKey, err)
	}
}

// ExistsByURL caches positive answers only, so a new save is seen immediately.
func (c *CachedStore) ExistsByURL(ctx context.Context, url string) (bool, error) {
	cacheKey := c.cache.Key("url", url)
	if _, err := c.cache.Get(ctx, cacheKey); err == nil {
		return true, nil
	}

	exists, err := c.Store.ExistsByURL(ctx, url)
	if err != nil {
		return false, err
	}
	if exists {
		if err := c.cache.Set(ctx, cacheKey, "1", cache.URLIndexTTL); err != nil {
			log.Printf("Warning: cache write failed for %s: %v", cacheKey, err)
		}
	}
	return exists, nil
}

func (c *CachedStore) SaveItem(ctx context.Context, in NewItem) (*Item, error) {
	item, err := c.Store.SaveItem(ctx, in)
	if err != nil {
		return nil, err
	}
	cacheKey := c.cache.Key("url", item.URL)
	if err := c.cache.Set(ctx, cacheKey, "1", cache.URLIndexTTL); err != nil {
		log.Printf("Warning: cache write failed for %s: %v", cacheKey, err)
	}
	return item, nil
}

func (c *CachedStore) Delete(ctx context.Context, id string) error {
	item, lookupErr := c.Store.GetByID(ctx, id)
	if err := c.Store.Delete(ctx, id); err != nil {
		return err
	}
	if lookupErr == nil {
		c.evict(ctx, c.cache.Key("url", item.URL))
	}
	return nil
}

func (c *CachedStore) ClearAll(ctx context.Context) error {
	if err := c.Store.ClearAll(ctx); err != nil {
		return err
	}
	for _, prefix := range []string{"setting", "url"} {
		if err := c.cache.DeletePrefix(ctx, prefix); err != nil {
			log.Printf("Warning: failed to clear cached %s keys: %v", prefix, err)
		}
	}
	return nil
}
