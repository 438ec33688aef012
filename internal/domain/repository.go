package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) (interface{}, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// CatalogSource defines the interface for loading a store's product catalog.
// Load must fail with ErrCatalogUnavailable when the store has no data and
// ErrCatalogMalformed when the data cannot be decoded.
type CatalogSource interface {
	Load(ctx context.Context, storeID string) (Catalog, error)
}

// AliasRepository persists learned product-name replacements per store.
// Keys are case-folded; a later Save for the same name overwrites the
// earlier replacement.
type AliasRepository interface {
	Get(ctx context.Context, storeID, name string) (string, error)
	Save(ctx context.Context, storeID, name, replacement string) error
}
