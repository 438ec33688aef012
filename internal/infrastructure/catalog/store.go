package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/orderdesk/backend/internal/domain"
)

// storeSnapshot pairs one immutable catalog with its fully built name index.
type storeSnapshot struct {
	catalog  domain.Catalog
	index    *domain.NameIndex
	loadedAt time.Time
}

// Store keeps one published snapshot per store and swaps it atomically on
// refresh. Readers always see either the old complete snapshot or the new
// one, never a partially populated index; no lock is held on the read path.
type Store struct {
	source    domain.CatalogSource
	ttl       time.Duration
	snapshots sync.Map // storeID -> *storeSnapshot

	refreshMu sync.Mutex // serializes refreshes so a slow store loads once
	debug     bool
}

// NewStore creates a snapshot store over a catalog source. A zero TTL means
// snapshots never expire and are only replaced by explicit Refresh calls.
func NewStore(source domain.CatalogSource, ttl time.Duration) *Store {
	return &Store{
		source: source,
		ttl:    ttl,
	}
}

// SetDebug toggles refresh logging.
func (s *Store) SetDebug(debug bool) {
	s.debug = debug
}

// Snapshot returns the current catalog and index for a store, loading it on
// first use or after the TTL lapses.
func (s *Store) Snapshot(ctx context.Context, storeID string) (domain.Catalog, *domain.NameIndex, error) {
	if snap, ok := s.current(storeID); ok {
		return snap.catalog, snap.index, nil
	}

	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	// Another caller may have refreshed while we waited on the lock
	if snap, ok := s.current(storeID); ok {
		return snap.catalog, snap.index, nil
	}
	return s.load(ctx, storeID)
}

// Refresh unconditionally reloads the store's catalog and publishes a fresh
// snapshot. A failed load leaves the previous snapshot in place so
// concurrent readers are unaffected.
func (s *Store) Refresh(ctx context.Context, storeID string) (domain.Catalog, *domain.NameIndex, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	return s.load(ctx, storeID)
}

// load fetches the catalog, builds the index, and publishes the pair as one
// atomic swap. Callers hold refreshMu.
func (s *Store) load(ctx context.Context, storeID string) (domain.Catalog, *domain.NameIndex, error) {
	catalog, err := s.source.Load(ctx, storeID)
	if err != nil {
		return nil, nil, err
	}

	snap := &storeSnapshot{
		catalog:  catalog,
		index:    domain.BuildNameIndex(catalog),
		loadedAt: time.Now(),
	}
	s.snapshots.Store(storeID, snap)

	if s.debug {
		log.Printf("[CATALOG] Snapshot published for store %s: %d products, %d names, %d collisions",
			storeID, len(catalog), snap.index.Size(), len(snap.index.Collisions()))
	}
	return snap.catalog, snap.index, nil
}

// Invalidate drops a store's snapshot so the next Snapshot call reloads it.
func (s *Store) Invalidate(storeID string) {
	s.snapshots.Delete(storeID)
}

func (s *Store) current(storeID string) (*storeSnapshot, bool) {
	value, ok := s.snapshots.Load(storeID)
	if !ok {
		return nil, false
	}
	snap := value.(*storeSnapshot)
	if s.ttl > 0 && time.Since(snap.loadedAt) > s.ttl {
		return nil, false
	}
	return snap, true
}
