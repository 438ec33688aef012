package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/orderdesk/backend/internal/domain"
)

// FileSource loads store catalogs from JSON files on disk, one file per
// store named <storeID>.json. It backs offline and development deployments
// where the remote catalog API is unreachable.
type FileSource struct {
	dir string
}

// NewFileSource creates a file-backed catalog source rooted at dir.
func NewFileSource(dir string) *FileSource {
	return &FileSource{dir: dir}
}

// Load reads and decodes a store's catalog file. A missing file is
// ErrCatalogUnavailable; undecodable content is ErrCatalogMalformed.
func (f *FileSource) Load(_ context.Context, storeID string) (domain.Catalog, error) {
	if storeID == "" {
		return nil, domain.ErrInvalidRequest
	}

	path := filepath.Join(f.dir, storeID+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: store %s", domain.ErrCatalogUnavailable, storeID)
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}

	catalog, err := decodeCatalogFile(data)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("%w: store %s", domain.ErrCatalogUnavailable, storeID)
	}
	return catalog, nil
}

// decodeCatalogFile accepts both file layouts in use: a map keyed by product
// ID and a bare product list.
func decodeCatalogFile(data []byte) (domain.Catalog, error) {
	catalog := make(domain.Catalog)

	var byID map[string]rawProduct
	if err := json.Unmarshal(data, &byID); err == nil {
		for id, p := range byID {
			if p.ID == "" && p.ProductID == "" {
				p.ID = id
			}
			entry := mapProduct(p)
			if entry.ID != "" {
				catalog[entry.ID] = entry
			}
		}
		return catalog, nil
	}

	var list []rawProduct
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogMalformed, err)
	}
	for _, p := range list {
		entry := mapProduct(p)
		if entry.ID != "" {
			catalog[entry.ID] = entry
		}
	}
	return catalog, nil
}

// Watch monitors the catalog directory and refreshes a store's snapshot when
// its file is rewritten. Editors fire bursts of events per save, so writes
// are debounced per store before triggering a reload.
func (f *FileSource) Watch(ctx context.Context, store *Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(f.dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()

		const debounce = 500 * time.Millisecond
		pending := make(map[string]*time.Timer)

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				if filepath.Ext(event.Name) != ".json" {
					continue
				}

				storeID := strings.TrimSuffix(filepath.Base(event.Name), ".json")
				if timer, exists := pending[storeID]; exists {
					timer.Stop()
				}
				pending[storeID] = time.AfterFunc(debounce, func() {
					if _, _, err := store.Refresh(ctx, storeID); err != nil {
						log.Printf("[CATALOG] Reload failed for store %s: %v", storeID, err)
						return
					}
					log.Printf("[CATALOG] Reloaded store %s after file change", storeID)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[CATALOG] Watcher error: %v", err)
			}
		}
	}()

	return nil
}
