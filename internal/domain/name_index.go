package domain

import (
	"sort"
	"strings"
)

// NameKey is one registered catalog name in index insertion order.
type NameKey struct {
	Name      string // case-folded lookup key
	ProductID string
}

// NameCollision records a case-folded name claimed by more than one product.
// The index keeps the last writer; the earlier owner is reported here.
type NameCollision struct {
	Name      string `json:"name"`
	KeptID    string `json:"keptId"`
	DroppedID string `json:"droppedId"`
}

// NameIndex is an immutable name→product-ID lookup derived from one catalog
// snapshot. It is built once and never mutated afterward, so it may be shared
// across concurrent requests; a catalog refresh builds a fresh index and
// publishes it atomically instead of touching this one.
type NameIndex struct {
	byName     map[string]string
	keys       []NameKey
	collisions []NameCollision
}

// BuildNameIndex registers the primary name and every non-empty alternate
// name of each catalog entry, case-folded, mapped to the entry's ID.
// Entries are visited in sorted-ID order so the index is deterministic;
// within that order a colliding name is kept by the last writer.
func BuildNameIndex(catalog Catalog) *NameIndex {
	idx := &NameIndex{
		byName: make(map[string]string, len(catalog)*2),
	}

	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		entry := catalog[id]
		idx.register(entry.PrimaryName, id)
		for _, alt := range entry.AltNames {
			idx.register(alt, id)
		}
	}

	return idx
}

func (idx *NameIndex) register(name, productID string) {
	folded := strings.ToLower(strings.TrimSpace(name))
	if folded == "" {
		return
	}

	if prev, exists := idx.byName[folded]; exists {
		if prev == productID {
			return
		}
		idx.collisions = append(idx.collisions, NameCollision{
			Name:      folded,
			KeptID:    productID,
			DroppedID: prev,
		})
		idx.byName[folded] = productID
		// Re-point the existing key so scanning stages agree with lookups
		for i := range idx.keys {
			if idx.keys[i].Name == folded {
				idx.keys[i].ProductID = productID
			}
		}
		return
	}

	idx.byName[folded] = productID
	idx.keys = append(idx.keys, NameKey{Name: folded, ProductID: productID})
}

// Lookup returns the product ID registered for a case-folded name.
func (idx *NameIndex) Lookup(foldedName string) (string, bool) {
	id, ok := idx.byName[foldedName]
	return id, ok
}

// Keys returns the registered names in insertion order. Scanning stages
// iterate this slice so tie-breaks are first-seen, not map order.
func (idx *NameIndex) Keys() []NameKey {
	return idx.keys
}

// Collisions returns the names that were silently overwritten during the
// build, for diagnostics.
func (idx *NameIndex) Collisions() []NameCollision {
	return idx.collisions
}

// Size returns the number of registered names.
func (idx *NameIndex) Size() int {
	return len(idx.byName)
}
