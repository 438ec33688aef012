package catalog

import (
	"strings"

	"github.com/orderdesk/backend/internal/domain"
)

// mapProduct converts a catalog API product to our domain CatalogEntry model.
// The first name is the primary display form; the optional second and third
// names become alternates. Blank names are dropped.
func mapProduct(p rawProduct) domain.CatalogEntry {
	id := p.ID
	if id == "" {
		id = p.ProductID
	}

	entry := domain.CatalogEntry{
		ID:          id,
		PrimaryName: strings.TrimSpace(p.FirstName),
	}
	for _, alt := range []string{p.SecondName, p.ThirdName} {
		if alt = strings.TrimSpace(alt); alt != "" {
			entry.AltNames = append(entry.AltNames, alt)
		}
	}

	return entry
}
