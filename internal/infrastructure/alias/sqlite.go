package alias

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/orderdesk/backend/internal/domain"
)

// schema holds one learned replacement per (store, case-folded name).
// An upsert on the same key overwrites the earlier replacement, matching the
// last-writer-wins behavior of the original per-store mapping files.
const schema = `
CREATE TABLE IF NOT EXISTS product_aliases (
	store_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	replacement TEXT NOT NULL,
	updated_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (store_id, name)
);`

// Store persists learned product-name replacements in SQLite. When an
// operator confirms that searching a replacement name found the product the
// customer meant, the mapping is saved here and applied to future orders
// before matching runs.
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed initializes) the alias database at path.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open alias db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init alias schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Get returns the saved replacement for a case-folded product name.
func (s *Store) Get(ctx context.Context, storeID, name string) (string, error) {
	var replacement string
	err := s.db.QueryRowContext(ctx,
		`SELECT replacement FROM product_aliases WHERE store_id = ? AND name = ?`,
		storeID, fold(name),
	).Scan(&replacement)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domain.ErrAliasNotFound
	}
	if err != nil {
		return "", fmt.Errorf("alias lookup: %w", err)
	}
	return replacement, nil
}

// Save records a name→replacement mapping, overwriting any earlier one.
func (s *Store) Save(ctx context.Context, storeID, name, replacement string) error {
	name = fold(name)
	replacement = fold(replacement)
	if storeID == "" || name == "" || replacement == "" {
		return domain.ErrInvalidRequest
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO product_aliases (store_id, name, replacement, updated_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (store_id, name) DO UPDATE SET
		   replacement = excluded.replacement,
		   updated_at  = excluded.updated_at`,
		storeID, name, replacement, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("alias save: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
