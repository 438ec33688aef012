package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/orderdesk/backend/internal/domain"
)

// SnapshotProvider supplies the current catalog snapshot and its derived
// name index for a store. Implementations must publish snapshots atomically
// so a refresh never exposes a half-built index.
type SnapshotProvider interface {
	Snapshot(ctx context.Context, storeID string) (domain.Catalog, *domain.NameIndex, error)
}

// OrderServiceConfig holds configuration for the order service
type OrderServiceConfig struct {
	CacheTTL           time.Duration
	EnableDebugLogging bool
}

// OrderService turns a raw chat message into a structured order: segment the
// message, peel quantity and note off each line, resolve the residual phrase
// against the catalog. Per-line misses never abort the request; whatever
// resolved is returned together with a full diagnostic trace.
type OrderService struct {
	catalogs           SnapshotProvider
	cache              domain.CacheRepository
	aliases            domain.AliasRepository
	parser             *LineParser
	matcher            *ProductMatcher
	cacheTTL           time.Duration
	enableDebugLogging bool
}

// NewOrderService creates an order service with its dependencies. The cache
// and alias repositories are optional; nil disables those paths.
func NewOrderService(
	catalogs SnapshotProvider,
	cache domain.CacheRepository,
	aliases domain.AliasRepository,
	parser *LineParser,
	matcher *ProductMatcher,
	config OrderServiceConfig,
) *OrderService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 24 * time.Hour
	}

	return &OrderService{
		catalogs:           catalogs,
		cache:              cache,
		aliases:            aliases,
		parser:             parser,
		matcher:            matcher,
		cacheTTL:           cacheTTL,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// ProcessOrder extracts a structured order from a free-form message.
// Catalog-level failures set the result's Error field and return the error;
// unmatched lines only show up in the trace with a nil product ID.
func (s *OrderService) ProcessOrder(ctx context.Context, message, storeID string) (*domain.OrderResult, error) {
	result := &domain.OrderResult{
		OrderItems: []domain.OrderLine{},
		Debug: &domain.OrderTrace{
			TraceID: uuid.NewString(),
			StoreID: storeID,
		},
	}

	if strings.TrimSpace(message) == "" {
		result.Error = domain.ErrInvalidRequest.Error()
		return result, domain.ErrInvalidRequest
	}

	catalog, index, err := s.catalogs.Snapshot(ctx, storeID)
	if err != nil {
		result.Error = err.Error()
		return result, err
	}
	result.Debug.Collisions = index.Collisions()

	for _, rawLine := range s.parser.SplitLines(message) {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		draft := s.parser.Parse(rawLine)
		trace := domain.LineTrace{
			RawText:       draft.RawText,
			Quantity:      draft.Quantity,
			Note:          draft.Note,
			ProductPhrase: draft.ProductPhrase,
		}

		productID, productName, stage, ok := s.resolve(ctx, storeID, draft.ProductPhrase, index, catalog)
		if ok {
			trace.MatchedProductID = &productID
			trace.MatchedName = productName
			trace.MatchStage = stage
			result.OrderItems = append(result.OrderItems, domain.OrderLine{
				ProductName: productName,
				ProductID:   productID,
				Quantity:    draft.Quantity,
				Note:        draft.Note,
			})
		} else if s.enableDebugLogging {
			log.Printf("[ORDER] Unmatched line: %q (phrase: %q)", rawLine, draft.ProductPhrase)
		}

		result.Debug.Lines = append(result.Debug.Lines, trace)
	}

	if s.enableDebugLogging {
		log.Printf("[ORDER] trace=%s store=%s lines=%d matched=%d",
			result.Debug.TraceID, storeID, len(result.Debug.Lines), len(result.OrderItems))
	}

	return result, nil
}

// resolve matches one phrase, consulting the learned alias store and the
// match-result cache around the matcher itself.
func (s *OrderService) resolve(ctx context.Context, storeID, phrase string, index *domain.NameIndex, catalog domain.Catalog) (string, string, string, bool) {
	folded := strings.ToLower(strings.TrimSpace(phrase))
	if folded == "" {
		return "", "", "", false
	}

	// A saved alias rewrites the phrase before any matching stage runs
	if s.aliases != nil {
		if replacement, err := s.aliases.Get(ctx, storeID, folded); err == nil && replacement != "" {
			if s.enableDebugLogging {
				log.Printf("[ORDER] Alias %q -> %q", folded, replacement)
			}
			folded = replacement
		}
	}

	cacheKey := s.matchCacheKey(storeID, folded)
	if s.cache != nil {
		if id, name, stage, ok := s.getCachedMatch(ctx, cacheKey); ok {
			return id, name, stage, true
		}
	}

	productID, productName, stage, ok := s.matcher.Match(folded, index, catalog)
	if !ok {
		return "", "", "", false
	}

	if s.cache != nil {
		cached := map[string]string{"product_id": productID, "product_name": productName, "stage": stage}
		if err := s.cache.Set(ctx, cacheKey, cached, s.cacheTTL); err != nil && s.enableDebugLogging {
			log.Printf("[ORDER] Cache set failed for %q: %v", cacheKey, err)
		}
	}

	return productID, productName, stage, true
}

func (s *OrderService) matchCacheKey(storeID, foldedPhrase string) string {
	return fmt.Sprintf("match:%s:%s", storeID, foldedPhrase)
}

// getCachedMatch coerces a cached match back out of the cache's JSON shape.
func (s *OrderService) getCachedMatch(ctx context.Context, key string) (string, string, string, bool) {
	value, err := s.cache.Get(ctx, key)
	if err != nil {
		return "", "", "", false
	}

	entry, ok := value.(map[string]interface{})
	if !ok {
		return "", "", "", false
	}
	id, _ := entry["product_id"].(string)
	name, _ := entry["product_name"].(string)
	stage, _ := entry["stage"].(string)
	if id == "" {
		return "", "", "", false
	}
	return id, name, stage, true
}
