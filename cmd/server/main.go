package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/orderdesk/backend/config"
	httpDelivery "github.com/orderdesk/backend/internal/delivery/http"
	"github.com/orderdesk/backend/internal/domain"
	"github.com/orderdesk/backend/internal/infrastructure/alias"
	"github.com/orderdesk/backend/internal/infrastructure/cache"
	"github.com/orderdesk/backend/internal/infrastructure/catalog"
	"github.com/orderdesk/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	debug := cfg.Matching.DebugLogging || cfg.Server.Environment == "development"

	log.Printf("Starting OrderDesk Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)
	log.Printf("Catalog source: %s (default store: %s)", cfg.Catalog.Source, cfg.Catalog.DefaultStoreID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Catalog source and snapshot store
	var source domain.CatalogSource
	var fileSource *catalog.FileSource
	switch cfg.Catalog.Source {
	case "file":
		fileSource = catalog.NewFileSource(cfg.Catalog.FileDir)
		source = fileSource
	default:
		client := catalog.NewClient(cfg.Catalog.APIToken, cfg.Catalog.BaseURL)
		client.SetDebug(debug)
		source = client
	}

	catalogStore := catalog.NewStore(source, cfg.Catalog.SnapshotTTL)
	catalogStore.SetDebug(debug)

	if fileSource != nil && cfg.Catalog.WatchFiles {
		if err := fileSource.Watch(ctx, catalogStore); err != nil {
			log.Fatalf("Failed to watch catalog dir %s: %v", cfg.Catalog.FileDir, err)
		}
		log.Printf("Watching %s for catalog changes", cfg.Catalog.FileDir)
	}

	// Learned alias store
	aliasStore, err := alias.NewStore(cfg.Alias.Path)
	if err != nil {
		log.Fatalf("Failed to open alias store at %s: %v", cfg.Alias.Path, err)
	}
	defer aliasStore.Close()

	// Match-result cache
	memoryCache := cache.NewMemoryCache()
	log.Printf("Match cache TTL: %s", cfg.Cache.TTL)

	// Extraction and matching
	parser := usecase.NewLineParser(usecase.Vocabulary{
		UnitTokens:     cfg.Vocabulary.UnitTokens,
		QuantityLabels: cfg.Vocabulary.QuantityLabels,
		NoteLabels:     cfg.Vocabulary.NoteLabels,
	})

	overrides := usecase.DefaultSpecialCases
	if len(cfg.Matching.Overrides) > 0 {
		overrides = make([]usecase.SpecialCase, 0, len(cfg.Matching.Overrides))
		for _, o := range cfg.Matching.Overrides {
			overrides = append(overrides, usecase.SpecialCase{
				Substring:   o.Substring,
				ProductID:   o.ProductID,
				DisplayName: o.DisplayName,
			})
		}
	}

	matcher := usecase.NewProductMatcher(usecase.MatcherConfig{
		BrandTokens:        cfg.Matching.BrandTokens,
		PriorityBrand:      cfg.Matching.PriorityBrand,
		UnitTokens:         cfg.Vocabulary.UnitTokens,
		Overrides:          overrides,
		CanonicalNames:     cfg.Matching.CanonicalNames,
		EnableDebugLogging: debug,
	})

	orderService := usecase.NewOrderService(
		catalogStore,
		memoryCache,
		aliasStore,
		parser,
		matcher,
		usecase.OrderServiceConfig{
			CacheTTL:           cfg.Cache.TTL,
			EnableDebugLogging: debug,
		},
	)

	log.Printf("Matching: brands=%d, priority=%q, canonical=%v, debug=%v",
		len(cfg.Matching.BrandTokens),
		cfg.Matching.PriorityBrand,
		cfg.Matching.CanonicalNames,
		debug)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(orderService, catalogStore, aliasStore, cfg.Catalog.DefaultStoreID)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
