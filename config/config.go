package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Catalog    CatalogConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Matching   MatchingConfig
	Vocabulary VocabularyConfig
	Alias      AliasConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// CatalogConfig holds catalog source configuration. Source "api" loads from
// the remote catalog-study endpoint; "file" loads <store>.json files from
// FileDir and optionally hot-reloads them on change.
type CatalogConfig struct {
	Source         string        `mapstructure:"source"`
	APIToken       string        `mapstructure:"api_token"`
	BaseURL        string        `mapstructure:"base_url"`
	FileDir        string        `mapstructure:"file_dir"`
	WatchFiles     bool          `mapstructure:"watch_files"`
	DefaultStoreID string        `mapstructure:"default_store_id"`
	SnapshotTTL    time.Duration `mapstructure:"snapshot_ttl"`
}

// CacheConfig holds match-result cache configuration
type CacheConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"`
}

// OverrideConfig pins a known problematic phrase substring to an exact
// product, bypassing the matching heuristics.
type OverrideConfig struct {
	Substring   string `mapstructure:"substring"`
	ProductID   string `mapstructure:"product_id"`
	DisplayName string `mapstructure:"display_name"`
}

// MatchingConfig holds matcher token tables and behavior switches
type MatchingConfig struct {
	BrandTokens    []string         `mapstructure:"brand_tokens"`
	PriorityBrand  string           `mapstructure:"priority_brand"`
	CanonicalNames bool             `mapstructure:"canonical_names"`
	DebugLogging   bool             `mapstructure:"debug_logging"`
	Overrides      []OverrideConfig `mapstructure:"overrides"`
}

// VocabularyConfig holds the locale token tables for field extraction
type VocabularyConfig struct {
	UnitTokens     []string `mapstructure:"unit_tokens"`
	QuantityLabels []string `mapstructure:"quantity_labels"`
	NoteLabels     []string `mapstructure:"note_labels"`
}

// AliasConfig holds the learned-alias store configuration
type AliasConfig struct {
	Path string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/orderdesk/")

	// Environment variable settings
	v.SetEnvPrefix("ORDERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using environment variables and defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Catalog defaults. The empty api_token default registers the key so
	// AutomaticEnv can bind ORDERDESK_CATALOG_API_TOKEN during Unmarshal.
	v.SetDefault("catalog.source", "api")
	v.SetDefault("catalog.api_token", "")
	v.SetDefault("catalog.base_url", "https://dev-api.oda.vn")
	v.SetDefault("catalog.file_dir", "./catalogs")
	v.SetDefault("catalog.watch_files", false)
	v.SetDefault("catalog.default_store_id", "5341")
	v.SetDefault("catalog.snapshot_ttl", "1h")

	// Cache defaults
	v.SetDefault("cache.ttl", "24h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)

	// Matching defaults
	v.SetDefault("matching.brand_tokens", []string{
		"fami", "vinamilk", "vfresh", "lavie", "coca", "pepsi", "nestle",
	})
	v.SetDefault("matching.priority_brand", "fami")
	v.SetDefault("matching.canonical_names", false)
	v.SetDefault("matching.debug_logging", false)

	// Vocabulary defaults cover the English and Vietnamese order phrasing
	// the assistant sees in practice
	v.SetDefault("vocabulary.unit_tokens", []string{
		"x", "piece", "pieces", "bottle", "bottles", "pack", "packs",
		"box", "boxes", "carton", "cartons", "can", "cans",
		"cái", "chai", "gói", "hộp", "thùng", "lon",
		"kg", "g", "ml", "l",
	})
	v.SetDefault("vocabulary.quantity_labels", []string{
		"quantity", "qty", "số lượng", "sl",
	})
	v.SetDefault("vocabulary.note_labels", []string{
		"note", "ghi chú", "yêu cầu", "remark", "request",
	})

	// Alias store defaults
	v.SetDefault("alias.path", "./orderdesk_aliases.db")
}

// validate validates the configuration
func validate(config *Config) error {
	switch config.Catalog.Source {
	case "api":
		if config.Catalog.APIToken == "" {
			return fmt.Errorf("catalog API token is required (set ORDERDESK_CATALOG_API_TOKEN)")
		}
	case "file":
		if config.Catalog.FileDir == "" {
			return fmt.Errorf("catalog file dir is required when catalog source is 'file'")
		}
	default:
		return fmt.Errorf("catalog source must be 'api' or 'file', got: %s", config.Catalog.Source)
	}

	if config.Catalog.DefaultStoreID == "" {
		return fmt.Errorf("default store ID is required")
	}

	return nil
}
