package domain

import "errors"

var (
	// ErrCatalogUnavailable is returned when no catalog data exists for a store
	ErrCatalogUnavailable = errors.New("catalog unavailable for store")

	// ErrCatalogMalformed is returned when catalog data is present but not decodable
	ErrCatalogMalformed = errors.New("catalog data malformed")

	// ErrCatalogAPIFailure is returned when the catalog API request fails
	ErrCatalogAPIFailure = errors.New("catalog API request failed")

	// ErrRateLimited is returned when rate limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrAliasNotFound is returned when no alias mapping exists for a name
	ErrAliasNotFound = errors.New("alias mapping not found")
)
