package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/backend/config"
	"github.com/orderdesk/backend/internal/domain"
	"github.com/orderdesk/backend/internal/infrastructure/catalog"
	"github.com/orderdesk/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

// stubSource serves a fixed catalog, or a fixed error, per store.
type stubSource struct {
	catalog domain.Catalog
	err     error
}

func (s *stubSource) Load(_ context.Context, _ string) (domain.Catalog, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.catalog, nil
}

// stubAliases is an in-memory AliasRepository.
type stubAliases struct {
	saved map[string]string
}

func (s *stubAliases) Get(_ context.Context, _, name string) (string, error) {
	if replacement, ok := s.saved[name]; ok {
		return replacement, nil
	}
	return "", domain.ErrAliasNotFound
}

func (s *stubAliases) Save(_ context.Context, _, name, replacement string) error {
	if name == "" || replacement == "" {
		return domain.ErrInvalidRequest
	}
	s.saved[strings.ToLower(name)] = strings.ToLower(replacement)
	return nil
}

// setupTestRouter wires a real order service over a stub catalog source.
func setupTestRouter(source domain.CatalogSource, aliases domain.AliasRepository) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		RateLimit: config.RateLimitConfig{PerIP: 1000},
	}

	store := catalog.NewStore(source, 0)
	parser := usecase.NewLineParser(usecase.DefaultVocabulary())
	matcher := usecase.NewProductMatcher(usecase.MatcherConfig{
		BrandTokens:   []string{"fami"},
		PriorityBrand: "fami",
	})
	orders := usecase.NewOrderService(store, nil, aliases, parser, matcher, usecase.OrderServiceConfig{})

	handler := NewHandler(orders, store, aliases, "5341")
	return SetupRouter(cfg, handler)
}

func testStubSource() *stubSource {
	return &stubSource{
		catalog: domain.Catalog{
			"p1": {ID: "p1", PrimaryName: "Fami Soy Milk"},
			"p2": {ID: "p2", PrimaryName: "Ginger Tea"},
		},
	}
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	router := setupTestRouter(testStubSource(), &stubAliases{saved: map[string]string{}})

	w := doJSON(router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "orderdesk-backend", body["service"])
}

func TestProcessOrderEndpoint(t *testing.T) {
	t.Run("resolves a combined quantity, note, and product line", func(t *testing.T) {
		router := setupTestRouter(testStubSource(), &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/orders/process",
			`{"message": "2 bottles Fami Soy Milk, note: cold"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.OrderResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

		require.Len(t, result.OrderItems, 1)
		item := result.OrderItems[0]
		assert.Equal(t, "p1", item.ProductID)
		assert.Equal(t, 2, item.Quantity)
		assert.Equal(t, "cold", item.Note)
		assert.Empty(t, result.Error)
		require.NotNil(t, result.Debug)
		assert.NotEmpty(t, result.Debug.TraceID)
	})

	t.Run("unmatched lines appear only in the trace", func(t *testing.T) {
		router := setupTestRouter(testStubSource(), &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/orders/process",
			`{"message": "Ginger Tea\nxyzzy flux capacitor"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.OrderResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))

		assert.Len(t, result.OrderItems, 1)
		require.Len(t, result.Debug.Lines, 2)
		assert.Nil(t, result.Debug.Lines[1].MatchedProductID)
	})

	t.Run("missing message is a bad request", func(t *testing.T) {
		router := setupTestRouter(testStubSource(), &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/orders/process", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		var result domain.OrderResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.NotEmpty(t, result.Error)
		assert.Empty(t, result.OrderItems)
	})

	t.Run("catalog failure returns a JSON error result, not a fault", func(t *testing.T) {
		router := setupTestRouter(&stubSource{err: domain.ErrCatalogUnavailable}, &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/orders/process",
			`{"message": "Ginger Tea"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.OrderResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		assert.NotEmpty(t, result.Error)
		assert.Empty(t, result.OrderItems)
	})
}

func TestRefreshCatalogEndpoint(t *testing.T) {
	t.Run("refresh reports snapshot stats", func(t *testing.T) {
		router := setupTestRouter(testStubSource(), &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/catalog/refresh", `{"storeId": "5341"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "5341", body["storeId"])
		assert.Equal(t, float64(2), body["products"])
	})

	t.Run("refresh failure maps to service unavailable", func(t *testing.T) {
		router := setupTestRouter(&stubSource{err: domain.ErrCatalogUnavailable}, &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/catalog/refresh", `{"storeId": "5341"}`)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})

	t.Run("malformed catalog maps to unprocessable entity", func(t *testing.T) {
		router := setupTestRouter(&stubSource{err: domain.ErrCatalogMalformed}, &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/catalog/refresh", `{"storeId": "5341"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestSaveAliasEndpoint(t *testing.T) {
	t.Run("saves a mapping and applies it to later orders", func(t *testing.T) {
		aliases := &stubAliases{saved: map[string]string{}}
		router := setupTestRouter(testStubSource(), aliases)

		w := doJSON(router, http.MethodPost, "/api/v1/aliases",
			`{"name": "the usual milk", "replacement": "fami soy milk"}`)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "fami soy milk", aliases.saved["the usual milk"])

		w = doJSON(router, http.MethodPost, "/api/v1/orders/process",
			`{"message": "the usual milk"}`)
		require.Equal(t, http.StatusOK, w.Code)

		var result domain.OrderResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
		require.Len(t, result.OrderItems, 1)
		assert.Equal(t, "p1", result.OrderItems[0].ProductID)
	})

	t.Run("missing fields are a bad request", func(t *testing.T) {
		router := setupTestRouter(testStubSource(), &stubAliases{saved: map[string]string{}})

		w := doJSON(router, http.MethodPost, "/api/v1/aliases", `{"name": "only name"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
