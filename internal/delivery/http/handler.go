package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/orderdesk/backend/internal/domain"
	"github.com/orderdesk/backend/internal/infrastructure/catalog"
	"github.com/orderdesk/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	orders         *usecase.OrderService
	catalogs       *catalog.Store
	aliases        domain.AliasRepository
	defaultStoreID string
}

// NewHandler creates a new HTTP handler
func NewHandler(orders *usecase.OrderService, catalogs *catalog.Store, aliases domain.AliasRepository, defaultStoreID string) *Handler {
	return &Handler{
		orders:         orders,
		catalogs:       catalogs,
		aliases:        aliases,
		defaultStoreID: defaultStoreID,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "orderdesk-backend",
		"version": "1.0.0",
	})
}

// ProcessOrder extracts a structured order from a free-form message.
// The response is always an OrderResult JSON object: catalog-level failures
// are reported in its error field next to an empty order_items list, and
// per-line misses only show up in the debug trace.
func (h *Handler) ProcessOrder(c *gin.Context) {
	var req domain.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, domain.OrderResult{
			OrderItems: []domain.OrderLine{},
			Error:      "message is required",
		})
		return
	}

	storeID := req.StoreID
	if storeID == "" {
		storeID = h.defaultStoreID
	}

	result, err := h.orders.ProcessOrder(c.Request.Context(), req.Message, storeID)
	if err != nil && errors.Is(err, domain.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// RefreshCatalog rebuilds the catalog snapshot for a store on demand.
func (h *Handler) RefreshCatalog(c *gin.Context) {
	var req struct {
		StoreID string `json:"storeId"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.StoreID == "" {
		req.StoreID = h.defaultStoreID
	}

	catalogData, index, err := h.catalogs.Refresh(c.Request.Context(), req.StoreID)
	if err != nil {
		status := http.StatusServiceUnavailable
		if errors.Is(err, domain.ErrCatalogMalformed) {
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"storeId":    req.StoreID,
		"products":   len(catalogData),
		"names":      index.Size(),
		"collisions": len(index.Collisions()),
	})
}

// SaveAlias records a learned product-name replacement for a store.
func (h *Handler) SaveAlias(c *gin.Context) {
	var req struct {
		StoreID     string `json:"storeId"`
		Name        string `json:"name" binding:"required"`
		Replacement string `json:"replacement" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and replacement are required"})
		return
	}
	if req.StoreID == "" {
		req.StoreID = h.defaultStoreID
	}

	if err := h.aliases.Save(c.Request.Context(), req.StoreID, req.Name, req.Replacement); err != nil {
		if errors.Is(err, domain.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"storeId":     req.StoreID,
		"name":        req.Name,
		"replacement": req.Replacement,
	})
}
