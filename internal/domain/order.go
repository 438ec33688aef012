package domain

// CatalogEntry represents a single sellable product from the store catalog.
// A product carries one primary display name and up to two alternate names
// (the catalog API exposes them as 1st_name/2nd_name/3rd_name).
type CatalogEntry struct {
	ID          string   `json:"id"`
	PrimaryName string   `json:"1st_name"`
	AltNames    []string `json:"alt_names,omitempty"`
}

// Catalog is a snapshot of a store's products keyed by product ID.
// It is immutable for the duration of a matching session.
type Catalog map[string]CatalogEntry

// LineDraft holds the fields peeled off a raw order line before matching.
// ProductPhrase is the residual text after quantity and note removal.
type LineDraft struct {
	RawText       string `json:"rawText"`
	Quantity      int    `json:"quantity"`
	Note          string `json:"note"`
	ProductPhrase string `json:"productPhrase"`
}

// OrderLine is one successfully resolved line item of the final order.
type OrderLine struct {
	ProductName string `json:"product_name"`
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Note        string `json:"note"`
}

// LineTrace is the per-line diagnostic record kept for every candidate line,
// matched or not. MatchedProductID is nil when no stage resolved the phrase.
type LineTrace struct {
	RawText          string  `json:"rawText"`
	Quantity         int     `json:"quantity"`
	Note             string  `json:"note"`
	ProductPhrase    string  `json:"productPhrase"`
	MatchedProductID *string `json:"matched_product_id"`
	MatchedName      string  `json:"matchedName,omitempty"`
	MatchStage       string  `json:"matchStage,omitempty"`
}

// OrderTrace is the full diagnostic trace returned alongside the order.
type OrderTrace struct {
	TraceID    string          `json:"traceId"`
	StoreID    string          `json:"storeId"`
	Lines      []LineTrace     `json:"lines"`
	Collisions []NameCollision `json:"collisions,omitempty"`
}

// OrderResult is the JSON shape every caller receives, success or failure.
// On catalog-level failure Error is set and OrderItems is empty; per-line
// misses never set Error.
type OrderResult struct {
	OrderItems []OrderLine `json:"order_items"`
	Debug      *OrderTrace `json:"debug,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// OrderRequest is an order-processing request from the assistant.
type OrderRequest struct {
	Message string `json:"message" binding:"required"`
	StoreID string `json:"storeId,omitempty"`
}
