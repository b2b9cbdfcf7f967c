package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"storefront/internal/backend"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/gallery"
	"storefront/internal/metrics"
	"storefront/internal/query"
	"storefront/internal/suggest"
	"storefront/internal/variant"
)

// ProductFetcher loads one product with its variants.
type ProductFetcher interface {
	Product(ctx context.Context, id int64) (*domain.Product, error)
}

// Searcher runs listing searches and product suggestions.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (domain.SearchPage, error)
	Suggestions(ctx context.Context, q string) ([]domain.ProductSuggestion, error)
}

// Services are the collaborators the HTTP handlers delegate to.
type Services struct {
	Catalog  *catalog.Catalog
	Products ProductFetcher
	Search   Searcher
	Suggest  *suggest.Suggester
	Cart     *cart.State
	Checkout *checkout.Wizard
}

// HTTPHandler holds dependencies for HTTP handlers.
type HTTPHandler struct {
	catalog  *catalog.Catalog
	products ProductFetcher
	search   Searcher
	suggest  *suggest.Suggester
	cart     *cart.State
	checkout *checkout.Wizard
	resolver *variant.Resolver
	gallery  *gallery.Selector
	validate *validator.Validate
}

// NewHTTPHandler creates a new HTTPHandler with dependencies.
func NewHTTPHandler(s Services) *HTTPHandler {
	resolver := variant.NewResolver(s.Catalog)
	return &HTTPHandler{
		catalog:  s.Catalog,
		products: s.Products,
		search:   s.Search,
		suggest:  s.Suggest,
		cart:     s.Cart,
		checkout: s.Checkout,
		resolver: resolver,
		gallery:  gallery.NewSelector(s.Catalog, resolver),
		validate: validator.New(),
	}
}

// --- Helpers ---

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Error         string            `json:"error"`
	Retryable     bool              `json:"retryable,omitempty"`
	BackToListing string            `json:"backToListing,omitempty"`
	Fields        map[string]string `json:"fields,omitempty"`
	Cart          *domain.Cart      `json:"cart,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{Error: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// backendFailure maps a remote-service error onto a response.
func backendFailure(err error) (int, ErrorResponse) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: "not found"}
	case errors.Is(err, backend.ErrNotConfigured):
		return http.StatusServiceUnavailable, ErrorResponse{Error: "service not configured"}
	default:
		return http.StatusBadGateway, ErrorResponse{Error: "service unavailable, please retry", Retryable: true}
	}
}

func parseID(r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	return id, err == nil && id > 0
}

// --- Catalog Handlers ---

func (h *HTTPHandler) ListAttributes(w http.ResponseWriter, r *http.Request) {
	if !h.catalog.Ready() {
		respondWithJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: catalog.ErrNotReady.Error(), Retryable: true})
		return
	}
	respondWithJSON(w, http.StatusOK, h.catalog.Attributes())
}

// PaginationInfo describes the page controls of a listing.
type PaginationInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalItems int   `json:"total_items"`
	TotalPages int   `json:"total_pages"`
	Window     []int `json:"window"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
	PageSizes  []int `json:"page_sizes"`
}

// CatalogResponse is one listing page for a shareable query.
type CatalogResponse struct {
	Data       []domain.ProductSummary `json:"data"`
	Pagination PaginationInfo          `json:"pagination"`
	Filters    domain.ProductFilters   `json:"filters"`
	Facets     []query.FacetGroup      `json:"facets"`
	Query      string                  `json:"query"` // canonical query string
	Empty      bool                    `json:"empty"`
}

func (h *HTTPHandler) SearchCatalog(w http.ResponseWriter, r *http.Request) {
	state := query.New()
	state.Hydrate(r.URL.Query())

	token := state.Begin()
	page, err := h.search.Search(r.Context(), state.SearchRequest())
	if err != nil {
		log.Printf("ERROR: SearchCatalog search failed: %v", err)
		state.Fail(token, err)
		code, resp := backendFailure(err)
		respondWithJSON(w, code, resp)
		return
	}
	if !state.Complete(token, page) {
		metrics.StaleSearches.Inc()
	}

	pg := state.Pagination()
	response := CatalogResponse{
		Data: page.Items,
		Pagination: PaginationInfo{
			Page:       pg.Page,
			Limit:      pg.Limit,
			TotalItems: page.TotalCount,
			TotalPages: pg.TotalPages(),
			Window:     state.PageWindow(query.DefaultWindow),
			HasPrev:    state.HasPrev(),
			HasNext:    state.HasNext(),
			PageSizes:  query.PageSizes,
		},
		Filters: state.Filters(),
		Facets:  state.FacetSelections(h.catalog),
		Query:   state.Encode().Encode(),
		Empty:   state.Empty(),
	}
	if response.Data == nil {
		response.Data = []domain.ProductSummary{}
	}
	respondWithJSON(w, http.StatusOK, response)
}

// PriceRangeInput is a price-filter edit against the current shareable query.
type PriceRangeInput struct {
	Query    string   `json:"query"`
	PriceMin *float64 `json:"priceMin"`
	PriceMax *float64 `json:"priceMax"`
}

// ApplyPriceRange validates a price range edit and returns the shareable
// query that applies it. Invalid bounds come back per field.
func (h *HTTPHandler) ApplyPriceRange(w http.ResponseWriter, r *http.Request) {
	var input PriceRangeInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	values, err := url.ParseQuery(input.Query)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid query: "+err.Error())
		return
	}
	state := query.New()
	state.Hydrate(values)
	// The edit replaces the whole range: clearing the draft first means the
	// new bounds are checked against each other only. Rejected bounds are
	// recorded per field and make ApplyPrice fail.
	state.ClearDraft()
	rejected := errors.Join(state.SetDraftMin(input.PriceMin), state.SetDraftMax(input.PriceMax))
	if err := state.ApplyPrice(); err != nil {
		log.Printf("INFO: ApplyPriceRange rejected: %v", errors.Join(err, rejected))
		fields := make(map[string]string)
		for field, fieldErr := range state.Errors() {
			fields[field] = fieldErr.Error()
		}
		respondWithJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Fields: fields})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{"query": state.Encode().Encode()})
}

func (h *HTTPHandler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	words, err := h.suggest.Lookup(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		code, resp := backendFailure(err)
		respondWithJSON(w, code, resp)
		return
	}
	if words == nil {
		words = []string{}
	}
	respondWithJSON(w, http.StatusOK, words)
}

func (h *HTTPHandler) SuggestProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if !h.suggest.Accepts(q) {
		respondWithJSON(w, http.StatusOK, []domain.ProductSuggestion{})
		return
	}
	products, err := h.search.Suggestions(r.Context(), q)
	if err != nil {
		code, resp := backendFailure(err)
		respondWithJSON(w, code, resp)
		return
	}
	if products == nil {
		products = []domain.ProductSuggestion{}
	}
	respondWithJSON(w, http.StatusOK, products)
}

// --- Product Handlers ---

// ValueOption is one selectable color or size.
type ValueOption struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductView is a product page for one color/size selection.
type ProductView struct {
	Product     domain.Product   `json:"product"`
	Colors      []ValueOption    `json:"colors"`
	Sizes       []ValueOption    `json:"sizes"`
	Selection   domain.Selection `json:"selection"`
	Variant     *domain.Variant  `json:"variant,omitempty"`
	Price       decimal.Decimal  `json:"price"`
	PriceMin    decimal.Decimal  `json:"priceMin"`
	PriceMax    decimal.Decimal  `json:"priceMax"`
	CanPurchase bool             `json:"canPurchase"`
	Images      []string         `json:"images"`
	ActiveImage int              `json:"activeImage"`
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	colorID, sizeID, err := parseSelection(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	product, err := h.products.Product(r.Context(), productID)
	if err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			respondWithJSON(w, http.StatusNotFound, ErrorResponse{Error: "product not found", BackToListing: "/catalog"})
			return
		}
		log.Printf("ERROR: GetProduct for ID %d failed: %v", productID, err)
		code, resp := backendFailure(err)
		respondWithJSON(w, code, resp)
		return
	}

	sel := variant.NewSelector(h.resolver, product.Variants)
	if colorID != 0 {
		if err := sel.SelectPrimary(colorID); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}
	if sizeID != 0 {
		if err := sel.SelectSecondary(sizeID); err != nil {
			respondWithError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
	}

	tracker := gallery.NewTracker(h.gallery, *product)
	active, _ := tracker.Sync(sel.Selection())
	lo, hi := variant.PriceRange(product.Variants)

	respondWithJSON(w, http.StatusOK, ProductView{
		Product:     *product,
		Colors:      h.options(sel.AvailableColors()),
		Sizes:       h.options(sel.AvailableSizes()),
		Selection:   sel.Selection(),
		Variant:     sel.Resolved(),
		Price:       sel.Price(),
		PriceMin:    lo,
		PriceMax:    hi,
		CanPurchase: sel.CanPurchase(),
		Images:      tracker.Images(),
		ActiveImage: active,
	})
}

func parseSelection(r *http.Request) (colorID, sizeID int64, err error) {
	q := r.URL.Query()
	if raw := q.Get("color"); raw != "" {
		if colorID, err = strconv.ParseInt(raw, 10, 64); err != nil || colorID <= 0 {
			return 0, 0, errors.New("Invalid color value ID")
		}
	}
	if raw := q.Get("size"); raw != "" {
		if sizeID, err = strconv.ParseInt(raw, 10, 64); err != nil || sizeID <= 0 {
			return 0, 0, errors.New("Invalid size value ID")
		}
	}
	return colorID, sizeID, nil
}

func (h *HTTPHandler) options(set map[int64]struct{}) []ValueOption {
	ids := catalog.SortedIDs(set)
	out := make([]ValueOption, 0, len(ids))
	for _, id := range ids {
		out = append(out, ValueOption{ID: id, Name: h.catalog.ValueName(id)})
	}
	return out
}

// RegisterRoutes registers all HTTP routes with the provided chi router.
func (h *HTTPHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Handle("/metrics", metrics.Handler())
		r.Get("/attributes", h.ListAttributes)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", h.SearchCatalog)
			r.Post("/price", h.ApplyPriceRange)
			r.Get("/autocomplete", h.Autocomplete)
			r.Get("/suggestions", h.SuggestProducts)
		})

		r.Get("/products/{productId}", h.GetProduct)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Post("/items", h.AddCartItem)
			r.Delete("/items", h.ClearCart)
			r.Patch("/items/{productId}/{variantId}", h.UpdateCartItem)
			r.Delete("/items/{productId}/{variantId}", h.RemoveCartItem)
			r.Delete("/error", h.DismissCartError)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Get("/", h.ListCheckouts)
			r.Post("/", h.StartCheckout)
			r.Route("/{draftId}", func(r chi.Router) {
				r.Get("/", h.GetCheckout)
				r.Delete("/", h.DiscardCheckout)
				r.Put("/method", h.SetCheckoutMethod)
				r.Put("/address", h.SetCheckoutAddress)
				r.Post("/quotes", h.QuoteCheckout)
				r.Put("/carrier", h.SelectCheckoutCarrier)
				r.Post("/confirm", h.ConfirmCheckout)
			})
		})
	})
	log.Println("INFO: Storefront HTTP routes registered under /api/v1")
}
