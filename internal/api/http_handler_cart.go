package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"storefront/internal/cart"
	"storefront/internal/domain"
)

// --- Cart Handlers ---

// CartLine is a cart line with the state of its quantity controls.
type CartLine struct {
	domain.CartLineItem
	CanDecrement bool `json:"canDecrement"`
}

// CartResponse is the cart as displayed, with its derived totals and the
// error of the last failed mutation while it is still shown.
type CartResponse struct {
	Cart      domain.Cart     `json:"cart"`
	Lines     []CartLine      `json:"lines"`
	Count     int             `json:"count"`
	Total     decimal.Decimal `json:"total"`
	LastError string          `json:"lastError,omitempty"`
}

func (h *HTTPHandler) cartResponse() CartResponse {
	c := h.cart.Snapshot()
	if c.Items == nil {
		c.Items = []domain.CartLineItem{}
	}
	lines := make([]CartLine, 0, len(c.Items))
	for _, li := range c.Items {
		lines = append(lines, CartLine{CartLineItem: li, CanDecrement: h.cart.CanDecrement(li.ProductID, li.VariantID)})
	}
	resp := CartResponse{Cart: c, Lines: lines, Count: h.cart.Count(), Total: c.Total()}
	if err := h.cart.LastError(); err != nil {
		resp.LastError = err.Error()
	}
	return resp
}

// ensureCart loads the cart on first use.
func (h *HTTPHandler) ensureCart(w http.ResponseWriter, r *http.Request) bool {
	if h.cart.Loaded() {
		return true
	}
	if err := h.cart.Load(r.Context()); err != nil {
		log.Printf("ERROR: Loading cart failed: %v", err)
		code, resp := backendFailure(err)
		respondWithJSON(w, code, resp)
		return false
	}
	return true
}

// respondWithCartError answers a refused or rolled back mutation. A rollback
// carries the restored cart so the view can redraw it.
func (h *HTTPHandler) respondWithCartError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrQuantityBelowMinimum):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, cart.ErrLineNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	default:
		code, resp := backendFailure(err)
		if code == http.StatusNotFound {
			code = http.StatusBadGateway
		}
		restored := h.cart.Snapshot()
		resp.Error = err.Error()
		resp.Retryable = true
		resp.Cart = &restored
		respondWithJSON(w, code, resp)
	}
}

func (h *HTTPHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Load(r.Context()); err != nil {
		log.Printf("ERROR: GetCart load failed: %v", err)
		code, resp := backendFailure(err)
		if h.cart.Loaded() {
			// Last known cart with the failure attached.
			c := h.cart.Snapshot()
			resp.Cart = &c
		}
		respondWithJSON(w, code, resp)
		return
	}
	respondWithJSON(w, http.StatusOK, h.cartResponse())
}

// CartItemInput defines the expected input for adding a line to the cart.
type CartItemInput struct {
	ProductID int64           `json:"productId" validate:"required,gt=0"`
	VariantID int64           `json:"variantId" validate:"gte=0"`
	Quantity  int32           `json:"quantity" validate:"required,gte=1"`
	Name      string          `json:"name" validate:"required,max=255"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	ImageURL  string          `json:"imageUrl" validate:"omitempty,max=2048"`
}

func (h *HTTPHandler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var input CartItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}
	if input.UnitPrice.IsNegative() {
		respondWithError(w, http.StatusBadRequest, "Validation failed: unitPrice must not be negative")
		return
	}
	if !h.ensureCart(w, r) {
		return
	}

	err := h.cart.Add(r.Context(), domain.CartLineItem{
		ProductID: input.ProductID,
		VariantID: input.VariantID,
		Name:      input.Name,
		UnitPrice: input.UnitPrice,
		Quantity:  input.Quantity,
		ImageURL:  input.ImageURL,
	})
	if err != nil {
		h.respondWithCartError(w, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, h.cartResponse())
}

// QuantityInput is the new quantity of a cart line.
type QuantityInput struct {
	Quantity int32 `json:"quantity"`
}

func (h *HTTPHandler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	variantID, ok := parseVariantID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid variant ID format")
		return
	}

	var input QuantityInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if !h.ensureCart(w, r) {
		return
	}
	if err := h.cart.UpdateQuantity(r.Context(), productID, variantID, input.Quantity); err != nil {
		h.respondWithCartError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.cartResponse())
}

func (h *HTTPHandler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	productID, ok := parseID(r, "productId")
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid product ID format")
		return
	}
	variantID, ok := parseVariantID(r)
	if !ok {
		respondWithError(w, http.StatusBadRequest, "Invalid variant ID format")
		return
	}
	if !h.ensureCart(w, r) {
		return
	}
	if err := h.cart.Remove(r.Context(), productID, variantID); err != nil {
		h.respondWithCartError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.cartResponse())
}

func (h *HTTPHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if !h.ensureCart(w, r) {
		return
	}
	if err := h.cart.Clear(r.Context()); err != nil {
		h.respondWithCartError(w, err)
		return
	}
	respondWithJSON(w, http.StatusOK, h.cartResponse())
}

// DismissCartError hides the last mutation error before it expires.
func (h *HTTPHandler) DismissCartError(w http.ResponseWriter, r *http.Request) {
	h.cart.DismissError()
	respondWithJSON(w, http.StatusNoContent, nil)
}

// parseVariantID accepts 0 for products without variants.
func parseVariantID(r *http.Request) (int64, bool) {
	if id, ok := parseID(r, "variantId"); ok {
		return id, true
	}
	return 0, chi.URLParam(r, "variantId") == "0"
}
