package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"storefront/internal/backend"
	"storefront/internal/checkout"
	"storefront/internal/domain"
	"storefront/internal/store"
)

// --- Checkout Handlers ---

// DraftResponse is a checkout draft with the step the buyer is on.
type DraftResponse struct {
	Draft     *domain.CheckoutDraft `json:"draft"`
	Step      string                `json:"step"`
	Completed string                `json:"completed"`
}

func draftResponse(d *domain.CheckoutDraft) DraftResponse {
	return DraftResponse{Draft: d, Step: checkout.Current(d).String(), Completed: checkout.Completed(d).String()}
}

func respondWithCheckoutError(w http.ResponseWriter, op string, err error) {
	var backendErr *backend.Error
	var validationErrs validator.ValidationErrors
	switch {
	case errors.Is(err, store.ErrDraftNotFound):
		respondWithError(w, http.StatusNotFound, store.ErrDraftNotFound.Error())
	case errors.Is(err, store.ErrDraftConfirmed), errors.Is(err, checkout.ErrStepOutOfOrder):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.As(err, &validationErrs):
		fields := make(map[string]string, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = fe.Tag()
		}
		respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: checkout.ErrInvalidInput.Error(), Fields: fields})
	case errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrInvalidMethod),
		errors.Is(err, checkout.ErrAddressRequired),
		errors.Is(err, checkout.ErrMissingCoordinates),
		errors.Is(err, checkout.ErrNoCarrierStep),
		errors.Is(err, checkout.ErrQuoteNotOffered):
		respondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &backendErr):
		log.Printf("ERROR: %s failed: %v", op, err)
		code, resp := backendFailure(err)
		if code == http.StatusNotFound {
			code = http.StatusBadGateway
		}
		respondWithJSON(w, code, resp)
	default:
		log.Printf("ERROR: %s failed: %v", op, err)
		respondWithError(w, http.StatusInternalServerError, "Failed to process checkout")
	}
}

func (h *HTTPHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	if !h.ensureCart(w, r) {
		return
	}
	draft, err := h.checkout.Start(r.Context(), h.cart.Snapshot())
	if err != nil {
		respondWithCheckoutError(w, "StartCheckout", err)
		return
	}
	respondWithJSON(w, http.StatusCreated, draftResponse(draft))
}

func (h *HTTPHandler) ListCheckouts(w http.ResponseWriter, r *http.Request) {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10 // Default limit
	}
	if limit > 100 { // Max limit
		limit = 100
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page <= 0 {
		page = 1
	}
	if !h.ensureCart(w, r) {
		return
	}

	drafts, totalCount, err := h.checkout.List(r.Context(), h.cart.Snapshot().ID, limit, (page-1)*limit)
	if err != nil {
		respondWithCheckoutError(w, "ListCheckouts", err)
		return
	}

	totalPages := 0
	if totalCount > 0 {
		totalPages = (totalCount + limit - 1) / limit
	}
	data := make([]DraftResponse, 0, len(drafts))
	for i := range drafts {
		data = append(data, draftResponse(&drafts[i]))
	}
	respondWithJSON(w, http.StatusOK, struct {
		Data       []DraftResponse `json:"data"`
		Pagination PaginationInfo  `json:"pagination"`
	}{
		Data: data,
		Pagination: PaginationInfo{
			Page:       page,
			Limit:      limit,
			TotalItems: totalCount,
			TotalPages: totalPages,
			HasPrev:    page > 1,
			HasNext:    page < totalPages,
		},
	})
}

func (h *HTTPHandler) DiscardCheckout(w http.ResponseWriter, r *http.Request) {
	if err := h.checkout.Discard(r.Context(), chi.URLParam(r, "draftId")); err != nil {
		respondWithCheckoutError(w, "DiscardCheckout", err)
		return
	}
	respondWithJSON(w, http.StatusNoContent, nil)
}

func (h *HTTPHandler) GetCheckout(w http.ResponseWriter, r *http.Request) {
	draft, err := h.checkout.Get(r.Context(), chi.URLParam(r, "draftId"))
	if err != nil {
		respondWithCheckoutError(w, "GetCheckout", err)
		return
	}
	respondWithJSON(w, http.StatusOK, draftResponse(draft))
}

// MethodInput selects the shipping method.
type MethodInput struct {
	Method domain.ShippingMethod `json:"method" validate:"required,oneof=delivery pickup"`
}

func (h *HTTPHandler) SetCheckoutMethod(w http.ResponseWriter, r *http.Request) {
	var input MethodInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	draft, err := h.checkout.SetMethod(r.Context(), chi.URLParam(r, "draftId"), input.Method)
	if err != nil {
		respondWithCheckoutError(w, "SetCheckoutMethod", err)
		return
	}
	respondWithJSON(w, http.StatusOK, draftResponse(draft))
}

// AddressInput carries the buyer's contact and, for delivery, the address.
// Both are validated by the wizard.
type AddressInput struct {
	Address *domain.Address `json:"address"`
	Contact domain.Contact  `json:"contact"`
}

func (h *HTTPHandler) SetCheckoutAddress(w http.ResponseWriter, r *http.Request) {
	var input AddressInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	draft, err := h.checkout.SetAddress(r.Context(), chi.URLParam(r, "draftId"), input.Address, input.Contact)
	if err != nil {
		respondWithCheckoutError(w, "SetCheckoutAddress", err)
		return
	}
	respondWithJSON(w, http.StatusOK, draftResponse(draft))
}

func (h *HTTPHandler) QuoteCheckout(w http.ResponseWriter, r *http.Request) {
	draft, err := h.checkout.Quote(r.Context(), chi.URLParam(r, "draftId"))
	if err != nil {
		respondWithCheckoutError(w, "QuoteCheckout", err)
		return
	}
	respondWithJSON(w, http.StatusOK, draftResponse(draft))
}

// CarrierInput picks one of the quotes stored on the draft.
type CarrierInput struct {
	QuoteID string `json:"quoteId" validate:"required"`
}

func (h *HTTPHandler) SelectCheckoutCarrier(w http.ResponseWriter, r *http.Request) {
	var input CarrierInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload: "+err.Error())
		return
	}
	defer r.Body.Close()

	if err := h.validate.Struct(input); err != nil {
		respondWithError(w, http.StatusBadRequest, "Validation failed: "+err.Error())
		return
	}

	draft, err := h.checkout.SelectCarrier(r.Context(), chi.URLParam(r, "draftId"), input.QuoteID)
	if err != nil {
		respondWithCheckoutError(w, "SelectCheckoutCarrier", err)
		return
	}
	respondWithJSON(w, http.StatusOK, draftResponse(draft))
}

func (h *HTTPHandler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	draft, err := h.checkout.Confirm(r.Context(), chi.URLParam(r, "draftId"))
	if err != nil {
		respondWithCheckoutError(w, "ConfirmCheckout", err)
		return
	}
	respondWithJSON(w, http.StatusOK, draftResponse(draft))
}
