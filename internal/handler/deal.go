package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pricelock/usdescrow/internal/domain"
	"github.com/pricelock/usdescrow/internal/service"
)

// DealHandler handles HTTP requests for deal endpoints.
type DealHandler struct {
	dealSvc *service.DealService
}

// NewDealHandler creates a new DealHandler.
func NewDealHandler(dealSvc *service.DealService) *DealHandler {
	return &DealHandler{dealSvc: dealSvc}
}

// dealResponse is the JSON rendering of a deal. Token amounts and
// locked prices are decimal strings.
type dealResponse struct {
	ID              uint64  `json:"id"`
	PartyA          string  `json:"party_a"`
	PartyB          string  `json:"party_b"`
	Status          string  `json:"status"`
	USDA            string  `json:"usd_a"`
	USDB            string  `json:"usd_b"`
	Deadline        string  `json:"deadline"`
	UnwrapRequested bool    `json:"unwrap_requested"`
	PriceLocked     bool    `json:"price_locked"`
	LockedAt        *string `json:"locked_at"`
	LockedPriceA    *string `json:"locked_price_a"`
	LockedPriceB    *string `json:"locked_price_b"`
	RequiredAmountA *string `json:"required_amount_a"`
	RequiredAmountB *string `json:"required_amount_b"`
	FundedA         bool    `json:"funded_a"`
	FundedB         bool    `json:"funded_b"`
	CancelReason    *string `json:"cancel_reason"`
	CreatedAt       string  `json:"created_at"`
	SettledAt       *string `json:"settled_at"`
	CanceledAt      *string `json:"canceled_at"`
}

// listDealsResponse is the JSON response for GET /deals.
type listDealsResponse struct {
	Deals []dealResponse `json:"deals"`
}

// GetDeal handles GET /deals/{deal_id}.
func (h *DealHandler) GetDeal(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(chi.URLParam(r, "deal_id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "deal_id must be a positive integer")
		return
	}

	view, err := h.dealSvc.Get(id)
	if err != nil {
		mapDealError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, newDealResponse(view))
}

// ListDeals handles GET /deals.
func (h *DealHandler) ListDeals(w http.ResponseWriter, r *http.Request) {
	views := h.dealSvc.List()

	deals := make([]dealResponse, len(views))
	for i, v := range views {
		deals[i] = newDealResponse(v)
	}

	WriteJSON(w, http.StatusOK, listDealsResponse{Deals: deals})
}

func newDealResponse(v *service.DealView) dealResponse {
	return dealResponse{
		ID:              v.ID,
		PartyA:          v.PartyA,
		PartyB:          v.PartyB,
		Status:          string(v.Status),
		USDA:            v.USDA,
		USDB:            v.USDB,
		Deadline:        formatTime(v.Deadline),
		UnwrapRequested: v.UnwrapRequested,
		PriceLocked:     v.PriceLocked,
		LockedAt:        formatTimePtr(v.LockedAt),
		LockedPriceA:    v.LockedPriceA,
		LockedPriceB:    v.LockedPriceB,
		RequiredAmountA: v.RequiredAmountA,
		RequiredAmountB: v.RequiredAmountB,
		FundedA:         v.FundedA,
		FundedB:         v.FundedB,
		CancelReason:    v.CancelReason,
		CreatedAt:       formatTime(v.CreatedAt),
		SettledAt:       formatTimePtr(v.SettledAt),
		CanceledAt:      formatTimePtr(v.CanceledAt),
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

// mapDealError maps domain errors to HTTP responses for deal endpoints.
func mapDealError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDealNotFound):
		WriteError(w, http.StatusNotFound, "deal_not_found", err.Error())
	default:
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}
