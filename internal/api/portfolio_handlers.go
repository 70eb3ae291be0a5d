package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-service/internal/auth"
)

type addHoldingRequest struct {
	Symbol        string          `json:"symbol"`
	Shares        int64           `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
}

type updateSharesRequest struct {
	Shares int64 `json:"shares"`
}

// GetPortfolio handles GET /dashboard/portfolio
func (h *Handler) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	summary, err := h.portfolio.GetSummary(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// ListHoldings handles GET /dashboard/portfolio/holdings
func (h *Handler) ListHoldings(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	holdings, err := h.portfolio.ListHoldings(r.Context(), userID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, holdings)
}

// GetHolding handles GET /dashboard/portfolio/holdings/{id}
func (h *Handler) GetHolding(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	holdingID, ok := holdingIDFromPath(w, r)
	if !ok {
		return
	}

	holding, err := h.portfolio.GetHolding(r.Context(), userID, holdingID)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, holding)
}

// AddHolding handles POST /dashboard/portfolio/holdings
func (h *Handler) AddHolding(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	var req addHoldingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Symbol == "" {
		badRequest(w, "symbol is required")
		return
	}
	if req.Shares <= 0 {
		badRequest(w, "shares must be a whole number greater than 0")
		return
	}
	if !req.PurchasePrice.IsPositive() {
		badRequest(w, "purchase_price must be greater than 0")
		return
	}

	holding, err := h.portfolio.AddHolding(r.Context(), userID, req.Symbol, req.Shares, req.PurchasePrice)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, holding)
}

// UpdateHolding handles PATCH /dashboard/portfolio/holdings/{id}. The new
// share count comes from the shares query parameter or a JSON body.
func (h *Handler) UpdateHolding(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	holdingID, ok := holdingIDFromPath(w, r)
	if !ok {
		return
	}

	var shares int64
	if raw := r.URL.Query().Get("shares"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			badRequest(w, "shares must be a whole number")
			return
		}
		shares = n
	} else {
		var req updateSharesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			badRequest(w, "shares is required")
			return
		}
		shares = req.Shares
	}
	if shares <= 0 {
		badRequest(w, "shares must be greater than 0")
		return
	}

	holding, err := h.portfolio.UpdateShares(r.Context(), userID, holdingID, shares)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, holding)
}

// RemoveHolding handles DELETE /dashboard/portfolio/holdings/{id}
func (h *Handler) RemoveHolding(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.UserIDFromContext(r.Context())

	holdingID, ok := holdingIDFromPath(w, r)
	if !ok {
		return
	}

	if err := h.portfolio.RemoveHolding(r.Context(), userID, holdingID); err != nil {
		respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func holdingIDFromPath(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		badRequest(w, "invalid holding id")
		return 0, false
	}
	return id, true
}
