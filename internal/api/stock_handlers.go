package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// SearchStocks handles GET /dashboard/stocks/search
func (h *Handler) SearchStocks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("query")
	if query == "" {
		badRequest(w, "query is required")
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			badRequest(w, "limit must be an integer")
			return
		}
		limit = n
	}

	results, err := h.stocks.Search(r.Context(), query, limit)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, results)
}

// GetStock handles GET /dashboard/stocks/{symbol}
func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	includeAI := true
	if raw := r.URL.Query().Get("include_ai_analysis"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequest(w, "include_ai_analysis must be true or false")
			return
		}
		includeAI = v
	}

	detail, err := h.stocks.Detail(r.Context(), symbol, includeAI)
	if err != nil {
		respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, detail)
}
