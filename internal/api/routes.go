package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/trogers1052/portfolio-service/internal/auth"
	"github.com/trogers1052/portfolio-service/internal/metrics"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Use(metrics.Middleware)
	requireAuth := auth.Middleware(handler.auth)

	r.HandleFunc("/", handler.Index).Methods(http.MethodGet)
	r.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Auth routes
	a := r.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/signup", handler.Signup).Methods(http.MethodPost)
	a.HandleFunc("/login", handler.Login).Methods(http.MethodPost)
	a.HandleFunc("/refresh", handler.Refresh).Methods(http.MethodPost)
	a.HandleFunc("/logout", handler.Logout).Methods(http.MethodPost)
	a.Handle("/me", requireAuth(http.HandlerFunc(handler.Me))).Methods(http.MethodGet)

	// Dashboard routes, all authenticated
	d := r.PathPrefix("/dashboard").Subrouter()
	d.Use(requireAuth)
	d.HandleFunc("", handler.DashboardHome).Methods(http.MethodGet)
	d.HandleFunc("/stocks/search", handler.SearchStocks).Methods(http.MethodGet)
	d.HandleFunc("/stocks/{symbol}", handler.GetStock).Methods(http.MethodGet)

	d.HandleFunc("/portfolio", handler.GetPortfolio).Methods(http.MethodGet)
	d.HandleFunc("/portfolio/holdings", handler.ListHoldings).Methods(http.MethodGet)
	d.HandleFunc("/portfolio/holdings", handler.AddHolding).Methods(http.MethodPost)
	d.HandleFunc("/portfolio/holdings/{id}", handler.GetHolding).Methods(http.MethodGet)
	d.HandleFunc("/portfolio/holdings/{id}", handler.UpdateHolding).Methods(http.MethodPatch)
	d.HandleFunc("/portfolio/holdings/{id}", handler.RemoveHolding).Methods(http.MethodDelete)

	return r
}
