package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/models"
)

// Portfolio is the paper-trading ledger
type Portfolio interface {
	AddHolding(ctx context.Context, userID int64, symbol string, shares int64, purchasePrice decimal.Decimal) (*models.ValuedHolding, error)
	ListHoldings(ctx context.Context, userID int64) ([]*models.ValuedHolding, error)
	GetHolding(ctx context.Context, userID, holdingID int64) (*models.ValuedHolding, error)
	GetSummary(ctx context.Context, userID int64) (*models.PortfolioSummary, error)
	RemoveHolding(ctx context.Context, userID, holdingID int64) error
	UpdateShares(ctx context.Context, userID, holdingID, shares int64) (*models.ValuedHolding, error)
}

// Stocks serves search and per-ticker detail
type Stocks interface {
	Search(ctx context.Context, query string, limit int) ([]models.StockSearchResult, error)
	Detail(ctx context.Context, symbol string, includeAI bool) (*models.StockDetail, error)
}

// Auth manages accounts and tokens
type Auth interface {
	Signup(ctx context.Context, email, username, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (*models.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	Me(ctx context.Context, userID int64) (*models.User, error)
	Authenticate(accessToken string) (int64, error)
}

// Pinger is a backing service that can report its health
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the handler's collaborators. Redis is optional.
type Deps struct {
	Portfolio    Portfolio
	Stocks       Stocks
	Auth         Auth
	DB           Pinger
	Redis        Pinger
	KafkaEnabled bool
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	portfolio    Portfolio
	stocks       Stocks
	auth         Auth
	db           Pinger
	redis        Pinger
	kafkaEnabled bool
}

// NewHandler creates a new Handler
func NewHandler(d Deps) *Handler {
	return &Handler{
		portfolio:    d.Portfolio,
		stocks:       d.Stocks,
		auth:         d.Auth,
		db:           d.DB,
		redis:        d.Redis,
		kafkaEnabled: d.KafkaEnabled,
	}
}

// Index handles GET /
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"app":     "portfolio-service",
		"message": "Paper-trading portfolio with market data and AI stock analysis",
		"endpoints": map[string]string{
			"auth":      "/auth",
			"dashboard": "/dashboard",
			"portfolio": "/dashboard/portfolio",
			"health":    "/health",
			"metrics":   "/metrics",
		},
	})
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	health := map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	services := map[string]string{}
	allHealthy := true

	// Check database
	if h.db != nil {
		if err := h.db.Ping(ctx); err != nil {
			services["postgres"] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			services["postgres"] = "healthy"
		}
	} else {
		services["postgres"] = "not configured"
		allHealthy = false
	}

	// Check Redis
	if h.redis != nil {
		if err := h.redis.Ping(ctx); err != nil {
			services["redis"] = "unhealthy: " + err.Error()
		} else {
			services["redis"] = "healthy"
		}
	} else {
		services["redis"] = "not configured"
	}

	if h.kafkaEnabled {
		services["kafka"] = "configured"
	} else {
		services["kafka"] = "not configured"
	}

	health["services"] = services
	if !allHealthy {
		health["status"] = "degraded"
	}

	respondJSON(w, http.StatusOK, health)
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Warn("failed to encode response")
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// respondError maps the error taxonomy onto an HTTP status
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, errs.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, errs.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, errs.ErrAlreadyExists):
		status, code = http.StatusConflict, "already_exists"
	case errors.Is(err, errs.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrUnavailable):
		status, code = http.StatusServiceUnavailable, "unavailable"
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		log.WithFields(log.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(err).Error("request failed")
		message = "internal server error"
	}

	respondJSON(w, status, errorResponse{Error: code, Message: message})
}

func badRequest(w http.ResponseWriter, message string) {
	respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid_argument", Message: message})
}
