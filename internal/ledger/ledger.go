// Package ledger owns users' paper-trading holdings and values them against
// live quotes at read time.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/metrics"
	"github.com/trogers1052/portfolio-service/internal/models"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the ledger needs. Every write is atomic and every
// lookup by holding ID is scoped to the owning user.
type Store interface {
	CreateHolding(ctx context.Context, h *models.Holding) error
	GetHoldingsByUser(ctx context.Context, userID int64) ([]*models.Holding, error)
	GetHoldingForUser(ctx context.Context, id, userID int64) (*models.Holding, error)
	UpdateHoldingShares(ctx context.Context, id, userID, shares int64) (*models.Holding, error)
	DeleteHoldingForUser(ctx context.Context, id, userID int64) (*models.Holding, error)
}

// QuoteProvider resolves tickers and prices them.
//
// ResolveSymbol returns errs.ErrNotFound when the provider has no record of
// the ticker. GetQuote returns errs.ErrNotFound or errs.ErrUnavailable when
// no price can be had.
type QuoteProvider interface {
	ResolveSymbol(ctx context.Context, symbol string) (*models.CompanyProfile, error)
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// Notifier is told about committed writes. Failures are logged, never returned.
type Notifier interface {
	HoldingAdded(ctx context.Context, h *models.Holding) error
	HoldingUpdated(ctx context.Context, h *models.Holding) error
	HoldingRemoved(ctx context.Context, h *models.Holding) error
}

// Service is the portfolio ledger
type Service struct {
	store       Store
	quotes      QuoteProvider
	notifier    Notifier
	concurrency int
}

// New creates a ledger. notifier may be nil.
func New(store Store, quotes QuoteProvider, notifier Notifier, concurrency int) *Service {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		store:       store,
		quotes:      quotes,
		notifier:    notifier,
		concurrency: concurrency,
	}
}

// AddHolding records a purchase of shares of symbol at purchasePrice.
// The symbol must be resolvable by the quote provider; its company name is
// frozen on the new holding.
func (s *Service) AddHolding(ctx context.Context, userID int64, symbol string, shares int64, purchasePrice decimal.Decimal) (*models.ValuedHolding, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, s.fail("add", fmt.Errorf("symbol is required: %w", errs.ErrInvalidArgument))
	}
	if shares <= 0 {
		return nil, s.fail("add", fmt.Errorf("shares must be greater than 0: %w", errs.ErrInvalidArgument))
	}
	if !purchasePrice.IsPositive() {
		return nil, s.fail("add", fmt.Errorf("purchase price must be greater than 0: %w", errs.ErrInvalidArgument))
	}

	profile, err := s.quotes.ResolveSymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, s.fail("add", fmt.Errorf("stock symbol '%s' not found: %w", symbol, errs.ErrNotFound))
		}
		return nil, s.fail("add", fmt.Errorf("failed to resolve symbol %s: %w", symbol, err))
	}
	if profile == nil {
		return nil, s.fail("add", fmt.Errorf("stock symbol '%s' not found: %w", symbol, errs.ErrNotFound))
	}

	companyName := profile.CompanyName
	if companyName == "" {
		companyName = symbol
	}

	h := &models.Holding{
		UserID:        userID,
		Symbol:        symbol,
		CompanyName:   companyName,
		Shares:        shares,
		PurchasePrice: purchasePrice,
	}
	if err := s.store.CreateHolding(ctx, h); err != nil {
		return nil, s.fail("add", err)
	}
	metrics.LedgerOperations.WithLabelValues("add", "ok").Inc()
	s.notify(ctx, eventAdded, h)

	// The profile that resolved the symbol already carries a live price.
	current := profile.Price
	if !current.IsPositive() {
		current = h.PurchasePrice
	}
	return &models.ValuedHolding{Holding: *h, Valuation: Value(h.Shares, h.PurchasePrice, current)}, nil
}

// ListHoldings returns every holding of userID valued at live prices.
// A holding whose quote cannot be fetched is valued at its purchase price.
func (s *Service) ListHoldings(ctx context.Context, userID int64) ([]*models.ValuedHolding, error) {
	holdings, err := s.store.GetHoldingsByUser(ctx, userID)
	if err != nil {
		return nil, s.fail("list", err)
	}

	valued := make([]*models.ValuedHolding, len(holdings))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, h := range holdings {
		g.Go(func() error {
			valued[i] = &models.ValuedHolding{
				Holding:   *h,
				Valuation: Value(h.Shares, h.PurchasePrice, s.currentPrice(gctx, h)),
			}
			return nil
		})
	}
	// currentPrice never fails, so neither does the group.
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, s.fail("list", err)
	}

	metrics.LedgerOperations.WithLabelValues("list", "ok").Inc()
	return valued, nil
}

// GetHolding returns one owned holding valued at its live price
func (s *Service) GetHolding(ctx context.Context, userID, holdingID int64) (*models.ValuedHolding, error) {
	h, err := s.store.GetHoldingForUser(ctx, holdingID, userID)
	if err != nil {
		return nil, s.fail("get", err)
	}
	current := s.currentPrice(ctx, h)
	if err := ctx.Err(); err != nil {
		return nil, s.fail("get", err)
	}
	metrics.LedgerOperations.WithLabelValues("get", "ok").Inc()
	return &models.ValuedHolding{Holding: *h, Valuation: Value(h.Shares, h.PurchasePrice, current)}, nil
}

// GetSummary values the portfolio once and aggregates those same valuations
func (s *Service) GetSummary(ctx context.Context, userID int64) (*models.PortfolioSummary, error) {
	holdings, err := s.ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Summarize(holdings), nil
}

// RemoveHolding deletes an owned holding. Holdings of other users are reported as not found.
func (s *Service) RemoveHolding(ctx context.Context, userID, holdingID int64) error {
	h, err := s.store.DeleteHoldingForUser(ctx, holdingID, userID)
	if err != nil {
		return s.fail("remove", err)
	}
	metrics.LedgerOperations.WithLabelValues("remove", "ok").Inc()
	s.notify(ctx, eventRemoved, h)
	return nil
}

// UpdateShares sets the share count of an owned holding. Zero or negative
// counts are rejected; liquidation goes through RemoveHolding.
func (s *Service) UpdateShares(ctx context.Context, userID, holdingID, shares int64) (*models.ValuedHolding, error) {
	if shares <= 0 {
		return nil, s.fail("update", fmt.Errorf("shares must be greater than 0: %w", errs.ErrInvalidArgument))
	}

	h, err := s.store.UpdateHoldingShares(ctx, holdingID, userID, shares)
	if err != nil {
		return nil, s.fail("update", err)
	}
	metrics.LedgerOperations.WithLabelValues("update", "ok").Inc()
	s.notify(ctx, eventUpdated, h)

	return &models.ValuedHolding{Holding: *h, Valuation: Value(h.Shares, h.PurchasePrice, s.currentPrice(ctx, h))}, nil
}

// currentPrice fetches a live quote for h, falling back to its purchase price
func (s *Service) currentPrice(ctx context.Context, h *models.Holding) decimal.Decimal {
	quote, err := s.quotes.GetQuote(ctx, h.Symbol)
	if err == nil && quote != nil && quote.Price.IsPositive() {
		metrics.QuoteRequests.WithLabelValues("ok").Inc()
		return quote.Price
	}
	// A cancelled caller is not a provider failure.
	if ctx.Err() != nil {
		return h.PurchasePrice
	}

	metrics.QuoteRequests.WithLabelValues("error").Inc()
	metrics.QuoteFallbacks.Inc()
	log.WithFields(log.Fields{
		"symbol":     h.Symbol,
		"holding_id": h.ID,
		"error":      err,
	}).Warn("quote unavailable, valuing holding at purchase price")
	return h.PurchasePrice
}

type event string

const (
	eventAdded   event = "added"
	eventUpdated event = "updated"
	eventRemoved event = "removed"
)

func (s *Service) notify(ctx context.Context, ev event, h *models.Holding) {
	if s.notifier == nil || h == nil {
		return
	}

	var err error
	switch ev {
	case eventAdded:
		err = s.notifier.HoldingAdded(ctx, h)
	case eventUpdated:
		err = s.notifier.HoldingUpdated(ctx, h)
	case eventRemoved:
		err = s.notifier.HoldingRemoved(ctx, h)
	}
	if err != nil {
		log.WithFields(log.Fields{
			"holding_id": h.ID,
			"user_id":    h.UserID,
			"error":      err,
		}).Warnf("failed to publish holding %s event", ev)
	}
}

func (s *Service) fail(op string, err error) error {
	metrics.LedgerOperations.WithLabelValues(op, "error").Inc()
	return err
}
