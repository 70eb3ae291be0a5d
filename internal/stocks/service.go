// Package stocks serves ticker search and the per-stock dashboard view.
package stocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50

	historyDays = 30
	newsLimit   = 10
)

// MarketData is the market-data provider
type MarketData interface {
	SearchStocks(ctx context.Context, query string, limit int) ([]models.StockSearchResult, error)
	GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error)
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
	GetPriceHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error)
	GetKeyMetrics(ctx context.Context, symbol string) (*models.PriceMultiples, error)
	GetStockNews(ctx context.Context, symbol string, limit int) ([]models.NewsHeadline, error)
}

// Analyzer writes model commentary
type Analyzer interface {
	AnalyzeNewsSentiment(ctx context.Context, symbol, companyName string, headlines []models.NewsHeadline) (*models.NewsSentiment, error)
	ValuationSummary(ctx context.Context, symbol, companyName string, price decimal.Decimal, multiples models.PriceMultiples) (*models.AIValuationSummary, error)
}

// Cache stores model output. A miss is errs.ErrNotFound.
type Cache interface {
	GetJSON(ctx context.Context, key string, out any) error
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type Service struct {
	market   MarketData
	analyzer Analyzer
	cache    Cache
	cacheTTL time.Duration
}

// NewService creates the stock service. analyzer and cache may be nil.
func NewService(market MarketData, analyzer Analyzer, cache Cache, cacheTTL time.Duration) *Service {
	return &Service{
		market:   market,
		analyzer: analyzer,
		cache:    cache,
		cacheTTL: cacheTTL,
	}
}

// Search finds tickers or companies matching query. limit is clamped to 1..50;
// zero selects the default of 10.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]models.StockSearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required: %w", errs.ErrInvalidArgument)
	}
	switch {
	case limit == 0:
		limit = DefaultSearchLimit
	case limit < 1:
		limit = 1
	case limit > MaxSearchLimit:
		limit = MaxSearchLimit
	}

	return s.market.SearchStocks(ctx, query, limit)
}

// Detail assembles the dashboard view of symbol
func (s *Service) Detail(ctx context.Context, symbol string, includeAI bool) (*models.StockDetail, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("symbol is required: %w", errs.ErrInvalidArgument)
	}

	profile, err := s.market.GetProfile(ctx, symbol)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, fmt.Errorf("stock symbol '%s' not found: %w", symbol, errs.ErrNotFound)
		}
		return nil, err
	}

	companyName := profile.CompanyName
	if companyName == "" {
		companyName = symbol
	}
	detail := &models.StockDetail{
		Symbol:       symbol,
		CompanyName:  companyName,
		CurrentPrice: decimal.Zero,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		quote, err := s.market.GetQuote(gctx, symbol)
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		detail.CurrentPrice = quote.Price
		return nil
	})
	g.Go(func() error {
		history, err := s.market.GetPriceHistory(gctx, symbol, historyDays)
		if err != nil {
			return err
		}
		detail.PriceHistory = history
		return nil
	})
	g.Go(func() error {
		multiples, err := s.market.GetKeyMetrics(gctx, symbol)
		if err != nil {
			return err
		}
		detail.PriceMultiples = *multiples
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", symbol, err)
	}
	if detail.PriceHistory == nil {
		detail.PriceHistory = []models.PricePoint{}
	}

	if includeAI && s.analyzer != nil {
		s.attachAnalysis(ctx, detail)
	}
	return detail, nil
}

// attachAnalysis adds sentiment and valuation commentary. Model failures
// leave the corresponding field empty.
func (s *Service) attachAnalysis(ctx context.Context, detail *models.StockDetail) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sentiment, err := cached(gctx, s, "sentiment", detail.Symbol, func() (*models.NewsSentiment, error) {
			news, err := s.market.GetStockNews(gctx, detail.Symbol, newsLimit)
			if err != nil {
				return nil, err
			}
			return s.analyzer.AnalyzeNewsSentiment(gctx, detail.Symbol, detail.CompanyName, news)
		})
		if err != nil {
			log.WithError(err).WithField("symbol", detail.Symbol).Warn("news sentiment unavailable")
			return nil
		}
		detail.NewsSentiment = sentiment
		return nil
	})

	g.Go(func() error {
		valuation, err := cached(gctx, s, "valuation", detail.Symbol, func() (*models.AIValuationSummary, error) {
			return s.analyzer.ValuationSummary(gctx, detail.Symbol, detail.CompanyName, detail.CurrentPrice, detail.PriceMultiples)
		})
		if err != nil {
			log.WithError(err).WithField("symbol", detail.Symbol).Warn("valuation summary unavailable")
			return nil
		}
		detail.AIValuation = valuation
		return nil
	})

	_ = g.Wait()
}

// cached returns the cached value under kind/symbol, computing and storing it on a miss
func cached[T any](ctx context.Context, s *Service, kind, symbol string, compute func() (*T, error)) (*T, error) {
	key := fmt.Sprintf("analysis:%s:%s", kind, symbol)

	if s.cache != nil {
		var hit T
		err := s.cache.GetJSON(ctx, key, &hit)
		if err == nil {
			return &hit, nil
		}
		if !errors.Is(err, errs.ErrNotFound) {
			log.WithError(err).WithField("key", key).Warn("analysis cache read failed")
		}
	}

	v, err := compute()
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, v, s.cacheTTL); err != nil {
			log.WithError(err).WithField("key", key).Warn("analysis cache write failed")
		}
	}
	return v, nil
}
