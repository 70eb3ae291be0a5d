package fmp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/trogers1052/portfolio-service/internal/errs"
	"github.com/trogers1052/portfolio-service/internal/models"
)

// Financial Modeling Prep is a market data REST API.
// https://site.financialmodelingprep.com/developer/docs
const DefaultBaseURL = "https://financialmodelingprep.com/api/v3"

// DefaultHistoryDays is the window GetPriceHistory uses when days is not positive
const DefaultHistoryDays = 30

// Client is an HTTP client for the FMP v3 API.
//
// The quote and profile endpoints answer with a JSON list. An empty list
// means the provider does not know the symbol and is reported as
// errs.ErrNotFound; otherwise the first element is the answer. Transport
// failures and non-200 responses are reported as errs.ErrUnavailable.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewClient creates a client. Every request shares the one timeout.
func NewClient(apiKey, baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
}

// SearchStocks finds tickers and companies matching query
func (c *Client) SearchStocks(ctx context.Context, query string, limit int) ([]models.StockSearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("limit", strconv.Itoa(limit))

	var items []searchItem
	if err := c.getJSON(ctx, "/search", params, &items); err != nil {
		return nil, err
	}

	results := make([]models.StockSearchResult, 0, len(items))
	for _, item := range items {
		results = append(results, models.StockSearchResult{
			Symbol:            item.Symbol,
			Name:              item.Name,
			Exchange:          item.ExchangeFullName,
			ExchangeShortName: item.ExchangeShortName,
			StockType:         item.Type,
		})
	}
	return results, nil
}

// GetQuote fetches the live price of symbol
func (c *Client) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	var items []quoteItem
	if err := c.getJSON(ctx, "/quote/"+url.PathEscape(symbol), nil, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no quote for %s: %w", symbol, errs.ErrNotFound)
	}

	return &models.Quote{Symbol: symbol, Price: items[0].Price}, nil
}

// GetProfile fetches the company profile of symbol
func (c *Client) GetProfile(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	var items []profileItem
	if err := c.getJSON(ctx, "/profile/"+url.PathEscape(symbol), nil, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("no profile for %s: %w", symbol, errs.ErrNotFound)
	}

	p := items[0]
	return &models.CompanyProfile{
		Symbol:      symbol,
		CompanyName: p.CompanyName,
		Price:       p.Price,
		Exchange:    p.ExchangeShortName,
		Sector:      p.Sector,
		Industry:    p.Industry,
	}, nil
}

// ResolveSymbol confirms symbol is known and returns its profile
func (c *Client) ResolveSymbol(ctx context.Context, symbol string) (*models.CompanyProfile, error) {
	return c.GetProfile(ctx, symbol)
}

// GetPriceHistory fetches daily bars for the last days days, newest first
func (c *Client) GetPriceHistory(ctx context.Context, symbol string, days int) ([]models.PricePoint, error) {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	end := c.now()
	start := end.AddDate(0, 0, -days)

	params := url.Values{}
	params.Set("from", start.Format("2006-01-02"))
	params.Set("to", end.Format("2006-01-02"))

	var resp historicalResponse
	if err := c.getJSON(ctx, "/historical-price-full/"+url.PathEscape(symbol), params, &resp); err != nil {
		return nil, err
	}

	points := make([]models.PricePoint, 0, len(resp.Historical))
	for _, h := range resp.Historical {
		points = append(points, models.PricePoint{
			Date:   h.Date,
			Open:   h.Open,
			High:   h.High,
			Low:    h.Low,
			Close:  h.Close,
			Volume: int64(h.Volume),
		})
	}
	return points, nil
}

// GetKeyMetrics fetches trailing price multiples. Missing data yields all-nil multiples.
func (c *Client) GetKeyMetrics(ctx context.Context, symbol string) (*models.PriceMultiples, error) {
	var items []keyMetricsItem
	if err := c.getJSON(ctx, "/key-metrics-ttm/"+url.PathEscape(symbol), nil, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return &models.PriceMultiples{}, nil
	}

	m := items[0]
	return &models.PriceMultiples{
		PERatio:  m.PERatio,
		PBRatio:  m.PBRatio,
		PSRatio:  m.PSRatio,
		EVEBITDA: m.EVEBITDA,
	}, nil
}

// GetStockNews fetches recent headlines for symbol
func (c *Client) GetStockNews(ctx context.Context, symbol string, limit int) ([]models.NewsHeadline, error) {
	params := url.Values{}
	params.Set("tickers", symbol)
	params.Set("limit", strconv.Itoa(limit))

	var items []newsItem
	if err := c.getJSON(ctx, "/stock_news", params, &items); err != nil {
		return nil, err
	}

	headlines := make([]models.NewsHeadline, 0, len(items))
	for _, item := range items {
		headlines = append(headlines, models.NewsHeadline{
			Title:         item.Title,
			URL:           item.URL,
			PublishedDate: item.PublishedDate,
			Source:        item.Site,
		})
	}
	return headlines, nil
}

// getJSON performs a GET against path and decodes the body into out
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	resp, err := c.doRequest(ctx, path, params)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, path string, params url.Values) (*http.Response, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", c.apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w: %w", path, err, errs.ErrUnavailable)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("FMP returned status %d for %s: %w", resp.StatusCode, path, errs.ErrUnavailable)
	}

	return resp, nil
}
