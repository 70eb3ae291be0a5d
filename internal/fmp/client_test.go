package fmp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/portfolio-service/internal/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient("test-key", srv.URL, 5*time.Second)
}

func TestGetQuote_FirstElement(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote/AAPL", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("apikey"))
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","name":"Apple Inc.","price":189.25},{"symbol":"AAPL","price":1}]`))
	})

	q, err := c.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.True(t, decimal.RequireFromString("189.25").Equal(q.Price))
}

func TestGetQuote_EmptyListIsNotFound(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.GetQuote(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestGetQuote_Non200IsUnavailable(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := c.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnavailable))
}

func TestGetQuote_TransportFailureIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := NewClient("k", srv.URL, time.Second)
	srv.Close()

	_, err := c.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnavailable))
}

func TestGetQuote_TimeoutIsUnavailable(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := NewClient("k", srv.URL, 50*time.Millisecond)
	_, err := c.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrUnavailable))
}

func TestResolveSymbol(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/profile/MSFT", r.URL.Path)
		_, _ = w.Write([]byte(`[{"symbol":"MSFT","companyName":"Microsoft Corporation","price":410.5,"exchangeShortName":"NASDAQ","sector":"Technology","industry":"Software"}]`))
	})

	p, err := c.ResolveSymbol(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "Microsoft Corporation", p.CompanyName)
	assert.Equal(t, "NASDAQ", p.Exchange)
	assert.Equal(t, "Technology", p.Sector)
	assert.True(t, decimal.RequireFromString("410.5").Equal(p.Price))
}

func TestResolveSymbol_Unknown(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	_, err := c.ResolveSymbol(context.Background(), "ZZZZ")
	assert.True(t, errors.Is(err, errs.ErrNotFound))
}

func TestSearchStocks(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "apple", r.URL.Query().Get("query"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		_, _ = w.Write([]byte(`[{"symbol":"AAPL","name":"Apple Inc.","exchangeFullName":"NASDAQ Global Select","exchangeShortName":"NASDAQ","type":"stock"}]`))
	})

	results, err := c.SearchStocks(context.Background(), "apple", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "AAPL", results[0].Symbol)
	assert.Equal(t, "NASDAQ Global Select", results[0].Exchange)
	assert.Equal(t, "stock", results[0].StockType)
}

func TestGetPriceHistory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/historical-price-full/AAPL", r.URL.Path)
		assert.Equal(t, "2026-01-01", r.URL.Query().Get("from"))
		assert.Equal(t, "2026-01-31", r.URL.Query().Get("to"))
		_, _ = w.Write([]byte(`{"symbol":"AAPL","historical":[{"date":"2026-01-30","open":1.5,"high":2,"low":1,"close":1.75,"volume":12345}]}`))
	})
	c.now = func() time.Time { return time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC) }

	points, err := c.GetPriceHistory(context.Background(), "AAPL", 0)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, "2026-01-30", points[0].Date)
	assert.Equal(t, int64(12345), points[0].Volume)
	assert.True(t, decimal.RequireFromString("1.75").Equal(points[0].Close))
}

func TestGetKeyMetrics(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"peRatioTTM":28.4,"pbRatioTTM":null,"priceToSalesRatioTTM":7.1}]`))
	})

	m, err := c.GetKeyMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	require.NotNil(t, m.PERatio)
	assert.InDelta(t, 28.4, *m.PERatio, 1e-9)
	assert.Nil(t, m.PBRatio)
	require.NotNil(t, m.PSRatio)
	assert.Nil(t, m.EVEBITDA)
}

func TestGetKeyMetrics_Empty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	})

	m, err := c.GetKeyMetrics(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Nil(t, m.PERatio)
	assert.Nil(t, m.PBRatio)
	assert.Nil(t, m.PSRatio)
	assert.Nil(t, m.EVEBITDA)
}

func TestGetStockNews(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/stock_news", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("tickers"))
		_, _ = w.Write([]byte(`[{"title":"Apple beats","url":"https://x/1","publishedDate":"2026-01-30 10:00:00","site":"Reuters"}]`))
	})

	news, err := c.GetStockNews(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, "Apple beats", news[0].Title)
	assert.Equal(t, "Reuters", news[0].Source)
}

func TestGetJSON_MalformedBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := c.GetQuote(context.Background(), "AAPL")
	require.Error(t, err)
	assert.False(t, errors.Is(err, errs.ErrNotFound))
}
