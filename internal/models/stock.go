package models

import "github.com/shopspring/decimal"

// StockSearchResult is one match of a ticker/company search
type StockSearchResult struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	Exchange          string `json:"exchange,omitempty"`
	ExchangeShortName string `json:"exchange_short_name,omitempty"`
	StockType         string `json:"stock_type,omitempty"`
}

// CompanyProfile is the subset of provider profile data the service uses
type CompanyProfile struct {
	Symbol      string          `json:"symbol"`
	CompanyName string          `json:"company_name"`
	Price       decimal.Decimal `json:"price"`
	Exchange    string          `json:"exchange,omitempty"`
	Sector      string          `json:"sector,omitempty"`
	Industry    string          `json:"industry,omitempty"`
}

// Quote is a live price for a symbol
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
}

// PricePoint is one daily OHLCV bar
type PricePoint struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`
}

// PriceMultiples holds trailing valuation ratios. Nil means not reported.
type PriceMultiples struct {
	PERatio  *float64 `json:"pe_ratio"`
	PBRatio  *float64 `json:"pb_ratio"`
	PSRatio  *float64 `json:"ps_ratio"`
	EVEBITDA *float64 `json:"ev_ebitda"`
}

type NewsHeadline struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	PublishedDate string `json:"published_date"`
	Source        string `json:"source,omitempty"`
}

const (
	SentimentBullish = "Bullish"
	SentimentBearish = "Bearish"
	SentimentNeutral = "Neutral"
)

// NewsSentiment is the model's read of recent headlines
type NewsSentiment struct {
	OverallSentimentScore float64        `json:"overall_sentiment_score"`
	SentimentLabel        string         `json:"sentiment_label"`
	TopHeadlines          []NewsHeadline `json:"top_headlines"`
	AnalysisSummary       string         `json:"analysis_summary"`
}

// AIValuationSummary is the model's read of the price multiples
type AIValuationSummary struct {
	Summary        string   `json:"summary"`
	Recommendation string   `json:"recommendation"`
	KeyInsights    []string `json:"key_insights"`
}

// StockDetail is the full dashboard view of one ticker
type StockDetail struct {
	Symbol         string              `json:"symbol"`
	CompanyName    string              `json:"company_name"`
	CurrentPrice   decimal.Decimal     `json:"current_price"`
	PriceHistory   []PricePoint        `json:"price_history"`
	PriceMultiples PriceMultiples      `json:"price_multiples"`
	NewsSentiment  *NewsSentiment      `json:"news_sentiment,omitempty"`
	AIValuation    *AIValuationSummary `json:"ai_valuation,omitempty"`
}
