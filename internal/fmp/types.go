package fmp

import "github.com/shopspring/decimal"

// searchItem is one element of the /search response
type searchItem struct {
	Symbol            string `json:"symbol"`
	Name              string `json:"name"`
	ExchangeFullName  string `json:"exchangeFullName"`
	ExchangeShortName string `json:"exchangeShortName"`
	Type              string `json:"type"`
}

// quoteItem is one element of the /quote/{symbol} response
type quoteItem struct {
	Symbol string          `json:"symbol"`
	Name   string          `json:"name"`
	Price  decimal.Decimal `json:"price"`
}

// profileItem is one element of the /profile/{symbol} response
type profileItem struct {
	Symbol            string          `json:"symbol"`
	CompanyName       string          `json:"companyName"`
	Price             decimal.Decimal `json:"price"`
	ExchangeShortName string          `json:"exchangeShortName"`
	Sector            string          `json:"sector"`
	Industry          string          `json:"industry"`
}

// historicalResponse represents the /historical-price-full/{symbol} response
type historicalResponse struct {
	Symbol     string           `json:"symbol"`
	Historical []historicalItem `json:"historical"`
}

type historicalItem struct {
	Date   string          `json:"date"`
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume float64         `json:"volume"`
}

// keyMetricsItem is one element of the /key-metrics-ttm/{symbol} response
type keyMetricsItem struct {
	PERatio  *float64 `json:"peRatioTTM"`
	PBRatio  *float64 `json:"pbRatioTTM"`
	PSRatio  *float64 `json:"priceToSalesRatioTTM"`
	EVEBITDA *float64 `json:"enterpriseValueOverEBITDATTM"`
}

// newsItem is one element of the /stock_news response
type newsItem struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	PublishedDate string `json:"publishedDate"`
	Site          string `json:"site"`
}
