package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is one persisted lot of a user's simulated position in a ticker.
// PurchasePrice and CompanyName are fixed at creation.
type Holding struct {
	ID            int64           `json:"id"`
	UserID        int64           `json:"user_id"`
	Symbol        string          `json:"symbol"`
	CompanyName   string          `json:"company_name"`
	Shares        int64           `json:"shares"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	PurchasedAt   time.Time       `json:"purchased_at"`
}

// Valuation is the derived, unstored view of a holding at a live price
type Valuation struct {
	CurrentPrice    decimal.Decimal `json:"current_price"`
	TotalValue      decimal.Decimal `json:"total_value"`
	Invested        decimal.Decimal `json:"-"`
	GainLoss        decimal.Decimal `json:"gain_loss"`
	GainLossPercent decimal.Decimal `json:"gain_loss_percent"`
}

// ValuedHolding is a holding together with its valuation
type ValuedHolding struct {
	Holding
	Valuation
}

// PortfolioSummary aggregates all of a user's valued holdings
type PortfolioSummary struct {
	TotalInvested        decimal.Decimal  `json:"total_invested"`
	CurrentValue         decimal.Decimal  `json:"current_value"`
	TotalGainLoss        decimal.Decimal  `json:"total_gain_loss"`
	TotalGainLossPercent decimal.Decimal  `json:"total_gain_loss_percent"`
	Holdings             []*ValuedHolding `json:"holdings"`
}
