package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/trogers1052/portfolio-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Value computes the valuation of shares bought at purchasePrice when the
// market trades at currentPrice. Every call site that reports a holding's
// value goes through here.
func Value(shares int64, purchasePrice, currentPrice decimal.Decimal) models.Valuation {
	qty := decimal.NewFromInt(shares)
	total := currentPrice.Mul(qty)
	invested := purchasePrice.Mul(qty)
	gain := total.Sub(invested)

	return models.Valuation{
		CurrentPrice:    currentPrice,
		TotalValue:      total,
		Invested:        invested,
		GainLoss:        gain,
		GainLossPercent: percentOf(gain, invested),
	}
}

// Summarize aggregates already-valued holdings. The holdings are not re-priced.
func Summarize(holdings []*models.ValuedHolding) *models.PortfolioSummary {
	invested := decimal.Zero
	current := decimal.Zero
	for _, h := range holdings {
		invested = invested.Add(h.Invested)
		current = current.Add(h.TotalValue)
	}
	gain := current.Sub(invested)

	if holdings == nil {
		holdings = []*models.ValuedHolding{}
	}
	return &models.PortfolioSummary{
		TotalInvested:        invested,
		CurrentValue:         current,
		TotalGainLoss:        gain,
		TotalGainLossPercent: percentOf(gain, invested),
		Holdings:             holdings,
	}
}

// percentOf returns gain / base * 100, or zero when base is not positive
func percentOf(gain, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return gain.Div(base).Mul(hundred)
}
