package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/carttrack/internal/models"
)

// moneyPlaces is the number of decimal places every amount is rounded to.
const moneyPlaces = 2

// HistorySummary aggregates totals across a list of sessions.
type HistorySummary struct {
	Sessions   int
	Items      int // Sum of quantities, not distinct line entries
	GrandTotal decimal.Decimal
}

// RoundPrice rounds a price to two decimals.
func RoundPrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(moneyPlaces).InexactFloat64()
}

// LineTotal computes price × quantity for one item.
func LineTotal(item models.Item) decimal.Decimal {
	return decimal.NewFromFloat(item.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
}

// SessionTotal computes the cart total for a session.
// The total is never stored; callers recompute it on every read.
func SessionTotal(s *models.Session) decimal.Decimal {
	total := decimal.Zero
	if s == nil {
		return total
	}
	for _, item := range s.Items {
		total = total.Add(LineTotal(item))
	}
	return total.Round(moneyPlaces)
}

// Summarize computes the number of sessions, units bought and the grand
// total over all of them.
func Summarize(sessions []models.Session) HistorySummary {
	summary := HistorySummary{GrandTotal: decimal.Zero}
	for i := range sessions {
		summary.Sessions++
		for _, item := range sessions[i].Items {
			summary.Items += item.Quantity
		}
		summary.GrandTotal = summary.GrandTotal.Add(SessionTotal(&sessions[i]))
	}
	summary.GrandTotal = summary.GrandTotal.Round(moneyPlaces)
	return summary
}
