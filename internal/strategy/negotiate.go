package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Action string

const (
	ActionAccept  Action = "accept"
	ActionCounter Action = "counter"
	ActionReject  Action = "reject"
)

var (
	acceptSpread  = decimal.RequireFromString("0.01")
	counterSpread = decimal.RequireFromString("0.05")
	two           = decimal.NewFromInt(2)
)

// Negotiation is the entry-price outcome. Price is nil on reject.
type Negotiation struct {
	Action    Action           `json:"action"`
	Price     *decimal.Decimal `json:"price"`
	Spread    decimal.Decimal  `json:"spread"`
	Rationale string           `json:"rationale"`
}

// RelativeSpread returns |target - current| / current.
func RelativeSpread(current, target decimal.Decimal) (decimal.Decimal, error) {
	if !current.IsPositive() {
		return decimal.Zero, fmt.Errorf("current price must be positive, got %s", current)
	}
	return target.Sub(current).Abs().Div(current), nil
}

// Midpoint returns the arithmetic mean of two prices.
func Midpoint(a, b decimal.Decimal) decimal.Decimal {
	return a.Add(b).Div(two)
}

// Negotiate picks an entry price from the spread between current and target:
// under 1% takes the current price, under 5% counters at the midpoint,
// anything wider is rejected.
func Negotiate(current, target decimal.Decimal) (Negotiation, error) {
	spread, err := RelativeSpread(current, target)
	if err != nil {
		return Negotiation{}, err
	}
	pct := spread.Shift(2).StringFixed(2)

	switch {
	case spread.LessThan(acceptSpread):
		price := current
		return Negotiation{
			Action:    ActionAccept,
			Price:     &price,
			Spread:    spread,
			Rationale: fmt.Sprintf("spread %s%% within 1%%, accepting current price %s", pct, current),
		}, nil
	case spread.LessThan(counterSpread):
		price := Midpoint(current, target)
		return Negotiation{
			Action:    ActionCounter,
			Price:     &price,
			Spread:    spread,
			Rationale: fmt.Sprintf("spread %s%% within 5%%, countering at midpoint %s", pct, price),
		}, nil
	default:
		return Negotiation{
			Action:    ActionReject,
			Spread:    spread,
			Rationale: fmt.Sprintf("spread %s%% too wide, waiting for a better entry", pct),
		}, nil
	}
}
