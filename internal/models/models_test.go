package models

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProposal() MarketProposal {
	return MarketProposal{
		Pair:         "AVAX/USD",
		CurrentPrice: decimal.RequireFromString("42.50"),
		TargetPrice:  decimal.RequireFromString("42.75"),
		Amount:       decimal.RequireFromString("0.01"),
		Confidence:   decimal.RequireFromString("0.92"),
		HarmonicFreq: 528,
	}
}

func TestMarketProposal_Validate(t *testing.T) {
	tests := map[string]func(p *MarketProposal){
		"zero-price":          func(p *MarketProposal) { p.CurrentPrice = decimal.Zero },
		"negative-price":      func(p *MarketProposal) { p.CurrentPrice = decimal.NewFromInt(-1) },
		"negative-target":     func(p *MarketProposal) { p.TargetPrice = decimal.NewFromInt(-5) },
		"zero-amount":         func(p *MarketProposal) { p.Amount = decimal.Zero },
		"negative-amount":     func(p *MarketProposal) { p.Amount = decimal.RequireFromString("-0.01") },
		"confidence-high":     func(p *MarketProposal) { p.Confidence = decimal.RequireFromString("1.01") },
		"confidence-negative": func(p *MarketProposal) { p.Confidence = decimal.RequireFromString("-0.01") },
	}

	assert.NoError(t, validProposal().Validate())

	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := validProposal()
			mutate(&p)
			err := p.Validate()
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidProposal))
		})
	}
}

func TestMarketProposal_ConfidenceBounds(t *testing.T) {
	p := validProposal()
	p.Confidence = decimal.Zero
	assert.NoError(t, p.Validate())
	p.Confidence = decimal.NewFromInt(1)
	assert.NoError(t, p.Validate())
}

func TestMarketProposal_TargetDefaultsToCurrent(t *testing.T) {
	p := validProposal()
	p.TargetPrice = decimal.Zero
	assert.True(t, p.Target().Equal(p.CurrentPrice))
	assert.NoError(t, p.Validate())
}

func TestMarketProposal_HarmonicAligned(t *testing.T) {
	p := validProposal()
	for _, f := range []int{432, 528, 639} {
		p.HarmonicFreq = f
		assert.True(t, p.HarmonicAligned(), "%d Hz", f)
	}
	p.HarmonicFreq = 440
	assert.False(t, p.HarmonicAligned())
}

func TestTradingDay(t *testing.T) {
	before := time.Date(2025, 3, 10, 16, 59, 0, 0, time.UTC)
	after := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)

	assert.Equal(t, "2025-03-09", TradingDay(before))
	assert.Equal(t, "2025-03-10", TradingDay(after))
	assert.Equal(t, "2025-03-09", TradingDay(time.Date(2025, 3, 10, 11, 59, 0, 0, time.FixedZone("EST", -5*3600))))
}

func TestTradingDayStart(t *testing.T) {
	start, err := TradingDayStart("2025-03-10")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC), start)
	assert.Equal(t, "2025-03-10", TradingDay(start))
	assert.Equal(t, "2025-03-09", TradingDay(start.Add(-time.Nanosecond)))

	_, err = TradingDayStart("2025-02-30")
	assert.Error(t, err)
}

func TestBudgetSnapshot_Get(t *testing.T) {
	snap := BudgetSnapshot{Windows: []WindowStatus{{Window: WindowWeekly}}}
	_, ok := snap.Get(WindowWeekly)
	assert.True(t, ok)
	_, ok = snap.Get(WindowDaily)
	assert.False(t, ok)
}

func TestDecision_Approved(t *testing.T) {
	var nilDecision *Decision
	assert.False(t, nilDecision.Approved())
	assert.False(t, (&Decision{Status: StatusApproved}).Approved())
	assert.True(t, (&Decision{Status: StatusApproved, Approval: &Approval{}}).Approved())
	assert.False(t, (&Decision{Status: StatusBlocked, Approval: &Approval{}}).Approved())
}
