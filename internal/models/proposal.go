package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidProposal is returned for any malformed MarketProposal.
var ErrInvalidProposal = errors.New("invalid proposal")

// Frequencies (Hz) that count as harmonically aligned.
var alignedFrequencies = map[int]bool{432: true, 528: true, 639: true}

// MarketProposal is one trade candidate handed to the agent for evaluation.
type MarketProposal struct {
	Pair         string          `json:"pair"`
	CurrentPrice decimal.Decimal `json:"price"`
	TargetPrice  decimal.Decimal `json:"targetPrice"`
	Amount       decimal.Decimal `json:"amount"`
	Confidence   decimal.Decimal `json:"confidence"`
	HarmonicFreq int             `json:"harmonicFreq"`
}

// Target returns the target price, falling back to the current price when unset.
func (p MarketProposal) Target() decimal.Decimal {
	if p.TargetPrice.IsZero() {
		return p.CurrentPrice
	}
	return p.TargetPrice
}

// HarmonicAligned reports whether the frequency tag is one of the aligned set.
func (p MarketProposal) HarmonicAligned() bool {
	return alignedFrequencies[p.HarmonicFreq]
}

// Validate rejects non-positive prices and amounts and confidence outside [0,1].
func (p MarketProposal) Validate() error {
	if !p.CurrentPrice.IsPositive() {
		return fmt.Errorf("%w: price must be positive, got %s", ErrInvalidProposal, p.CurrentPrice)
	}
	if !p.Target().IsPositive() {
		return fmt.Errorf("%w: target price must be positive, got %s", ErrInvalidProposal, p.TargetPrice)
	}
	if !p.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive, got %s", ErrInvalidProposal, p.Amount)
	}
	if p.Confidence.IsNegative() || p.Confidence.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("%w: confidence must be within [0,1], got %s", ErrInvalidProposal, p.Confidence)
	}
	return nil
}
