package risk

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Personality is the agent's declared risk appetite.
type Personality string

const (
	Aggressive   Personality = "aggressive"
	Moderate     Personality = "moderate"
	Conservative Personality = "conservative"
)

// ParsePersonality maps a configuration string onto a Personality.
// Anything unrecognised falls back to Moderate and ok is false.
func ParsePersonality(s string) (p Personality, ok bool) {
	switch Personality(strings.ToLower(strings.TrimSpace(s))) {
	case Aggressive:
		return Aggressive, true
	case Moderate:
		return Moderate, true
	case Conservative:
		return Conservative, true
	default:
		return Moderate, false
	}
}

// Thresholds is the minimum confidence each personality requires to trade.
type Thresholds struct {
	Aggressive   decimal.Decimal
	Moderate     decimal.Decimal
	Conservative decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Aggressive:   decimal.RequireFromString("0.60"),
		Moderate:     decimal.RequireFromString("0.75"),
		Conservative: decimal.RequireFromString("0.85"),
	}
}

// For returns the threshold for p. Unknown personalities use Moderate's.
func (t Thresholds) For(p Personality) decimal.Decimal {
	switch p {
	case Aggressive:
		return t.Aggressive
	case Conservative:
		return t.Conservative
	default:
		return t.Moderate
	}
}

func (t Thresholds) Validate() error {
	one := decimal.NewFromInt(1)
	for _, p := range []Personality{Aggressive, Moderate, Conservative} {
		v := t.For(p)
		if v.IsNegative() || v.GreaterThan(one) {
			return fmt.Errorf("%s threshold %s outside [0,1]", p, v)
		}
	}
	return nil
}

type ConfidenceResult struct {
	Accept    bool            `json:"accept"`
	Threshold decimal.Decimal `json:"threshold"`
	Rationale string          `json:"rationale"`
}

// ConfidenceGate accepts a trade when its confidence reaches the
// personality's threshold. It holds no mutable state.
type ConfidenceGate struct {
	thresholds Thresholds
}

func NewConfidenceGate(t Thresholds) *ConfidenceGate {
	return &ConfidenceGate{thresholds: t}
}

func (g *ConfidenceGate) Evaluate(confidence decimal.Decimal, p Personality) ConfidenceResult {
	threshold := g.thresholds.For(p)
	if confidence.GreaterThanOrEqual(threshold) {
		return ConfidenceResult{
			Accept:    true,
			Threshold: threshold,
			Rationale: fmt.Sprintf("confidence %s meets %s threshold %s",
				confidence, p, threshold),
		}
	}
	return ConfidenceResult{
		Threshold: threshold,
		Rationale: fmt.Sprintf("confidence %s below %s threshold %s, waiting for clarity",
			confidence, p, threshold),
	}
}
