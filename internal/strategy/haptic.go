package strategy

import (
	"github.com/kjannette/trahn-agent/internal/models"
	"github.com/shopspring/decimal"
)

var (
	strongConfidence = decimal.RequireFromString("0.90")
	mediumConfidence = decimal.RequireFromString("0.75")
)

// HapticFor maps a confidence score onto its feedback tier and pulse pattern (ms).
func HapticFor(confidence decimal.Decimal) models.Haptic {
	switch {
	case confidence.GreaterThanOrEqual(strongConfidence):
		return models.Haptic{Tier: models.HapticStrong, Pattern: []int{111, 0, 111, 0, 111}}
	case confidence.GreaterThanOrEqual(mediumConfidence):
		return models.Haptic{Tier: models.HapticMedium, Pattern: []int{50, 0, 100, 0, 50}}
	default:
		return models.Haptic{Tier: models.HapticGentle, Pattern: []int{30, 0, 30}}
	}
}
