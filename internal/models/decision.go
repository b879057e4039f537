package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type DecisionStatus string

const (
	StatusRejected DecisionStatus = "rejected"
	StatusBlocked  DecisionStatus = "blocked"
	StatusApproved DecisionStatus = "approved"
)

type HapticTier string

const (
	HapticStrong HapticTier = "strong"
	HapticMedium HapticTier = "medium"
	HapticGentle HapticTier = "gentle"
)

// Haptic is the vibration feedback attached to an approved trade.
type Haptic struct {
	Tier    HapticTier `json:"tier"`
	Pattern []int      `json:"pattern"`
}

// Approval carries the terms of an authorized, not yet executed trade.
type Approval struct {
	Action          string          `json:"action"`
	Amount          decimal.Decimal `json:"amount"`
	Price           decimal.Decimal `json:"price"`
	Negotiation     string          `json:"negotiation"`
	Confidence      decimal.Decimal `json:"confidence"`
	HarmonicFreq    int             `json:"harmonicFreq"`
	HarmonicAligned bool            `json:"harmonicAligned"`
	Haptic          Haptic          `json:"haptic"`
	ExpiresAt       time.Time       `json:"expiresAt"`
}

// Decision is the outcome of one evaluation. Exactly one of the
// variant payloads is populated depending on Status:
// rejected -> Reason, blocked -> Reason + Violations, approved -> Approval.
type Decision struct {
	ID         uuid.UUID      `json:"id"`
	Agent      string         `json:"agent"`
	Pair       string         `json:"pair"`
	Status     DecisionStatus `json:"status"`
	Reason     string         `json:"reason,omitempty"`
	Violations []Violation    `json:"violations,omitempty"`
	Approval   *Approval      `json:"approval,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

func (d *Decision) Approved() bool {
	return d != nil && d.Status == StatusApproved && d.Approval != nil
}
