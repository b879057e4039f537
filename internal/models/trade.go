package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TradeRecord is an executed Approved decision as kept in the agent ledger.
type TradeRecord struct {
	ID         uuid.UUID       `json:"id"`
	Agent      string          `json:"agent"`
	Pair       string          `json:"pair"`
	Side       string          `json:"side"`
	Amount     decimal.Decimal `json:"amount"`
	Price      decimal.Decimal `json:"price"`
	Confidence decimal.Decimal `json:"confidence"`
	Haptic     Haptic          `json:"haptic"`
	ExecutedAt time.Time       `json:"executedAt"`
	TradingDay string          `json:"tradingDay"`
}

type AgentStats struct {
	Agent         string          `json:"agent"`
	Personality   string          `json:"personality"`
	Wallet        string          `json:"wallet,omitempty"`
	TotalTrades   int             `json:"totalTrades"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	AvgConfidence decimal.Decimal `json:"avgConfidence"`
	Pending       int             `json:"pending"`
	Budget        BudgetSnapshot  `json:"budget"`
}
