package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Window is one of the rolling spend-accounting periods.
type Window string

const (
	WindowDaily   Window = "daily"
	WindowWeekly  Window = "weekly"
	WindowMonthly Window = "monthly"
	WindowYearly  Window = "yearly"
)

// Windows lists every window in reporting order.
var Windows = []Window{WindowDaily, WindowWeekly, WindowMonthly, WindowYearly}

// Violation describes one window a requested spend would overshoot.
type Violation struct {
	Window    Window          `json:"window"`
	Limit     decimal.Decimal `json:"limit"`
	Current   decimal.Decimal `json:"current"`
	Reserved  decimal.Decimal `json:"reserved"`
	Requested decimal.Decimal `json:"requested"`
	Available decimal.Decimal `json:"available"`
}

type WindowStatus struct {
	Window      Window          `json:"window"`
	Limit       decimal.Decimal `json:"limit"`
	Spent       decimal.Decimal `json:"spent"`
	Reserved    decimal.Decimal `json:"reserved"`
	Available   decimal.Decimal `json:"available"`
	WindowStart time.Time       `json:"windowStart"`
}

// BudgetSnapshot is a point-in-time copy of every window's accounting.
type BudgetSnapshot struct {
	Windows []WindowStatus `json:"windows"`
	AsOf    time.Time      `json:"asOf"`
}

// Get returns the status for w, or false if the snapshot has no such window.
func (s BudgetSnapshot) Get(w Window) (WindowStatus, bool) {
	for _, ws := range s.Windows {
		if ws.Window == w {
			return ws, true
		}
	}
	return WindowStatus{}, false
}
