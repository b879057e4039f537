package risk

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kjannette/trahn-agent/internal/models"
	"github.com/shopspring/decimal"
)

const day = 24 * time.Hour

// ErrOverRelease is returned when more is released than is currently reserved.
var ErrOverRelease = errors.New("release exceeds reserved amount")

// Window lengths are plain day counts, not calendar weeks/months/years.
var periods = map[models.Window]time.Duration{
	models.WindowDaily:   1 * day,
	models.WindowWeekly:  7 * day,
	models.WindowMonthly: 30 * day,
	models.WindowYearly:  365 * day,
}

// Period returns how long w stays open before its spend resets.
func Period(w models.Window) time.Duration {
	return periods[w]
}

// Limits holds the spend ceiling of each window.
type Limits struct {
	Daily   decimal.Decimal
	Weekly  decimal.Decimal
	Monthly decimal.Decimal
	Yearly  decimal.Decimal
}

func DefaultLimits() Limits {
	return Limits{
		Daily:   decimal.NewFromInt(10),
		Weekly:  decimal.NewFromInt(50),
		Monthly: decimal.NewFromInt(200),
		Yearly:  decimal.NewFromInt(2000),
	}
}

func (l Limits) For(w models.Window) decimal.Decimal {
	switch w {
	case models.WindowDaily:
		return l.Daily
	case models.WindowWeekly:
		return l.Weekly
	case models.WindowMonthly:
		return l.Monthly
	case models.WindowYearly:
		return l.Yearly
	}
	return decimal.Zero
}

func (l Limits) Validate() error {
	for _, w := range models.Windows {
		if !l.For(w).IsPositive() {
			return fmt.Errorf("%s limit must be positive, got %s", w, l.For(w))
		}
	}
	return nil
}

type CheckResult struct {
	Approved   bool               `json:"approved"`
	Violations []models.Violation `json:"violations"`
}

// Message summarises the result for logs and rejection reasons.
func (r CheckResult) Message() string {
	if r.Approved {
		return "trade within all spend limits"
	}
	names := make([]string, len(r.Violations))
	for i, v := range r.Violations {
		names[i] = string(v.Window)
	}
	return "spend limit exceeded for: " + strings.Join(names, ", ")
}

type windowState struct {
	spent decimal.Decimal
	start time.Time
}

// Budget tracks spend across the rolling windows. Amounts that were approved
// but not yet executed are held as a reservation counted against every window.
//
// Budget is not safe for concurrent use; the owning agent serialises access.
type Budget struct {
	limits   Limits
	windows  map[models.Window]*windowState
	reserved decimal.Decimal
}

func NewBudget(limits Limits, now time.Time) *Budget {
	b := &Budget{
		limits:  limits,
		windows: make(map[models.Window]*windowState, len(models.Windows)),
	}
	for _, w := range models.Windows {
		b.windows[w] = &windowState{start: now}
	}
	return b
}

func (b *Budget) Limits() Limits { return b.limits }

// resetExpired zeroes every window whose period has fully elapsed at now.
// A second call with the same now is a no-op.
func (b *Budget) resetExpired(now time.Time) {
	for _, w := range models.Windows {
		ws := b.windows[w]
		if now.Sub(ws.start) >= periods[w] {
			ws.spent = decimal.Zero
			ws.start = now
		}
	}
}

// Check reports whether amount fits in every window at now. Every violated
// window is listed, not just the first.
func (b *Budget) Check(amount decimal.Decimal, now time.Time) CheckResult {
	b.resetExpired(now)

	res := CheckResult{Approved: true}
	for _, w := range models.Windows {
		ws := b.windows[w]
		limit := b.limits.For(w)
		if ws.spent.Add(b.reserved).Add(amount).GreaterThan(limit) {
			res.Approved = false
			res.Violations = append(res.Violations, models.Violation{
				Window:    w,
				Limit:     limit,
				Current:   ws.spent,
				Reserved:  b.reserved,
				Requested: amount,
				Available: limit.Sub(ws.spent).Sub(b.reserved),
			})
		}
	}
	return res
}

// Commit adds amount to every window without re-checking limits.
// Callers must have obtained an approved Check for the same amount.
func (b *Budget) Commit(amount decimal.Decimal, now time.Time) {
	b.resetExpired(now)
	for _, w := range models.Windows {
		ws := b.windows[w]
		ws.spent = ws.spent.Add(amount)
	}
}

// Reserve checks amount and, when it fits, holds it against all windows
// until Confirm or Release.
func (b *Budget) Reserve(amount decimal.Decimal, now time.Time) CheckResult {
	res := b.Check(amount, now)
	if res.Approved {
		b.reserved = b.reserved.Add(amount)
	}
	return res
}

// Confirm turns a reservation into committed spend. The spend is committed
// even when the reservation was short; the shortfall is reported as
// ErrOverRelease.
func (b *Budget) Confirm(amount decimal.Decimal, now time.Time) error {
	err := b.Release(amount)
	b.Commit(amount, now)
	return err
}

// Release returns amount from the reservation. Releasing more than is held
// empties the reservation and returns ErrOverRelease.
func (b *Budget) Release(amount decimal.Decimal) error {
	if amount.GreaterThan(b.reserved) {
		short := amount.Sub(b.reserved)
		b.reserved = decimal.Zero
		return fmt.Errorf("%w: short by %s", ErrOverRelease, short)
	}
	b.reserved = b.reserved.Sub(amount)
	return nil
}

func (b *Budget) Reserved() decimal.Decimal { return b.reserved }

// Snapshot returns each window's accounting after applying any due resets.
func (b *Budget) Snapshot(now time.Time) models.BudgetSnapshot {
	b.resetExpired(now)

	snap := models.BudgetSnapshot{
		Windows: make([]models.WindowStatus, 0, len(models.Windows)),
		AsOf:    now,
	}
	for _, w := range models.Windows {
		ws := b.windows[w]
		limit := b.limits.For(w)
		snap.Windows = append(snap.Windows, models.WindowStatus{
			Window:      w,
			Limit:       limit,
			Spent:       ws.spent,
			Reserved:    b.reserved,
			Available:   limit.Sub(ws.spent).Sub(b.reserved),
			WindowStart: ws.start,
		})
	}
	return snap
}
