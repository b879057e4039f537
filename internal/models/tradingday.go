package models

import (
	"fmt"
	"time"
)

const (
	// TradingDayCutoff is the UTC time of day at which a new trading day
	// begins (12:00 EST).
	TradingDayCutoff = 17 * time.Hour

	// DateLayout is the YYYY-MM-DD form trading days are reported in.
	DateLayout = "2006-01-02"
)

// TradingDay returns the trading day ts falls in. Timestamps before the
// cutoff belong to the previous calendar day.
func TradingDay(ts time.Time) string {
	return ts.UTC().Add(-TradingDayCutoff).Format(DateLayout)
}

// TradingDayStart returns the instant the named trading day opens.
func TradingDayStart(day string) (time.Time, error) {
	d, err := time.Parse(DateLayout, day)
	if err != nil {
		return time.Time{}, fmt.Errorf("trading day %q: %w", day, err)
	}
	return d.Add(TradingDayCutoff), nil
}
