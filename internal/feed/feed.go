// Package feed provides read-only access to daily market bars. A feed is the
// engine's only source of prices; every query is bounded by the simulation
// date so a run can never observe data from its own future.
package feed

import (
	"time"

	"github.com/RheinXenon/stocksim/internal/indicator"
	"github.com/RheinXenon/stocksim/internal/types"
)

// Feed serves daily bars and derived indicators for a universe of
// instruments.
type Feed interface {
	// GetBar returns the bar for an instrument on an exact trading day.
	// A missing bar is reported with ErrCodeDataNotFound.
	GetBar(instrument string, date time.Time) (types.MarketBar, error)

	// GetHistory returns up to limit bars for an instrument dated at or
	// before asOf, in ascending date order. A limit <= 0 returns the full
	// available history up to asOf. Bars after asOf are never returned.
	GetHistory(instrument string, asOf time.Time, limit int) ([]types.MarketBar, error)

	// GetIndicators computes the indicator set for an instrument as of the
	// given date, using only bars at or before asOf. Fails with
	// ErrCodeInsufficientHistory when fewer than indicator.MinHistory bars
	// exist by that date.
	GetIndicators(instrument string, asOf time.Time) (types.IndicatorSet, error)

	// Instruments returns the instruments the feed can serve, sorted.
	Instruments() ([]string, error)

	// TradingDays returns every distinct bar date in the feed, ascending.
	TradingDays() ([]time.Time, error)

	// Close releases any underlying resources.
	Close() error
}

// computeIndicators derives the indicator set from a feed's own bounded
// history, so every implementation shares one lookahead-safe path.
func computeIndicators(f Feed, instrument string, asOf time.Time) (types.IndicatorSet, error) {
	bars, err := f.GetHistory(instrument, asOf, 0)
	if err != nil {
		return types.IndicatorSet{}, err
	}

	return indicator.ComputeSet(bars)
}
