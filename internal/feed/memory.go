package feed

import (
	"sort"
	"time"

	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// MemoryFeed serves bars from an in-memory slice. It backs tests and small
// runs where loading a database is not worth the setup.
type MemoryFeed struct {
	bars map[string][]types.MarketBar
}

// NewMemoryFeed builds a feed over the given bars. Bars are grouped by
// instrument, normalized to UTC midnight and sorted by date.
func NewMemoryFeed(bars []types.MarketBar) *MemoryFeed {
	grouped := make(map[string][]types.MarketBar)

	for _, bar := range bars {
		bar.Date = types.Midnight(bar.Date)
		grouped[bar.Instrument] = append(grouped[bar.Instrument], bar)
	}

	for instrument := range grouped {
		series := grouped[instrument]
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
		grouped[instrument] = series
	}

	return &MemoryFeed{bars: grouped}
}

// GetBar implements Feed.
func (f *MemoryFeed) GetBar(instrument string, date time.Time) (types.MarketBar, error) {
	date = types.Midnight(date)

	series := f.bars[instrument]
	i := sort.Search(len(series), func(i int) bool { return !series[i].Date.Before(date) })

	if i < len(series) && series[i].Date.Equal(date) {
		return series[i], nil
	}

	return types.MarketBar{}, errors.Newf(errors.ErrCodeDataNotFound,
		"no bar for %s on %s", instrument, date.Format("2006-01-02"))
}

// GetHistory implements Feed.
func (f *MemoryFeed) GetHistory(instrument string, asOf time.Time, limit int) ([]types.MarketBar, error) {
	asOf = types.Midnight(asOf)

	series := f.bars[instrument]
	// First index strictly after asOf bounds the visible window.
	end := sort.Search(len(series), func(i int) bool { return series[i].Date.After(asOf) })

	start := 0
	if limit > 0 && end-limit > 0 {
		start = end - limit
	}

	out := make([]types.MarketBar, end-start)
	copy(out, series[start:end])

	return out, nil
}

// GetIndicators implements Feed.
func (f *MemoryFeed) GetIndicators(instrument string, asOf time.Time) (types.IndicatorSet, error) {
	return computeIndicators(f, instrument, asOf)
}

// Instruments implements Feed.
func (f *MemoryFeed) Instruments() ([]string, error) {
	out := make([]string, 0, len(f.bars))
	for instrument := range f.bars {
		out = append(out, instrument)
	}

	sort.Strings(out)

	return out, nil
}

// TradingDays implements Feed.
func (f *MemoryFeed) TradingDays() ([]time.Time, error) {
	seen := make(map[time.Time]struct{})

	for _, series := range f.bars {
		for _, bar := range series {
			seen[bar.Date] = struct{}{}
		}
	}

	out := make([]time.Time, 0, len(seen))
	for day := range seen {
		out = append(out, day)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })

	return out, nil
}

// Close implements Feed.
func (f *MemoryFeed) Close() error {
	return nil
}
