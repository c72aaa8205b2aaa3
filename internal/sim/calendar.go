package sim

import (
	"sort"
	"time"

	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// Calendar is the fixed, ordered sequence of trading days a run steps
// through. Days are normalized to UTC midnight and strictly increasing.
type Calendar struct {
	days []time.Time
}

// NewCalendar builds a calendar from the given days. Duplicates are removed
// and the result is sorted ascending. An empty input is an error.
func NewCalendar(days []time.Time) (*Calendar, error) {
	if len(days) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "trading calendar is empty")
	}

	normalized := make([]time.Time, 0, len(days))
	seen := make(map[time.Time]struct{}, len(days))

	for _, day := range days {
		day = types.Midnight(day)
		if _, ok := seen[day]; ok {
			continue
		}

		seen[day] = struct{}{}

		normalized = append(normalized, day)
	}

	sort.Slice(normalized, func(i, j int) bool { return normalized[i].Before(normalized[j]) })

	return &Calendar{days: normalized}, nil
}

// Len returns the number of trading days.
func (c *Calendar) Len() int {
	return len(c.days)
}

// Day returns the trading day at position i.
func (c *Calendar) Day(i int) time.Time {
	return c.days[i]
}

// Days returns a copy of the full trading-day sequence.
func (c *Calendar) Days() []time.Time {
	out := make([]time.Time, len(c.days))
	copy(out, c.days)

	return out
}

// IndexOf returns the position of a trading day in the calendar.
func (c *Calendar) IndexOf(date time.Time) (int, bool) {
	date = types.Midnight(date)
	i := sort.Search(len(c.days), func(i int) bool { return !c.days[i].Before(date) })

	if i < len(c.days) && c.days[i].Equal(date) {
		return i, true
	}

	return 0, false
}

// SettlementDate returns the trading day on which shares bought on tradeDate
// become sellable, lag trading days later. A lag of zero settles on the trade
// date itself. When settlement falls past the end of the calendar the lot can
// never settle within the run, so a date after the final trading day is
// returned.
func (c *Calendar) SettlementDate(tradeDate time.Time, lag int) (time.Time, error) {
	if lag < 0 {
		lag = 0
	}

	i, ok := c.IndexOf(tradeDate)
	if !ok {
		return time.Time{}, errors.Newf(errors.ErrCodeInvalidParameter,
			"%s is not a trading day", tradeDate.Format("2006-01-02"))
	}

	if i+lag < len(c.days) {
		return c.days[i+lag], nil
	}

	return c.days[len(c.days)-1].AddDate(0, 0, lag), nil
}
