package types

import "time"

// MarketBar is a single daily OHLCV bar for one instrument. Bars are
// immutable once retrieved from a feed.
type MarketBar struct {
	Instrument string    `yaml:"instrument" json:"instrument" csv:"instrument"`
	Date       time.Time `yaml:"date" json:"date" csv:"date"`
	Open       float64   `yaml:"open" json:"open" csv:"open"`
	High       float64   `yaml:"high" json:"high" csv:"high"`
	Low        float64   `yaml:"low" json:"low" csv:"low"`
	Close      float64   `yaml:"close" json:"close" csv:"close"`
	Volume     float64   `yaml:"volume" json:"volume" csv:"volume"`
}

// SameDay reports whether two dates fall on the same calendar day in UTC.
// Bars are daily, so date comparison ignores the time-of-day component.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()

	return ay == by && am == bm && ad == bd
}

// Midnight truncates a timestamp to the start of its UTC day. All engine
// dates are normalized through this so map keys and comparisons line up.
func Midnight(t time.Time) time.Time {
	y, m, d := t.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
