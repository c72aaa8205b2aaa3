package decision

import (
	"context"
	"sort"

	"github.com/RheinXenon/stocksim/internal/types"
)

// SMACross is a moving-average crossover decision maker. It buys an
// instrument when its 5-day average is above its 20-day average with the
// price confirming, and sells the full settled holding once the fast average
// drops back below the slow one.
type SMACross struct {
	// MaxPositionFraction caps how much of current cash a single buy may
	// spend. Zero means the default of 30%.
	MaxPositionFraction float64
}

// Name implements DecisionMaker.
func (s SMACross) Name() string {
	return "sma_cross"
}

// Decide implements DecisionMaker. Instruments are visited in sorted order so
// the emitted order sequence is deterministic.
func (s SMACross) Decide(_ context.Context, snapshot Snapshot) ([]types.Order, error) {
	fraction := s.MaxPositionFraction
	if fraction <= 0 {
		fraction = 0.3
	}

	instruments := make([]string, 0, len(snapshot.Indicators))
	for instrument := range snapshot.Indicators {
		instruments = append(instruments, instrument)
	}

	sort.Strings(instruments)

	var orders []types.Order

	for _, instrument := range instruments {
		set := snapshot.Indicators[instrument]
		if set.MA5.IsNone() || set.MA20.IsNone() {
			continue
		}

		_, held := snapshot.Position(instrument)

		switch {
		case !held && set.MA5AboveMA20 && set.PriceAboveMA5:
			quantity := s.buyQuantity(snapshot, set.Close, fraction)
			if quantity > 0 {
				orders = append(orders, types.Order{
					Instrument: instrument,
					Side:       types.SideBuy,
					Quantity:   quantity,
					Date:       snapshot.Date,
				})
			}
		case held && !set.MA5AboveMA20:
			settled := snapshot.SettledQuantity(instrument)
			if settled > 0 {
				orders = append(orders, types.Order{
					Instrument: instrument,
					Side:       types.SideSell,
					Quantity:   settled,
					Date:       snapshot.Date,
				})
			}
		}
	}

	return orders, nil
}

// buyQuantity sizes a buy to the cash cap, rounded down to a lot multiple.
func (s SMACross) buyQuantity(snapshot Snapshot, price, fraction float64) int64 {
	if price <= 0 || snapshot.LotSize <= 0 {
		return 0
	}

	budget := snapshot.Cash * fraction
	shares := int64(budget / price)

	return shares - shares%snapshot.LotSize
}
