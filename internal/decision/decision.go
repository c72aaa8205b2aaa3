// Package decision defines how trading decisions plug into the simulation
// engine. A decision maker sees one day's market snapshot and emits orders;
// it never touches the ledger directly.
package decision

import (
	"context"
	"time"

	"github.com/RheinXenon/stocksim/internal/sim/ledger"
	"github.com/RheinXenon/stocksim/internal/types"
)

// Snapshot is the read-only view of the run a decision maker receives for
// one trading day. Bars and indicators cover only instruments with data on
// that day; an instrument in a feed gap is absent from both maps.
type Snapshot struct {
	Date       time.Time
	Cash       float64
	Positions  []ledger.Position
	Bars       map[string]types.MarketBar
	Indicators map[string]types.IndicatorSet
	LotSize    int64
}

// Position returns the holding for an instrument, if any.
func (s Snapshot) Position(instrument string) (ledger.Position, bool) {
	for _, pos := range s.Positions {
		if pos.Instrument == instrument {
			return pos, true
		}
	}

	return ledger.Position{}, false
}

// SettledQuantity returns the sellable shares for an instrument as of the
// snapshot date.
func (s Snapshot) SettledQuantity(instrument string) int64 {
	pos, ok := s.Position(instrument)
	if !ok {
		return 0
	}

	return pos.SettledQuantity(s.Date)
}

// DecisionMaker emits the orders to execute for one trading day.
type DecisionMaker interface {
	Name() string
	Decide(ctx context.Context, snapshot Snapshot) ([]types.Order, error)
}

// Func adapts a plain function to the DecisionMaker interface.
type Func struct {
	DecideName string
	DecideFunc func(ctx context.Context, snapshot Snapshot) ([]types.Order, error)
}

// Name implements DecisionMaker.
func (f Func) Name() string {
	if f.DecideName == "" {
		return "func"
	}

	return f.DecideName
}

// Decide implements DecisionMaker.
func (f Func) Decide(ctx context.Context, snapshot Snapshot) ([]types.Order, error) {
	if f.DecideFunc == nil {
		return nil, nil
	}

	return f.DecideFunc(ctx, snapshot)
}

// Hold makes no trades. It is the baseline decision maker.
type Hold struct{}

// Name implements DecisionMaker.
func (Hold) Name() string {
	return "hold"
}

// Decide implements DecisionMaker.
func (Hold) Decide(context.Context, Snapshot) ([]types.Order, error) {
	return nil, nil
}
