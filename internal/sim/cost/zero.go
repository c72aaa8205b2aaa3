package cost

import (
	"github.com/shopspring/decimal"

	"github.com/RheinXenon/stocksim/internal/types"
)

// Zero charges nothing. Useful for isolating strategy behavior from fee
// effects in tests and experiments.
type Zero struct{}

// NewZero creates a zero-cost model.
func NewZero() Model {
	return &Zero{}
}

func (z *Zero) Calculate(notional decimal.Decimal, side types.Side) types.CostBreakdown {
	return types.CostBreakdown{
		Commission: decimal.Zero,
		StampDuty:  decimal.Zero,
	}
}
