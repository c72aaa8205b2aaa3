package cost

import (
	"github.com/shopspring/decimal"

	"github.com/RheinXenon/stocksim/internal/types"
)

// ChinaAShare models A-share trading costs: a percentage commission floored
// at a minimum fee on both sides, plus a sell-side-only stamp duty.
type ChinaAShare struct {
	commissionRate decimal.Decimal
	stampDutyRate  decimal.Decimal
	minFee         decimal.Decimal
}

// NewChinaAShare creates an A-share cost model from the given rates.
func NewChinaAShare(rates Rates) Model {
	return &ChinaAShare{
		commissionRate: decimal.NewFromFloat(rates.CommissionRate),
		stampDutyRate:  decimal.NewFromFloat(rates.StampDutyRate),
		minFee:         decimal.NewFromFloat(rates.MinFee),
	}
}

func (c *ChinaAShare) Calculate(notional decimal.Decimal, side types.Side) types.CostBreakdown {
	commission := notional.Mul(c.commissionRate)
	if commission.LessThan(c.minFee) {
		commission = c.minFee
	}

	breakdown := types.CostBreakdown{
		Commission: commission,
		StampDuty:  decimal.Zero,
	}

	if side == types.SideSell {
		breakdown.StampDuty = notional.Mul(c.stampDutyRate)
	}

	return breakdown
}
