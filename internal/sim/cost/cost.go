package cost

import (
	"github.com/shopspring/decimal"

	"github.com/RheinXenon/stocksim/internal/types"
)

// Model computes the transaction cost of a fill from its notional value and
// side. Implementations must be pure: the same inputs always produce the
// same breakdown.
type Model interface {
	Calculate(notional decimal.Decimal, side types.Side) types.CostBreakdown
}

// Schedule names a built-in cost model.
type Schedule string

const (
	ScheduleChinaAShare Schedule = "china_a_share"
	ScheduleZero        Schedule = "zero"
)

// AllSchedules lists the valid Schedule values, used for config schema
// generation.
var AllSchedules = []any{
	ScheduleChinaAShare,
	ScheduleZero,
}

// Rates holds the configurable parameters of a fee schedule.
type Rates struct {
	CommissionRate float64
	StampDutyRate  float64
	MinFee         float64
}

// DefaultRates are the standard A-share rates: 0.03% commission floored at 5
// currency units, 0.1% sell-side stamp duty.
var DefaultRates = Rates{
	CommissionRate: 0.0003,
	StampDutyRate:  0.001,
	MinFee:         5.0,
}

// ModelForSchedule returns the cost model for the given schedule.
func ModelForSchedule(schedule Schedule, rates Rates) Model {
	switch schedule {
	case ScheduleChinaAShare:
		return NewChinaAShare(rates)
	case ScheduleZero:
		return NewZero()
	default:
		return NewChinaAShare(rates)
	}
}
