package sim

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/RheinXenon/stocksim/internal/types"
)

// tradingDaysPerYear scales daily statistics to annual ones.
const tradingDaysPerYear = 252

// RunRecorder accumulates the per-day performance curve of a run and derives
// the terminal report from it. It observes the run; it never influences it.
type RunRecorder struct {
	runID          string
	initialCapital float64
	riskFreeRate   float64
	peakEquity     float64
	snapshots      []types.PerformanceSnapshot
	counts         types.TradeCounts
}

// NewRunRecorder creates a recorder for a run starting from the given
// capital. riskFreeRate is annual and only feeds the Sharpe ratio.
func NewRunRecorder(initialCapital, riskFreeRate float64) *RunRecorder {
	return &RunRecorder{
		runID:          uuid.New().String(),
		initialCapital: initialCapital,
		riskFreeRate:   riskFreeRate,
		peakEquity:     initialCapital,
		snapshots:      nil,
		counts:         types.TradeCounts{},
	}
}

// RunID returns the identifier assigned to this run.
func (r *RunRecorder) RunID() string {
	return r.runID
}

// RecordDay appends the end-of-day snapshot for one trading day.
func (r *RunRecorder) RecordDay(date time.Time, cash, marketValue float64) types.PerformanceSnapshot {
	equity := cash + marketValue

	if equity > r.peakEquity {
		r.peakEquity = equity
	}

	var drawdown float64
	if r.peakEquity > 0 {
		drawdown = (r.peakEquity - equity) / r.peakEquity
	}

	snapshot := types.PerformanceSnapshot{
		Date:             types.Midnight(date),
		Cash:             cash,
		MarketValue:      marketValue,
		Equity:           equity,
		CumulativeReturn: equity/r.initialCapital - 1,
		Drawdown:         drawdown,
	}
	r.snapshots = append(r.snapshots, snapshot)

	return snapshot
}

// RecordTransaction counts a fill by side.
func (r *RunRecorder) RecordTransaction(tx types.Transaction) {
	r.counts.Total++

	switch tx.Side {
	case types.SideBuy:
		r.counts.Buys++
	case types.SideSell:
		r.counts.Sells++
	}
}

// RecordRejection counts a rejected order.
func (r *RunRecorder) RecordRejection(types.Rejection) {
	r.counts.Rejections++
}

// Snapshots returns a copy of the recorded performance curve.
func (r *RunRecorder) Snapshots() []types.PerformanceSnapshot {
	out := make([]types.PerformanceSnapshot, len(r.snapshots))
	copy(out, r.snapshots)

	return out
}

// Report derives the terminal run report from the recorded curve. The
// finalPositions argument carries the holdings remaining at run end.
func (r *RunRecorder) Report(finalPositions []types.FinalPosition) types.RunReport {
	report := types.RunReport{
		RunID:          r.runID,
		TradingDays:    len(r.snapshots),
		InitialCapital: r.initialCapital,
		FinalEquity:    r.initialCapital,
		Trades:         r.counts,
		FinalPositions: finalPositions,
	}

	if len(r.snapshots) == 0 {
		return report
	}

	report.StartDate = r.snapshots[0].Date
	report.EndDate = r.snapshots[len(r.snapshots)-1].Date
	report.FinalEquity = r.snapshots[len(r.snapshots)-1].Equity
	report.TotalProfit = report.FinalEquity - r.initialCapital
	report.TotalReturn = report.FinalEquity/r.initialCapital - 1

	report.MaxReturn = math.Inf(-1)
	report.MinReturn = math.Inf(1)

	for _, snapshot := range r.snapshots {
		report.MaxReturn = math.Max(report.MaxReturn, snapshot.CumulativeReturn)
		report.MinReturn = math.Min(report.MinReturn, snapshot.CumulativeReturn)
		report.MaxDrawdown = math.Max(report.MaxDrawdown, snapshot.Drawdown)
	}

	dailyReturns := r.dailyReturns()
	if len(dailyReturns) > 0 {
		mean, std := meanStd(dailyReturns)
		report.AnnualizedVolatility = std * math.Sqrt(tradingDaysPerYear)

		if std > 0 {
			dailyRiskFree := r.riskFreeRate / tradingDaysPerYear
			report.SharpeRatio = (mean - dailyRiskFree) / std * math.Sqrt(tradingDaysPerYear)
		}
	}

	return report
}

// dailyReturns derives day-over-day equity returns, seeding the first day
// against the initial capital.
func (r *RunRecorder) dailyReturns() []float64 {
	out := make([]float64, 0, len(r.snapshots))
	prev := r.initialCapital

	for _, snapshot := range r.snapshots {
		if prev > 0 {
			out = append(out, snapshot.Equity/prev-1)
		}

		prev = snapshot.Equity
	}

	return out
}

// meanStd returns the mean and sample standard deviation of values. The
// standard deviation is zero when fewer than two values exist.
func meanStd(values []float64) (mean, std float64) {
	for _, v := range values {
		mean += v
	}

	mean /= float64(len(values))

	if len(values) < 2 {
		return mean, 0
	}

	var variance float64
	for _, v := range values {
		diff := v - mean
		variance += diff * diff
	}

	return mean, math.Sqrt(variance / float64(len(values)-1))
}
