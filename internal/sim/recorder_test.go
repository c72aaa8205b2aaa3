package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/RheinXenon/stocksim/internal/types"
)

type RecorderTestSuite struct {
	suite.Suite
	recorder *RunRecorder
}

func TestRecorderSuite(t *testing.T) {
	suite.Run(t, new(RecorderTestSuite))
}

func (suite *RecorderTestSuite) SetupTest() {
	suite.recorder = NewRunRecorder(1_000_000, 0)
}

func (suite *RecorderTestSuite) recordEquities(equities ...float64) {
	date := tradingDays("2024-01-02")[0]
	for _, equity := range equities {
		suite.recorder.RecordDay(date, equity, 0)
		date = date.AddDate(0, 0, 1)
	}
}

func (suite *RecorderTestSuite) TestMonotoneCurveHasZeroDrawdown() {
	suite.recordEquities(1_000_000, 1_010_000, 1_025_000, 1_030_000)

	report := suite.recorder.Report(nil)
	suite.InDelta(0.0, report.MaxDrawdown, 1e-12)
	suite.InDelta(0.03, report.TotalReturn, 1e-9)
	suite.InDelta(0.03, report.MaxReturn, 1e-9)
	suite.InDelta(0.0, report.MinReturn, 1e-9)
}

func (suite *RecorderTestSuite) TestMaxDrawdownPeakToTrough() {
	// Peak 1,100,000 then trough 880,000 is a 20% decline; the later
	// recovery does not shrink it.
	suite.recordEquities(1_000_000, 1_100_000, 990_000, 880_000, 1_050_000)

	report := suite.recorder.Report(nil)
	suite.InDelta(0.2, report.MaxDrawdown, 1e-9)
}

func (suite *RecorderTestSuite) TestSnapshotFields() {
	suite.recordEquities(1_020_000)

	snapshots := suite.recorder.Snapshots()
	suite.Require().Len(snapshots, 1)
	suite.InDelta(0.02, snapshots[0].CumulativeReturn, 1e-9)
	suite.InDelta(0.0, snapshots[0].Drawdown, 1e-12)
}

func (suite *RecorderTestSuite) TestFlatCurveHasZeroVolatilityAndSharpe() {
	suite.recordEquities(1_000_000, 1_000_000, 1_000_000)

	report := suite.recorder.Report(nil)
	suite.InDelta(0.0, report.AnnualizedVolatility, 1e-12)
	suite.InDelta(0.0, report.SharpeRatio, 1e-12)
}

func (suite *RecorderTestSuite) TestVolatilityScaling() {
	// Daily returns +1%, -1%, +1%, -1% have a known sample deviation.
	suite.recordEquities(1_010_000, 999_900, 1_009_899, 999_800.01)

	returns := []float64{0.01, -0.01, 0.01, -0.01}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	std := math.Sqrt(variance / float64(len(returns)-1))

	report := suite.recorder.Report(nil)
	suite.InDelta(std*math.Sqrt(252), report.AnnualizedVolatility, 1e-6)
}

func (suite *RecorderTestSuite) TestTradeCounts() {
	suite.recorder.RecordTransaction(types.Transaction{Side: types.SideBuy})
	suite.recorder.RecordTransaction(types.Transaction{Side: types.SideBuy})
	suite.recorder.RecordTransaction(types.Transaction{Side: types.SideSell})
	suite.recorder.RecordRejection(types.Rejection{})

	report := suite.recorder.Report(nil)
	suite.Equal(3, report.Trades.Total)
	suite.Equal(2, report.Trades.Buys)
	suite.Equal(1, report.Trades.Sells)
	suite.Equal(1, report.Trades.Rejections)
}

func (suite *RecorderTestSuite) TestEmptyRunReport() {
	report := suite.recorder.Report(nil)
	suite.Equal(0, report.TradingDays)
	suite.InDelta(1_000_000, report.FinalEquity, 1e-9)
	suite.InDelta(0.0, report.TotalReturn, 1e-12)
	suite.True(report.StartDate.IsZero())
}

func (suite *RecorderTestSuite) TestDatesSpanTheRun() {
	suite.recordEquities(1_000_000, 1_001_000)

	report := suite.recorder.Report(nil)
	suite.Equal(tradingDays("2024-01-02")[0], report.StartDate)
	suite.Equal(tradingDays("2024-01-03")[0], report.EndDate)
	suite.Equal(2, report.TradingDays)
}
