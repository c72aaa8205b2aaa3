package sim

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/RheinXenon/stocksim/internal/decision"
	"github.com/RheinXenon/stocksim/internal/feed"
	"github.com/RheinXenon/stocksim/internal/logger"
	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

type EngineTestSuite struct {
	suite.Suite
	config SimulationConfig
	day1   time.Time
	day2   time.Time
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.day1 = tradingDays("2024-01-04")[0]
	suite.day2 = tradingDays("2024-01-05")[0]

	config, err := ParseConfig([]byte(`
universe:
  - "600000"
`))
	suite.Require().NoError(err)
	suite.config = config
}

func (suite *EngineTestSuite) twoDayFeed() *feed.MemoryFeed {
	return feed.NewMemoryFeed([]types.MarketBar{
		{Instrument: "600000", Date: suite.day1, Open: 9.9, High: 10.1, Low: 9.8, Close: 10.00, Volume: 100000},
		{Instrument: "600000", Date: suite.day2, Open: 10.5, High: 11.2, Low: 10.4, Close: 11.00, Volume: 120000},
	})
}

// scriptedMaker emits a fixed order list per day number.
func scriptedMaker(script map[int][]types.Order) decision.DecisionMaker {
	day := 0

	return decision.Func{
		DecideName: "scripted",
		DecideFunc: func(_ context.Context, snapshot decision.Snapshot) ([]types.Order, error) {
			day++

			return script[day], nil
		},
	}
}

func (suite *EngineTestSuite) TestBuySettleSellRun() {
	maker := scriptedMaker(map[int][]types.Order{
		1: {
			{Instrument: "600000", Side: types.SideBuy, Quantity: 1000},
			{Instrument: "600000", Side: types.SideSell, Quantity: 500},
		},
		2: {
			{Instrument: "600000", Side: types.SideSell, Quantity: 500},
		},
	})

	engine := NewEngine(suite.config, suite.twoDayFeed(), maker, logger.NewNopLogger())

	report, err := engine.Run(context.Background())
	suite.Require().NoError(err)

	suite.Equal(2, report.TradingDays)
	suite.Equal(suite.day1, report.StartDate)
	suite.Equal(suite.day2, report.EndDate)

	// Day 1: buy 1000 at 10.00 costs 10,005; the same-day sell is rejected.
	// Day 2: sell 500 at 11.00 credits 5,489.50.
	suite.Equal(2, report.Trades.Total)
	suite.Equal(1, report.Trades.Buys)
	suite.Equal(1, report.Trades.Sells)
	suite.Equal(1, report.Trades.Rejections)

	snapshots := engine.Snapshots()
	suite.Require().Len(snapshots, 2)
	suite.InDelta(989_995.0, snapshots[0].Cash, 1e-6)
	suite.InDelta(999_995.0, snapshots[0].Equity, 1e-6)
	suite.InDelta(995_484.5, snapshots[1].Cash, 1e-6)
	suite.InDelta(1_000_984.5, snapshots[1].Equity, 1e-6)

	suite.InDelta(1_000_984.5, report.FinalEquity, 1e-6)
	suite.InDelta(984.5/1_000_000, report.TotalReturn, 1e-9)

	suite.Require().Len(report.FinalPositions, 1)
	pos := report.FinalPositions[0]
	suite.Equal("600000", pos.Instrument)
	suite.Equal(int64(500), pos.Quantity)
	suite.InDelta(10.0, pos.AvgCost, 1e-9)
	suite.InDelta(11.0, pos.LastClose, 1e-9)
	suite.InDelta(0.1, pos.ProfitRate, 1e-9)
}

func (suite *EngineTestSuite) TestSnapshotNeverContainsFutureBars() {
	var seenDates []time.Time

	maker := decision.Func{
		DecideFunc: func(_ context.Context, snapshot decision.Snapshot) ([]types.Order, error) {
			for _, bar := range snapshot.Bars {
				suite.False(bar.Date.After(snapshot.Date))
				seenDates = append(seenDates, bar.Date)
			}

			return nil, nil
		},
	}

	engine := NewEngine(suite.config, suite.twoDayFeed(), maker, logger.NewNopLogger())

	_, err := engine.Run(context.Background())
	suite.Require().NoError(err)
	suite.Equal([]time.Time{suite.day1, suite.day2}, seenDates)
}

func (suite *EngineTestSuite) TestFeedGapOmitsInstrument() {
	config, err := ParseConfig([]byte(`
universe:
  - "600000"
  - "000001"
`))
	suite.Require().NoError(err)

	// 000001 only trades on day 1.
	marketFeed := feed.NewMemoryFeed([]types.MarketBar{
		{Instrument: "600000", Date: suite.day1, Close: 10, Volume: 1},
		{Instrument: "600000", Date: suite.day2, Close: 11, Volume: 1},
		{Instrument: "000001", Date: suite.day1, Close: 20, Volume: 1},
	})

	var perDay []int

	maker := decision.Func{
		DecideFunc: func(_ context.Context, snapshot decision.Snapshot) ([]types.Order, error) {
			perDay = append(perDay, len(snapshot.Bars))

			return nil, nil
		},
	}

	engine := NewEngine(config, marketFeed, maker, logger.NewNopLogger())

	_, err = engine.Run(context.Background())
	suite.Require().NoError(err)
	suite.Equal([]int{2, 1}, perDay)
}

func (suite *EngineTestSuite) TestDecisionMakerErrorHoldsForTheDay() {
	calls := 0

	maker := decision.Func{
		DecideFunc: func(context.Context, decision.Snapshot) ([]types.Order, error) {
			calls++
			if calls == 1 {
				return nil, fmt.Errorf("model unavailable")
			}

			return nil, nil
		},
	}

	engine := NewEngine(suite.config, suite.twoDayFeed(), maker, logger.NewNopLogger())

	report, err := engine.Run(context.Background())
	suite.Require().NoError(err)
	suite.Equal(2, report.TradingDays, "the run survives a failing decision maker")
	suite.Equal(2, calls)
	suite.Equal(0, report.Trades.Total)
}

func (suite *EngineTestSuite) TestCancelledContextAbortsRun() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(suite.config, suite.twoDayFeed(), decision.Hold{}, logger.NewNopLogger())

	_, err := engine.Run(ctx)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeRunAborted))
}

func (suite *EngineTestSuite) TestMissingDependencies() {
	engine := NewEngine(suite.config, nil, decision.Hold{}, logger.NewNopLogger())
	_, err := engine.Run(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoFeed))

	engine = NewEngine(suite.config, suite.twoDayFeed(), nil, logger.NewNopLogger())
	_, err = engine.Run(context.Background())
	suite.True(errors.HasCode(err, errors.ErrCodeEngineNoDecisionMaker))
}

func (suite *EngineTestSuite) TestTimeBoundsClipCalendar() {
	config := suite.config
	config.EndTime = optional.Some(suite.day1)

	engine := NewEngine(config, suite.twoDayFeed(), decision.Hold{}, logger.NewNopLogger())

	report, err := engine.Run(context.Background())
	suite.Require().NoError(err)
	suite.Equal(1, report.TradingDays)
	suite.Equal(suite.day1, report.EndDate)
}

func (suite *EngineTestSuite) TestDayCallbackProgress() {
	var progress [][2]int

	engine := NewEngine(suite.config, suite.twoDayFeed(), decision.Hold{}, logger.NewNopLogger())
	engine.SetDayCallback(func(day, total int) {
		progress = append(progress, [2]int{day, total})
	})

	_, err := engine.Run(context.Background())
	suite.Require().NoError(err)
	suite.Equal([][2]int{{1, 2}, {2, 2}}, progress)
}
