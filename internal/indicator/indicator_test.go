package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func ascending(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i + 1)
	}

	return out
}

func risingBars(n int) []types.MarketBar {
	bars := make([]types.MarketBar, n)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		price := float64(i + 1)
		bars[i] = types.MarketBar{
			Instrument: "600000",
			Date:       start.AddDate(0, 0, i),
			Open:       price,
			High:       price + 0.5,
			Low:        price - 0.5,
			Close:      price,
			Volume:     1000,
		}
	}

	return bars
}

func (suite *IndicatorTestSuite) TestSMAWarmupAndValues() {
	out := SMA(ascending(6), 5)

	for i := 0; i < 4; i++ {
		suite.True(math.IsNaN(out[i]), "index %d is inside the warmup window", i)
	}

	suite.InDelta(3.0, out[4], 1e-9)
	suite.InDelta(4.0, out[5], 1e-9)
}

func (suite *IndicatorTestSuite) TestSMAShorterThanPeriod() {
	out := SMA(ascending(3), 5)
	for _, v := range out {
		suite.True(math.IsNaN(v))
	}
}

func (suite *IndicatorTestSuite) TestEMASeededAtFirstValue() {
	values := []float64{10, 11, 12}
	out := EMA(values, 3)

	suite.InDelta(10.0, out[0], 1e-9)

	// alpha = 2/(3+1) = 0.5
	suite.InDelta(10.5, out[1], 1e-9)
	suite.InDelta(11.25, out[2], 1e-9)
}

func (suite *IndicatorTestSuite) TestMACDHistogramIdentity() {
	closes := ascending(40)
	line, signal, hist := MACD(closes, 12, 26, 9)

	for i := range closes {
		suite.InDelta(line[i]-signal[i], hist[i], 1e-9)
	}

	// On a steadily rising series the fast EMA stays above the slow one.
	suite.Greater(line[len(line)-1], 0.0)
}

func (suite *IndicatorTestSuite) TestRSIAllGains() {
	out := RSI(ascending(20), 14)

	for i := 0; i < 14; i++ {
		suite.True(math.IsNaN(out[i]))
	}

	suite.InDelta(100.0, out[19], 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIAllLosses() {
	closes := ascending(20)
	for i, j := 0, len(closes)-1; i < j; i, j = i+1, j-1 {
		closes[i], closes[j] = closes[j], closes[i]
	}

	out := RSI(closes, 14)
	suite.InDelta(0.0, out[19], 1e-9)
}

func (suite *IndicatorTestSuite) TestBollingerSampleStd() {
	closes := ascending(20)
	middle, upper, lower := Bollinger(closes, 20, 2)

	// 20 consecutive integers have mean 10.5 and sample variance 35.
	std := math.Sqrt(35.0)
	suite.InDelta(10.5, middle[19], 1e-9)
	suite.InDelta(10.5+2*std, upper[19], 1e-9)
	suite.InDelta(10.5-2*std, lower[19], 1e-9)
}

func (suite *IndicatorTestSuite) TestKDJFlatSeriesStaysNeutral() {
	n := 15
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)

	for i := 0; i < n; i++ {
		highs[i], lows[i], closes[i] = 10, 10, 10
	}

	k, d, j := KDJ(highs, lows, closes, 9, 3, 3)
	for i := 0; i < n; i++ {
		suite.InDelta(50.0, k[i], 1e-9)
		suite.InDelta(50.0, d[i], 1e-9)
		suite.InDelta(50.0, j[i], 1e-9)
	}
}

func (suite *IndicatorTestSuite) TestKDJCloseAtHigh() {
	highs := []float64{10, 11, 12}
	lows := []float64{9, 10, 11}
	closes := []float64{9.5, 11, 12}

	k, _, _ := KDJ(highs, lows, closes, 9, 3, 3)

	// Closing at the window high keeps RSV at 100, pulling K upward.
	suite.Greater(k[2], k[0])
}

func (suite *IndicatorTestSuite) TestComputeSetRequiresMinHistory() {
	_, err := ComputeSet(risingBars(MinHistory - 1))
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientHistory))
	suite.True(errors.IsInsufficientHistoryError(err))
}

func (suite *IndicatorTestSuite) TestComputeSetOnRisingSeries() {
	bars := risingBars(25)
	set, err := ComputeSet(bars)
	suite.Require().NoError(err)

	suite.Equal("600000", set.Instrument)
	suite.Equal(bars[24].Date, set.Date)
	suite.InDelta(25.0, set.Close, 1e-9)

	suite.InDelta(23.0, set.MA5.Unwrap(), 1e-9)
	suite.InDelta(15.5, set.MA20.Unwrap(), 1e-9)
	suite.True(set.MA60.IsNone(), "60-day average needs more history than provided")

	suite.InDelta(100.0, set.RSI14.Unwrap(), 1e-9)

	suite.True(set.PriceAboveMA5)
	suite.True(set.PriceAboveMA20)
	suite.True(set.MA5AboveMA20)
	suite.False(set.MACDGoldenCross)
	suite.False(set.MACDDeathCross)
}
