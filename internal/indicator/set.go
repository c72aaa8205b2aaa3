package indicator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// MinHistory is the minimum number of bars required before any indicator set
// is produced.
const MinHistory = 20

// Standard parameter choices, matching the data the engine was built to
// replay: MA(5/10/20/60), MACD(12,26,9), RSI(14), BOLL(20,2), KDJ(9,3,3).
const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	rsiPeriod = 14

	bollPeriod = 20
	bollStdDev = 2.0

	kdjN  = 9
	kdjM1 = 3
	kdjM2 = 3
)

// ComputeSet derives the indicator set for the most recent bar of the given
// ascending-dated history. It fails with an InsufficientHistoryError when
// fewer than MinHistory bars are available.
func ComputeSet(bars []types.MarketBar) (types.IndicatorSet, error) {
	if len(bars) < MinHistory {
		return types.IndicatorSet{}, errors.Wrap(
			errors.ErrCodeInsufficientHistory,
			"cannot compute indicators",
			errors.NewInsufficientHistoryError(MinHistory, len(bars), instrumentOf(bars),
				"indicator history too short"),
		)
	}

	closes := make([]float64, len(bars))
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	volumes := make([]float64, len(bars))

	for i, bar := range bars {
		closes[i] = bar.Close
		highs[i] = bar.High
		lows[i] = bar.Low
		volumes[i] = bar.Volume
	}

	last := len(bars) - 1
	latest := bars[last]

	ma5 := SMA(closes, 5)
	ma10 := SMA(closes, 10)
	ma20 := SMA(closes, 20)
	ma60 := SMA(closes, 60)
	ema12 := EMA(closes, macdFast)
	ema26 := EMA(closes, macdSlow)
	macd, signal, hist := MACD(closes, macdFast, macdSlow, macdSignal)
	rsi := RSI(closes, rsiPeriod)
	bollMid, bollUp, bollLow := Bollinger(closes, bollPeriod, bollStdDev)
	k, d, j := KDJ(highs, lows, closes, kdjN, kdjM1, kdjM2)
	volMA5 := SMA(volumes, 5)

	set := types.IndicatorSet{
		Instrument: latest.Instrument,
		Date:       latest.Date,
		Close:      latest.Close,
		MA5:        at(ma5, last),
		MA10:       at(ma10, last),
		MA20:       at(ma20, last),
		MA60:       at(ma60, last),
		EMA12:      at(ema12, last),
		EMA26:      at(ema26, last),
		MACD:       at(macd, last),
		MACDSignal: at(signal, last),
		MACDHist:   at(hist, last),
		RSI14:      at(rsi, last),
		BollMiddle: at(bollMid, last),
		BollUpper:  at(bollUp, last),
		BollLower:  at(bollLow, last),
		K:          at(k, last),
		D:          at(d, last),
		J:          at(j, last),
		VolumeMA5:  at(volMA5, last),
	}

	if v, ok := value(ma5, last); ok {
		set.PriceAboveMA5 = latest.Close > v
	}

	if v, ok := value(ma20, last); ok {
		set.PriceAboveMA20 = latest.Close > v
	}

	ma5Last, ok5 := value(ma5, last)
	ma20Last, ok20 := value(ma20, last)

	if ok5 && ok20 {
		set.MA5AboveMA20 = ma5Last > ma20Last
	}

	// Cross flags compare the last two sessions of MACD against its signal.
	if last >= 1 {
		prevDiff := macd[last-1] - signal[last-1]
		lastDiff := macd[last] - signal[last]
		set.MACDGoldenCross = prevDiff < 0 && lastDiff > 0
		set.MACDDeathCross = prevDiff > 0 && lastDiff < 0
	}

	return set, nil
}

func at(series []float64, i int) optional.Option[float64] {
	if v, ok := value(series, i); ok {
		return optional.Some(v)
	}

	return optional.None[float64]()
}

func value(series []float64, i int) (float64, bool) {
	if i < 0 || i >= len(series) || math.IsNaN(series[i]) {
		return 0, false
	}

	return series[i], true
}

func instrumentOf(bars []types.MarketBar) string {
	if len(bars) == 0 {
		return ""
	}

	return bars[len(bars)-1].Instrument
}
