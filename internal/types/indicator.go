package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// IndicatorSet carries the derived indicator values for one instrument on one
// date. Every field is an explicit primitive (float64 via Option, or bool):
// values that need more warmup history than is available are None, and the
// boolean cross flags are plain booleans rather than any numeric library's
// internal representation.
type IndicatorSet struct {
	Instrument string    `yaml:"instrument" json:"instrument"`
	Date       time.Time `yaml:"date" json:"date"`
	Close      float64   `yaml:"close" json:"close"`

	MA5  optional.Option[float64] `yaml:"ma5" json:"ma5"`
	MA10 optional.Option[float64] `yaml:"ma10" json:"ma10"`
	MA20 optional.Option[float64] `yaml:"ma20" json:"ma20"`
	MA60 optional.Option[float64] `yaml:"ma60" json:"ma60"`

	EMA12 optional.Option[float64] `yaml:"ema12" json:"ema12"`
	EMA26 optional.Option[float64] `yaml:"ema26" json:"ema26"`

	MACD       optional.Option[float64] `yaml:"macd" json:"macd"`
	MACDSignal optional.Option[float64] `yaml:"macd_signal" json:"macd_signal"`
	MACDHist   optional.Option[float64] `yaml:"macd_hist" json:"macd_hist"`

	RSI14 optional.Option[float64] `yaml:"rsi14" json:"rsi14"`

	BollMiddle optional.Option[float64] `yaml:"boll_middle" json:"boll_middle"`
	BollUpper  optional.Option[float64] `yaml:"boll_upper" json:"boll_upper"`
	BollLower  optional.Option[float64] `yaml:"boll_lower" json:"boll_lower"`

	K optional.Option[float64] `yaml:"kdj_k" json:"kdj_k"`
	D optional.Option[float64] `yaml:"kdj_d" json:"kdj_d"`
	J optional.Option[float64] `yaml:"kdj_j" json:"kdj_j"`

	VolumeMA5 optional.Option[float64] `yaml:"volume_ma5" json:"volume_ma5"`

	PriceAboveMA5   bool `yaml:"price_above_ma5" json:"price_above_ma5"`
	PriceAboveMA20  bool `yaml:"price_above_ma20" json:"price_above_ma20"`
	MA5AboveMA20    bool `yaml:"ma5_above_ma20" json:"ma5_above_ma20"`
	MACDGoldenCross bool `yaml:"macd_golden_cross" json:"macd_golden_cross"`
	MACDDeathCross  bool `yaml:"macd_death_cross" json:"macd_death_cross"`
}
