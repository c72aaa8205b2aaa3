package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PerformanceSnapshot captures the account state at the end of one trading
// day. Equity is cash plus positions marked to that day's close prices.
type PerformanceSnapshot struct {
	Date             time.Time `yaml:"date" json:"date"`
	Cash             float64   `yaml:"cash" json:"cash"`
	MarketValue      float64   `yaml:"market_value" json:"market_value"`
	Equity           float64   `yaml:"equity" json:"equity"`
	CumulativeReturn float64   `yaml:"cumulative_return" json:"cumulative_return"`
	// Drawdown is the fractional decline from the highest equity seen so far
	// to this snapshot's equity. Zero while equity is at its peak.
	Drawdown float64 `yaml:"drawdown" json:"drawdown"`
}

// FinalPosition describes one holding at run end, for reporting.
type FinalPosition struct {
	Instrument string  `yaml:"instrument" json:"instrument"`
	Quantity   int64   `yaml:"quantity" json:"quantity"`
	AvgCost    float64 `yaml:"avg_cost" json:"avg_cost"`
	LastClose  float64 `yaml:"last_close" json:"last_close"`
	ProfitRate float64 `yaml:"profit_rate" json:"profit_rate"`
}

// TradeCounts breaks the run's order flow down by outcome.
type TradeCounts struct {
	Total      int `yaml:"total" json:"total"`
	Buys       int `yaml:"buys" json:"buys"`
	Sells      int `yaml:"sells" json:"sells"`
	Rejections int `yaml:"rejections" json:"rejections"`
}

// RunReport is the terminal summary of a simulation run. All metrics are
// pure functions of the snapshot and transaction sequences, so the same run
// input always reproduces the same report.
type RunReport struct {
	RunID          string    `yaml:"run_id" json:"run_id"`
	StartDate      time.Time `yaml:"start_date" json:"start_date"`
	EndDate        time.Time `yaml:"end_date" json:"end_date"`
	TradingDays    int       `yaml:"trading_days" json:"trading_days"`
	InitialCapital float64   `yaml:"initial_capital" json:"initial_capital"`
	FinalEquity    float64   `yaml:"final_equity" json:"final_equity"`
	TotalProfit    float64   `yaml:"total_profit" json:"total_profit"`
	// TotalReturn is the fractional return over the whole run.
	TotalReturn float64 `yaml:"total_return" json:"total_return"`
	MaxReturn   float64 `yaml:"max_return" json:"max_return"`
	MinReturn   float64 `yaml:"min_return" json:"min_return"`
	// MaxDrawdown is the largest peak-to-trough fractional equity decline.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// AnnualizedVolatility is the standard deviation of daily returns
	// scaled by sqrt(252).
	AnnualizedVolatility float64         `yaml:"annualized_volatility" json:"annualized_volatility"`
	SharpeRatio          float64         `yaml:"sharpe_ratio" json:"sharpe_ratio"`
	Trades               TradeCounts     `yaml:"trades" json:"trades"`
	FinalPositions       []FinalPosition `yaml:"final_positions" json:"final_positions"`
}

// WriteRunReport writes the report to a YAML file.
func WriteRunReport(path string, report RunReport) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal run report to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write run report to file: %w", err)
	}

	return nil
}
