package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// CostBreakdown itemizes the transaction costs of a fill. Commission applies
// to both sides; stamp duty applies to sells only.
type CostBreakdown struct {
	Commission decimal.Decimal `yaml:"commission" json:"commission"`
	StampDuty  decimal.Decimal `yaml:"stamp_duty" json:"stamp_duty"`
}

// Total returns commission plus stamp duty.
func (c CostBreakdown) Total() decimal.Decimal {
	return c.Commission.Add(c.StampDuty)
}

// Transaction is the immutable record of an executed order. The ledger's
// transaction history is append-only: transactions are never edited or
// deleted once created.
type Transaction struct {
	ID         string          `yaml:"id" json:"id"`
	Seq        int64           `yaml:"seq" json:"seq"`
	Date       time.Time       `yaml:"date" json:"date"`
	Instrument string          `yaml:"instrument" json:"instrument"`
	Side       Side            `yaml:"side" json:"side"`
	Quantity   int64           `yaml:"quantity" json:"quantity"`
	FillPrice  decimal.Decimal `yaml:"fill_price" json:"fill_price"`
	Cost       CostBreakdown   `yaml:"cost" json:"cost"`
	// CashDelta is the signed change applied to the cash balance:
	// -(notional + commission) for buys, +(notional - commission - duty)
	// for sells.
	CashDelta decimal.Decimal `yaml:"cash_delta" json:"cash_delta"`
}

// Notional returns quantity times fill price.
func (t Transaction) Notional() decimal.Decimal {
	return t.FillPrice.Mul(decimal.NewFromInt(t.Quantity))
}

// NormalizeDate returns a copy of the transaction with its date truncated to
// the UTC day boundary.
func (t Transaction) NormalizeDate() Transaction {
	t.Date = Midnight(t.Date)

	return t
}
