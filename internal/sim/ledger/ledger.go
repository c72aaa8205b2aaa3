// Package ledger holds the cash balance and lot-level share positions of a
// simulation run. The ledger is owned by the engine: only the order executor
// mutates it, every other caller sees read-only copies.
package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// Lot is a parcel of shares bought in a single fill. A lot is pending until
// the clock reaches its settlement date, after which it can be sold.
type Lot struct {
	Quantity     int64
	PurchaseDate time.Time
	// SettlesOn is the trading day on which the lot becomes sellable,
	// computed from the calendar at purchase time. Settlement is evaluated
	// lazily: queries compare SettlesOn against the as-of date, nothing in
	// the ledger flips state when the clock advances.
	SettlesOn time.Time
}

// Position is one instrument's holding: total quantity, weighted-average
// cost basis, and the lots it is made of.
type Position struct {
	Instrument string
	Quantity   int64
	AvgCost    decimal.Decimal
	Lots       []Lot
}

// SettledQuantity returns the shares sellable as of the given date.
func (p Position) SettledQuantity(asOf time.Time) int64 {
	asOf = types.Midnight(asOf)

	var settled int64

	for _, lot := range p.Lots {
		if !lot.SettlesOn.After(asOf) {
			settled += lot.Quantity
		}
	}

	return settled
}

// Ledger is the account state of one run: cash, positions and the append-only
// transaction history. Not safe for concurrent use; each run owns its own.
type Ledger struct {
	initialCash  decimal.Decimal
	cash         decimal.Decimal
	positions    map[string]*Position
	transactions []types.Transaction
	seq          int64
}

// New creates a ledger with the configured initial cash and no positions.
func New(initialCash decimal.Decimal) *Ledger {
	return &Ledger{
		initialCash:  initialCash,
		cash:         initialCash,
		positions:    make(map[string]*Position),
		transactions: nil,
		seq:          0,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() decimal.Decimal {
	return l.cash
}

// InitialCash returns the balance the ledger was created with.
func (l *Ledger) InitialCash() decimal.Decimal {
	return l.initialCash
}

// Position returns a copy of the holding for an instrument. The second
// return value is false when nothing is held.
func (l *Ledger) Position(instrument string) (Position, bool) {
	pos, ok := l.positions[instrument]
	if !ok {
		return Position{}, false
	}

	return copyPosition(pos), true
}

// Positions returns copies of all non-empty holdings.
func (l *Ledger) Positions() []Position {
	positions := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		positions = append(positions, copyPosition(pos))
	}

	return positions
}

// SettledQuantity returns the sellable share count for an instrument as of
// the given simulation date, excluding lots still pending settlement.
func (l *Ledger) SettledQuantity(instrument string, asOf time.Time) int64 {
	pos, ok := l.positions[instrument]
	if !ok {
		return 0
	}

	return copyPosition(pos).SettledQuantity(asOf)
}

// MarkToMarket values all positions at the supplied prices and returns the
// total market value. Instruments missing from the price map are valued at
// zero; the caller decides how to handle feed gaps.
func (l *Ledger) MarkToMarket(prices map[string]float64) decimal.Decimal {
	total := decimal.Zero

	for instrument, pos := range l.positions {
		price, ok := prices[instrument]
		if !ok {
			continue
		}

		total = total.Add(decimal.NewFromFloat(price).Mul(decimal.NewFromInt(pos.Quantity)))
	}

	return total
}

// Equity returns cash plus the mark-to-market value of all positions.
func (l *Ledger) Equity(prices map[string]float64) decimal.Decimal {
	return l.cash.Add(l.MarkToMarket(prices))
}

// Transactions returns a copy of the transaction history in sequence order.
func (l *Ledger) Transactions() []types.Transaction {
	out := make([]types.Transaction, len(l.transactions))
	copy(out, l.transactions)

	return out
}

// RecordBuy debits cash by notional plus cost, adds a pending lot settling
// on settlesOn, updates the weighted-average cost basis and appends a
// transaction. It fails without mutating if the debit would drive cash
// negative.
func (l *Ledger) RecordBuy(id string, order types.Order, fillPrice decimal.Decimal, breakdown types.CostBreakdown, settlesOn time.Time) (types.Transaction, error) {
	notional := fillPrice.Mul(decimal.NewFromInt(order.Quantity))
	debit := notional.Add(breakdown.Total())

	if l.cash.LessThan(debit) {
		return types.Transaction{}, errors.Newf(errors.ErrCodeInsufficientFunds,
			"need %s, have %s", debit.StringFixed(2), l.cash.StringFixed(2))
	}

	date := types.Midnight(order.Date)

	pos, ok := l.positions[order.Instrument]
	if !ok {
		pos = &Position{
			Instrument: order.Instrument,
			Quantity:   0,
			AvgCost:    decimal.Zero,
			Lots:       nil,
		}
		l.positions[order.Instrument] = pos
	}

	// Weighted-average cost basis over share price only; fees are paid from
	// cash, not capitalized into the basis.
	oldValue := pos.AvgCost.Mul(decimal.NewFromInt(pos.Quantity))
	newQuantity := pos.Quantity + order.Quantity
	pos.AvgCost = oldValue.Add(notional).Div(decimal.NewFromInt(newQuantity))
	pos.Quantity = newQuantity
	pos.Lots = append(pos.Lots, Lot{
		Quantity:     order.Quantity,
		PurchaseDate: date,
		SettlesOn:    types.Midnight(settlesOn),
	})

	l.cash = l.cash.Sub(debit)

	tx := l.appendTransaction(id, order, fillPrice, breakdown, debit.Neg())

	return tx, nil
}

// RecordSell decrements settled lots FIFO, credits cash by notional minus
// cost and appends a transaction. It fails without mutating if the settled
// quantity as of the order date is insufficient.
func (l *Ledger) RecordSell(id string, order types.Order, fillPrice decimal.Decimal, breakdown types.CostBreakdown) (types.Transaction, error) {
	date := types.Midnight(order.Date)

	pos, ok := l.positions[order.Instrument]
	if !ok || pos.SettledQuantity(date) < order.Quantity {
		var settled int64
		if ok {
			settled = pos.SettledQuantity(date)
		}

		return types.Transaction{}, errors.Newf(errors.ErrCodeInsufficientSettledShares,
			"want %d, settled %d", order.Quantity, settled)
	}

	remaining := order.Quantity

	lots := pos.Lots[:0]

	for _, lot := range pos.Lots {
		if remaining > 0 && !lot.SettlesOn.After(date) {
			take := min(remaining, lot.Quantity)
			lot.Quantity -= take
			remaining -= take
		}

		if lot.Quantity > 0 {
			lots = append(lots, lot)
		}
	}

	pos.Lots = lots
	pos.Quantity -= order.Quantity

	if pos.Quantity == 0 {
		delete(l.positions, order.Instrument)
	}

	notional := fillPrice.Mul(decimal.NewFromInt(order.Quantity))
	credit := notional.Sub(breakdown.Total())
	l.cash = l.cash.Add(credit)

	tx := l.appendTransaction(id, order, fillPrice, breakdown, credit)

	return tx, nil
}

func (l *Ledger) appendTransaction(id string, order types.Order, fillPrice decimal.Decimal, breakdown types.CostBreakdown, cashDelta decimal.Decimal) types.Transaction {
	l.seq++

	tx := types.Transaction{
		ID:         id,
		Seq:        l.seq,
		Date:       types.Midnight(order.Date),
		Instrument: order.Instrument,
		Side:       order.Side,
		Quantity:   order.Quantity,
		FillPrice:  fillPrice,
		Cost:       breakdown,
		CashDelta:  cashDelta,
	}
	l.transactions = append(l.transactions, tx)

	return tx
}

func copyPosition(pos *Position) Position {
	out := *pos
	out.Lots = make([]Lot, len(pos.Lots))
	copy(out.Lots, pos.Lots)

	return out
}
