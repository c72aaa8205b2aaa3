package sim

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/RheinXenon/stocksim/internal/feed"
	"github.com/RheinXenon/stocksim/internal/logger"
	"github.com/RheinXenon/stocksim/internal/sim/cost"
	"github.com/RheinXenon/stocksim/internal/sim/ledger"
	"github.com/RheinXenon/stocksim/internal/types"
	"github.com/RheinXenon/stocksim/pkg/errors"
)

// Executor turns orders into ledger mutations. Fills happen at the close of
// the order's own trading day; every order either becomes exactly one
// transaction or one rejection. Rejections never touch the ledger.
type Executor struct {
	ledger        *ledger.Ledger
	calendar      *Calendar
	feed          feed.Feed
	costModel     cost.Model
	lotSize       int64
	settlementLag int
	logger        *logger.Logger
}

// NewExecutor creates an executor over the given ledger, calendar and feed.
func NewExecutor(l *ledger.Ledger, calendar *Calendar, f feed.Feed, costModel cost.Model, lotSize int64, settlementLag int, log *logger.Logger) *Executor {
	return &Executor{
		ledger:        l,
		calendar:      calendar,
		feed:          f,
		costModel:     costModel,
		lotSize:       lotSize,
		settlementLag: settlementLag,
		logger:        log,
	}
}

// Execute validates and fills one order. Checks run in a fixed sequence:
// quantity must be a positive lot multiple, a buy must be affordable
// including fees, a sell must be covered by settled shares. The first failed
// check produces the rejection; later checks are not consulted. A missing bar
// for the order's instrument is an error, not a rejection.
func (e *Executor) Execute(order types.Order) (types.Transaction, *types.Rejection, error) {
	if rej := e.checkQuantity(order); rej != nil {
		e.logRejection(*rej)

		return types.Transaction{}, rej, nil
	}

	bar, err := e.feed.GetBar(order.Instrument, order.Date)
	if err != nil {
		return types.Transaction{}, nil, err
	}

	fillPrice := decimal.NewFromFloat(bar.Close)
	notional := fillPrice.Mul(decimal.NewFromInt(order.Quantity))
	breakdown := e.costModel.Calculate(notional, order.Side)
	id := uuid.New().String()

	var tx types.Transaction

	switch order.Side {
	case types.SideBuy:
		settlesOn, err := e.calendar.SettlementDate(order.Date, e.settlementLag)
		if err != nil {
			return types.Transaction{}, nil, err
		}

		tx, err = e.ledger.RecordBuy(id, order, fillPrice, breakdown, settlesOn)
		if err != nil {
			return e.asRejection(order, err)
		}
	case types.SideSell:
		tx, err = e.ledger.RecordSell(id, order, fillPrice, breakdown)
		if err != nil {
			return e.asRejection(order, err)
		}
	default:
		return types.Transaction{}, nil, errors.Newf(errors.ErrCodeInvalidOrder,
			"unknown order side %q", order.Side)
	}

	e.logger.Debug("order filled",
		zap.String("instrument", order.Instrument),
		zap.String("side", string(order.Side)),
		zap.Int64("quantity", order.Quantity),
		zap.String("fill_price", fillPrice.String()),
		zap.String("cash_delta", tx.CashDelta.String()),
	)

	return tx, nil, nil
}

func (e *Executor) checkQuantity(order types.Order) *types.Rejection {
	if order.Quantity <= 0 {
		return &types.Rejection{
			Order:   order,
			Reason:  types.RejectionReasonInvalidQuantity,
			Message: "quantity must be positive",
		}
	}

	if order.Quantity%e.lotSize != 0 {
		return &types.Rejection{
			Order:   order,
			Reason:  types.RejectionReasonInvalidQuantity,
			Message: "quantity is not a lot multiple",
		}
	}

	return nil
}

// asRejection converts a ledger precondition failure into a rejection. Any
// other error propagates as-is.
func (e *Executor) asRejection(order types.Order, err error) (types.Transaction, *types.Rejection, error) {
	if !errors.IsRejection(err) {
		return types.Transaction{}, nil, err
	}

	rej := &types.Rejection{
		Order:   order,
		Reason:  types.ReasonForCode(errors.GetCode(err)),
		Message: err.Error(),
	}
	e.logRejection(*rej)

	return types.Transaction{}, rej, nil
}

func (e *Executor) logRejection(rej types.Rejection) {
	e.logger.Debug("order rejected",
		zap.String("instrument", rej.Order.Instrument),
		zap.String("side", string(rej.Order.Side)),
		zap.Int64("quantity", rej.Order.Quantity),
		zap.String("reason", string(rej.Reason)),
	)
}
