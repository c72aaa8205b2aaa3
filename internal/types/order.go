package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/RheinXenon/stocksim/pkg/errors"
)

// Side is the direction of an order.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// RejectionReason identifies why an order failed validation.
type RejectionReason string

const (
	RejectionReasonInvalidQuantity           RejectionReason = "invalid_quantity"
	RejectionReasonInsufficientFunds         RejectionReason = "insufficient_funds"
	RejectionReasonInsufficientSettledShares RejectionReason = "insufficient_settled_shares"
)

// Order is a request to trade a quantity of one instrument on a specific
// simulation date. Orders are ephemeral: execution consumes them and produces
// either a Transaction or a Rejection.
type Order struct {
	Instrument string    `yaml:"instrument" json:"instrument" validate:"required"`
	Side       Side      `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	Quantity   int64     `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	Date       time.Time `yaml:"date" json:"date" validate:"required"`
}

// Validate validates the Order struct.
func (o *Order) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidOrder, "invalid order", err)
	}

	return nil
}

// Rejection records an order that failed validation. Rejections leave the
// ledger untouched and are not fatal to the run.
type Rejection struct {
	Order   Order           `yaml:"order" json:"order"`
	Reason  RejectionReason `yaml:"reason" json:"reason"`
	Message string          `yaml:"message" json:"message"`
}

// ReasonForCode maps a rejection error code to its RejectionReason.
func ReasonForCode(code errors.ErrorCode) RejectionReason {
	switch code {
	case errors.ErrCodeInsufficientFunds:
		return RejectionReasonInsufficientFunds
	case errors.ErrCodeInsufficientSettledShares:
		return RejectionReasonInsufficientSettledShares
	default:
		return RejectionReasonInvalidQuantity
	}
}
