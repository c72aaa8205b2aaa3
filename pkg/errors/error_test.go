package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidQuantity, "quantity %d is not a multiple of %d", 150, 100)
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidQuantity, err.Code)
	suite.Equal("quantity 150 is not a multiple of 100", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "bar not found", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("bar not found", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeDataNotFound, cause, "bar not found for instrument: %s", "600519")
	suite.NotNil(err)
	suite.Equal(ErrCodeDataNotFound, err.Code)
	suite.Equal("bar not found for instrument: 600519", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "bar not found", cause)
	suite.Equal("[300] bar not found: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeDataNotFound, "bar not found", cause)
	suite.Equal(cause, err.Unwrap())
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeEndOfCalendar, "no trading days remain")
	suite.Equal(ErrCodeEndOfCalendar, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeDataNotFound, "bar not found")
	err := Wrap(ErrCodeQueryFailed, "snapshot failed", cause)
	// GetCode returns the outermost error's code
	suite.Equal(ErrCodeQueryFailed, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCodeThroughChain() {
	inner := New(ErrCodeInsufficientSettledShares, "only 0 settled shares")
	wrapped := fmt.Errorf("execute failed: %w", inner)
	suite.Equal(ErrCodeInsufficientSettledShares, GetCode(wrapped))
	suite.True(HasCode(wrapped, ErrCodeInsufficientSettledShares))
}

func (suite *ErrorTestSuite) TestIsRejection() {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"invalid quantity", New(ErrCodeInvalidQuantity, "odd lot"), true},
		{"insufficient funds", New(ErrCodeInsufficientFunds, "not enough cash"), true},
		{"insufficient settled shares", New(ErrCodeInsufficientSettledShares, "pending settlement"), true},
		{"end of calendar", New(ErrCodeEndOfCalendar, "done"), false},
		{"standard error", errors.New("boom"), false},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, IsRejection(tc.err))
		})
	}
}

func (suite *ErrorTestSuite) TestInsufficientHistoryError() {
	err := NewInsufficientHistoryError(20, 5, "600519", "need 20 bars, have 5")
	suite.Equal("need 20 bars, have 5", err.Error())
	suite.True(IsInsufficientHistoryError(err))

	wrapped := Wrap(ErrCodeInsufficientHistory, "indicator calculation failed", err)
	suite.True(IsInsufficientHistoryError(wrapped))
	suite.False(IsInsufficientHistoryError(errors.New("other")))
}
