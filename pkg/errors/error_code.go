package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidPeriod        ErrorCode = 103

	// Order rejection reasons (200-299). These are recoverable: the order is
	// rejected, the ledger is untouched and the run continues.
	ErrCodeInvalidQuantity           ErrorCode = 200
	ErrCodeInsufficientFunds         ErrorCode = 201
	ErrCodeInsufficientSettledShares ErrorCode = 202

	// Feed/data errors (300-399)
	ErrCodeDataNotFound        ErrorCode = 300
	ErrCodeInsufficientHistory ErrorCode = 301
	ErrCodeFeedUnavailable     ErrorCode = 302
	ErrCodeQueryFailed         ErrorCode = 303

	// Clock errors (400-499). Terminal for the run: they indicate misuse of
	// the simulation clock, not a business condition.
	ErrCodeEndOfCalendar ErrorCode = 400
	ErrCodeInvalidState  ErrorCode = 401

	// Store errors (500-599)
	ErrCodeStoreInitFailed  ErrorCode = 500
	ErrCodeStoreWriteFailed ErrorCode = 501

	// Engine errors (600-699)
	ErrCodeEngineNoFeed          ErrorCode = 600
	ErrCodeEngineNoDecisionMaker ErrorCode = 601
	ErrCodeEngineNoCalendar      ErrorCode = 602
	ErrCodeRunAborted            ErrorCode = 603
)
