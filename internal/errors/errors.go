package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidInput           ErrorCode = "invalid_input"
	InvalidAmount          ErrorCode = "invalid_amount"
	InsufficientFunds      ErrorCode = "insufficient_funds"
	AmountExceedsPayable   ErrorCode = "amount_exceeds_payable"
	AccountNotFound        ErrorCode = "account_not_found"
	LoanNotFound           ErrorCode = "loan_not_found"
	UserNotFound           ErrorCode = "user_not_found"
	AccountClosed          ErrorCode = "account_closed"
	SameAccountTransfer    ErrorCode = "same_account_transfer"
	InvalidStateTransition ErrorCode = "invalid_state_transition"
	DuplicateAccount       ErrorCode = "duplicate_account"
	DuplicateEmail         ErrorCode = "duplicate_email"
	InvalidCredentials     ErrorCode = "invalid_credentials"
	Unauthorized           ErrorCode = "unauthorized"
	InternalError          ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// HTTPStatus maps an error code to the response status the handler layer
// should use.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidInput, InvalidAmount, SameAccountTransfer:
		return http.StatusBadRequest
	case InvalidCredentials, Unauthorized:
		return http.StatusUnauthorized
	case AccountNotFound, LoanNotFound, UserNotFound:
		return http.StatusNotFound
	case DuplicateAccount, DuplicateEmail:
		return http.StatusConflict
	case InsufficientFunds, AmountExceedsPayable, AccountClosed, InvalidStateTransition:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidAmount          = NewAppError(InvalidAmount, "amount must be greater than zero")
	ErrInsufficientFunds      = NewAppError(InsufficientFunds, "insufficient funds")
	ErrAmountExceedsPayable   = NewAppError(AmountExceedsPayable, "amount exceeds remaining payable")
	ErrAccountNotFound        = NewAppError(AccountNotFound, "account not found")
	ErrLoanNotFound           = NewAppError(LoanNotFound, "loan not found")
	ErrUserNotFound           = NewAppError(UserNotFound, "user not found")
	ErrAccountClosed          = NewAppError(AccountClosed, "account is closed")
	ErrSameAccountTransfer    = NewAppError(SameAccountTransfer, "cannot transfer to the same account")
	ErrDuplicateAccount       = NewAppError(DuplicateAccount, "account already exists")
	ErrDuplicateEmail         = NewAppError(DuplicateEmail, "email already registered")
	ErrInvalidCredentials     = NewAppError(InvalidCredentials, "invalid email or password")
	ErrUnauthorized           = NewAppError(Unauthorized, "authentication required")
	ErrCannotBeginTransaction = NewAppError(InternalError, "cannot begin transaction from within a transaction")
)

// NewInvalidTransition reports a loan operation attempted from a status that
// does not permit it.
func NewInvalidTransition(from, to string) *AppError {
	return NewAppErrorf(InvalidStateTransition, "cannot transition loan from %s to %s", from, to)
}
