// Package errors provides the application error type shared by the CLI and
// the web API. Services return *AppError so that both surfaces can render a
// stable code and message without exposing internal details.
package errors

import "net/http"

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is matches another AppError by code so that wrapped copies of a sentinel
// still satisfy errors.Is(err, ErrX).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// WrapWithMessage combines Wrap and WithMessage.
func WrapWithMessage(sentinel *AppError, message string, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// Authentication errors.
var (
	ErrUnauthorized       = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrInvalidCredentials = &AppError{Code: "INVALID_CREDENTIALS", Message: "Invalid password", StatusCode: http.StatusUnauthorized}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
)

// Configuration errors. These abort a run before any transaction is touched.
var (
	ErrInvalidConfig = &AppError{Code: "INVALID_CONFIG", Message: "Configuration is invalid", StatusCode: http.StatusUnprocessableEntity}
)

// Transaction errors.
var (
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrTherapeuticCategory = &AppError{Code: "THERAPEUTIC_CATEGORY", Message: "Only revenue transactions can be marked therapeutic", StatusCode: http.StatusBadRequest}
	ErrImportFailed        = &AppError{Code: "IMPORT_FAILED", Message: "Statement import failed", StatusCode: http.StatusBadRequest}
)

// Category and rule errors.
var (
	ErrCategoryNotFound = &AppError{Code: "CATEGORY_NOT_FOUND", Message: "Category not found", StatusCode: http.StatusNotFound}
	ErrRuleNotFound     = &AppError{Code: "RULE_NOT_FOUND", Message: "Rule not found", StatusCode: http.StatusNotFound}
	ErrDuplicateRule    = &AppError{Code: "DUPLICATE_RULE", Message: "A rule with this id already exists", StatusCode: http.StatusConflict}
)

// Reconciliation errors.
var (
	ErrMatchNotFound     = &AppError{Code: "MATCH_NOT_FOUND", Message: "Match not found", StatusCode: http.StatusNotFound}
	ErrAlreadyMatched    = &AppError{Code: "ALREADY_MATCHED", Message: "Transaction is already part of an active match", StatusCode: http.StatusConflict}
	ErrPairRejected      = &AppError{Code: "PAIR_REJECTED", Message: "This pairing was rejected earlier", StatusCode: http.StatusConflict}
	ErrNotPrivateExpense = &AppError{Code: "NOT_PRIVATE_EXPENSE", Message: "Both transactions must be private expenses with opposite signs", StatusCode: http.StatusBadRequest}
)

// Asset errors.
var (
	ErrAssetNotFound  = &AppError{Code: "ASSET_NOT_FOUND", Message: "Asset not found", StatusCode: http.StatusNotFound}
	ErrInvalidAsset   = &AppError{Code: "INVALID_ASSET", Message: "Invalid asset", StatusCode: http.StatusBadRequest}
	ErrDuplicateAsset = &AppError{Code: "DUPLICATE_ASSET", Message: "An asset with the same name, date and amount already exists", StatusCode: http.StatusConflict}
)
