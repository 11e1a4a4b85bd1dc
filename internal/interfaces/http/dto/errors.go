package dto

import (
	"net/http"
	"strings"
)

// API error codes. Domain errors carry bare codes such as NOT_FOUND; the
// API reports them in the ERR_ form.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeBadRequest  = "ERR_BAD_REQUEST"
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeInvalidInput is a well-formed request the domain rejected
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"

	ErrCodeUnauthorized       = "ERR_UNAUTHORIZED"
	ErrCodeForbidden          = "ERR_FORBIDDEN"
	ErrCodeTokenExpired       = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid       = "ERR_TOKEN_INVALID"
	ErrCodeInvalidCredentials = "ERR_INVALID_CREDENTIALS"

	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"

	ErrCodeInvalidState         = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock    = "ERR_INSUFFICIENT_STOCK"
	ErrCodeInsufficientBalance  = "ERR_INSUFFICIENT_BALANCE"
	ErrCodeOrderNumberExhausted = "ERR_ORDER_NUMBER_EXHAUSTED"
	ErrCodeProductUnavailable   = "ERR_PRODUCT_UNAVAILABLE"
	// ErrCodeArchiveDisabled means report archiving has no object storage
	ErrCodeArchiveDisabled = "ERR_ARCHIVE_DISABLED"

	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

var statusByCode = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeUnauthorized:       http.StatusUnauthorized,
	ErrCodeTokenExpired:       http.StatusUnauthorized,
	ErrCodeTokenInvalid:       http.StatusUnauthorized,
	ErrCodeInvalidCredentials: http.StatusUnauthorized,
	ErrCodeForbidden:          http.StatusForbidden,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:         http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:    http.StatusUnprocessableEntity,
	ErrCodeInsufficientBalance:  http.StatusUnprocessableEntity,
	ErrCodeOrderNumberExhausted: http.StatusUnprocessableEntity,
	ErrCodeProductUnavailable:   http.StatusUnprocessableEntity,
	ErrCodeArchiveDisabled:      http.StatusUnprocessableEntity,

	ErrCodeRateLimited: http.StatusTooManyRequests,
}

// domain codes whose API name is not simply ERR_ + code
var domainAliases = map[string]string{
	"VALIDATION_ERROR": ErrCodeValidation,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode turns a domain code into its API code. Known codes and
// the *_NOT_FOUND and INVALID_* families gain the ERR_ prefix; anything else
// passes through.
func NormalizeErrorCode(code string) string {
	if strings.HasPrefix(code, "ERR_") {
		return code
	}
	if alias, ok := domainAliases[code]; ok {
		return alias
	}
	prefixed := "ERR_" + code
	if _, ok := statusByCode[prefixed]; ok {
		return prefixed
	}
	if strings.HasSuffix(code, "_NOT_FOUND") || strings.HasPrefix(code, "INVALID_") {
		return prefixed
	}
	return code
}

// GetHTTPStatus maps an API code to its status. Unlisted *_NOT_FOUND codes
// are 404, unlisted ERR_INVALID_* codes 400 and everything else 500.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	switch {
	case strings.HasSuffix(code, "_NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(code, "ERR_INVALID_"):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
