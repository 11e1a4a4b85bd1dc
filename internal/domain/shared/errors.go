package shared

import "fmt"

// DomainError is a business rule failure. Code is stable and machine
// readable; the HTTP layer maps it to a status.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string { return e.Message }

// Is matches by code: errors.Is(err, ErrNotFound) holds for every
// NOT_FOUND error whatever its message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Errorf builds a DomainError with a formatted message
func Errorf(code, format string, args ...any) *DomainError {
	return NewDomainError(code, fmt.Sprintf(format, args...))
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Not allowed in the current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Modified concurrently, reload and retry")
	ErrUnauthorized        = NewDomainError("UNAUTHORIZED", "Authentication required")
	ErrForbidden           = NewDomainError("FORBIDDEN", "Forbidden")
)
