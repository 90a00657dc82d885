package ai

import "errors"

var (
	// ErrInvalidResponse marks a reply that is not JSON or does not match the schema.
	ErrInvalidResponse = errors.New("ai response does not match schema")
	// ErrQuotaExceeded indicates the provider returned a quota/limit error (HTTP 429).
	ErrQuotaExceeded = errors.New("ai quota exceeded")
	ErrEmptyContent  = errors.New("dataset content is empty")
	ErrTooFewPeriods = errors.New("synthesis needs at least two analyzed periods")
)

// ServiceError carries the best message available from the upstream service.
type ServiceError struct {
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
