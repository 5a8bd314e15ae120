package domain

import (
	"errors"
	"fmt"
)

// ProviderStatus は外部サービスが返す状態コード。
type ProviderStatus string

const (
	StatusNoResults        ProviderStatus = "ZERO_RESULTS"
	StatusNotFound         ProviderStatus = "NOT_FOUND"
	StatusPermissionDenied ProviderStatus = "REQUEST_DENIED"
	StatusQuotaExceeded    ProviderStatus = "OVER_QUERY_LIMIT"
	StatusInvalidRequest   ProviderStatus = "INVALID_REQUEST"
	StatusUnavailable      ProviderStatus = "UNAVAILABLE"
	StatusUnknown          ProviderStatus = "UNKNOWN_ERROR"
)

// ProviderError wraps a failure of an external collaborator (search, routing, document store, identity).
type ProviderError struct {
	Provider string
	Status   ProviderStatus
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Provider, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Status, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError is a small constructor used by adapters.
func NewProviderError(provider string, status ProviderStatus, err error) *ProviderError {
	return &ProviderError{Provider: provider, Status: status, Err: err}
}

// ProviderStatusOf returns the status of a wrapped ProviderError, if any.
func ProviderStatusOf(err error) (ProviderStatus, bool) {
	var perr *ProviderError
	if errors.As(err, &perr) {
		return perr.Status, true
	}
	return "", false
}

// ValidationError is a missing or malformed required input. The operation is refused locally.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}
