package plaid

import (
	"fmt"
	"net/http"
)

const (
	// ErrCodeUnreachable marks transport failures before any response arrived.
	ErrCodeUnreachable = "PROVIDER_UNREACHABLE"
	// ErrCodeInvalidResponse marks a success status with an undecodable body.
	ErrCodeInvalidResponse = "INVALID_RESPONSE"
)

// ProviderError is the error body the aggregation API returns, kept verbatim
// so it can be surfaced to clients unchanged.
type ProviderError struct {
	StatusCode     int    `json:"status_code"`
	ErrorCode      string `json:"error_code"`
	ErrorType      string `json:"error_type"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id,omitempty"`
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("plaid error (status %d): %s %s: %s", e.StatusCode, e.ErrorType, e.ErrorCode, e.ErrorMessage)
}

// HTTPStatus is the status to relay downstream. Transport and decode failures
// have no meaningful upstream status and map to 502.
func (e *ProviderError) HTTPStatus() int {
	if e.StatusCode < http.StatusBadRequest {
		return http.StatusBadGateway
	}
	return e.StatusCode
}

type errorBody struct {
	ErrorType      string `json:"error_type"`
	ErrorCode      string `json:"error_code"`
	ErrorMessage   string `json:"error_message"`
	DisplayMessage string `json:"display_message"`
	RequestID      string `json:"request_id"`
}
