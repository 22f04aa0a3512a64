package api

import "fmt"

// ErrorType represents the category of an API error.
type ErrorType string

const (
	ErrorTypeAuthentication      ErrorType = "authentication_error"
	ErrorTypeInvalidRequest      ErrorType = "invalid_request_error"
	ErrorTypeNotFound            ErrorType = "not_found_error"
	ErrorTypeUpstreamUnavailable ErrorType = "upstream_unavailable"
	ErrorTypeUpstream            ErrorType = "upstream_error"
	ErrorTypeServerError         ErrorType = "server_error"
)

// Error codes carried in the "code" field of the error envelope.
const (
	CodeInvalidAPIKey       = "invalid_api_key"
	CodeMissingField        = "missing_field"
	CodeInvalidValue        = "invalid_value"
	CodeInvalidJSON         = "invalid_json"
	CodeUpstreamUnreachable = "upstream_unreachable"
	CodeUpstreamTimeout     = "upstream_timeout"
	CodeUpstreamStatus      = "upstream_status"
	CodeUpstreamMalformed   = "upstream_malformed"
)

// APIError represents a structured API error with type, code, param, and message.
type APIError struct {
	Type    ErrorType `json:"type"`
	Code    string    `json:"code,omitempty"`
	Param   string    `json:"param,omitempty"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s (param: %s)", e.Type, e.Message, e.Param)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorResponse wraps an APIError for JSON serialization as the top-level error response.
type ErrorResponse struct {
	Error *APIError `json:"error"`
}

// NewAuthenticationError creates an APIError for a missing or unknown bearer token.
func NewAuthenticationError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeAuthentication,
		Code:    CodeInvalidAPIKey,
		Message: message,
	}
}

// NewInvalidRequestError creates an APIError for invalid request parameters.
func NewInvalidRequestError(param, code, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeInvalidRequest,
		Code:    code,
		Param:   param,
		Message: message,
	}
}

// NewNotFoundError creates an APIError for resources that cannot be found.
func NewNotFoundError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: message,
	}
}

// NewUpstreamUnavailableError creates an APIError for an inference server
// that could not be reached.
func NewUpstreamUnavailableError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUpstreamUnavailable,
		Code:    CodeUpstreamUnreachable,
		Message: message,
	}
}

// NewUpstreamTimeoutError creates an APIError for an inference server that
// did not answer within the configured timeout.
func NewUpstreamTimeoutError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUpstreamUnavailable,
		Code:    CodeUpstreamTimeout,
		Message: message,
	}
}

// NewUpstreamError creates an APIError for an inference server that answered
// with a non-success status or an unusable payload.
func NewUpstreamError(code, message string) *APIError {
	return &APIError{
		Type:    ErrorTypeUpstream,
		Code:    code,
		Message: message,
	}
}

// NewServerError creates an APIError for internal server errors.
func NewServerError(message string) *APIError {
	return &APIError{
		Type:    ErrorTypeServerError,
		Message: message,
	}
}
