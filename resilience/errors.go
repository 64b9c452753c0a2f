package resilience

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies an application-level error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindPromptConstruction
	KindPromptExecution
	KindSerialization
	KindTimeout
	KindAPI
	KindConfiguration
	KindSDK
	KindPlugin
	KindRateLimit
	KindNetwork
	KindAuthentication
)

// Code returns the stable code string reported for the kind.
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindPromptConstruction:
		return "PROMPT_CONSTRUCTION_ERROR"
	case KindPromptExecution:
		return "PROMPT_EXECUTION_ERROR"
	case KindSerialization:
		return "SERIALIZATION_ERROR"
	case KindTimeout:
		return "TIMEOUT_ERROR"
	case KindAPI:
		return "API_ERROR"
	case KindConfiguration:
		return "CONFIGURATION_ERROR"
	case KindSDK:
		return "SDK_ERROR"
	case KindPlugin:
		return "PLUGIN_ERROR"
	case KindRateLimit:
		return "RATE_LIMIT_ERROR"
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindAuthentication:
		return "AUTHENTICATION_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

// Error is a classified application error. All categories carry a code,
// a human-readable message, and structured details; API and RateLimit
// errors carry their category-specific fields in addition.
type Error struct {
	Kind    Kind
	Message string
	Details map[string]any

	// Status and RawResponse are set for KindAPI errors only.
	Status      int
	RawResponse string

	// ResetIn is set for KindRateLimit errors only.
	ResetIn time.Duration

	cause error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is implements errors.Is comparison by kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *Error) WithCause(cause error) *Error {
	clone := *e
	clone.cause = cause
	return &clone
}

// NewValidation creates a validation error. Validation errors are never
// retryable.
func NewValidation(msg string, details map[string]any) *Error {
	return &Error{Kind: KindValidation, Message: msg, Details: details}
}

// NewPromptConstruction creates an error for a prompt that could not be
// assembled.
func NewPromptConstruction(msg string, details map[string]any) *Error {
	return &Error{Kind: KindPromptConstruction, Message: msg, Details: details}
}

// NewPromptExecution creates an error for a prompt that failed while
// being executed downstream.
func NewPromptExecution(msg string, details map[string]any) *Error {
	return &Error{Kind: KindPromptExecution, Message: msg, Details: details}
}

// NewSerialization creates an error for a value that could not be
// encoded or decoded.
func NewSerialization(msg string, cause error) *Error {
	return &Error{Kind: KindSerialization, Message: msg, cause: cause}
}

// NewTimeout creates a timeout error. The configured timeout is recorded
// in Details under "timeoutMs".
func NewTimeout(msg string, timeout time.Duration) *Error {
	return &Error{
		Kind:    KindTimeout,
		Message: msg,
		Details: map[string]any{"timeoutMs": timeout.Milliseconds()},
	}
}

// NewAPI creates an error for a failed downstream API call.
func NewAPI(msg string, status int, rawResponse string) *Error {
	return &Error{
		Kind:        KindAPI,
		Message:     msg,
		Status:      status,
		RawResponse: rawResponse,
		Details:     map[string]any{"status": status},
	}
}

// NewConfiguration creates a configuration error.
func NewConfiguration(msg string, details map[string]any) *Error {
	return &Error{Kind: KindConfiguration, Message: msg, Details: details}
}

// NewSDK creates an error originating inside an SDK integration.
func NewSDK(msg string, cause error) *Error {
	return &Error{Kind: KindSDK, Message: msg, cause: cause}
}

// NewPlugin creates an error originating inside a plugin.
func NewPlugin(msg string, cause error) *Error {
	return &Error{Kind: KindPlugin, Message: msg, cause: cause}
}

// NewRateLimit creates a rate-limit error carrying the time until the
// limit resets.
func NewRateLimit(msg string, resetIn time.Duration) *Error {
	return &Error{
		Kind:    KindRateLimit,
		Message: msg,
		ResetIn: resetIn,
		Details: map[string]any{"resetInMs": resetIn.Milliseconds()},
	}
}

// NewNetwork creates a network error.
func NewNetwork(msg string, cause error) *Error {
	return &Error{Kind: KindNetwork, Message: msg, cause: cause}
}

// NewAuthentication creates an authentication error.
func NewAuthentication(msg string, details map[string]any) *Error {
	return &Error{Kind: KindAuthentication, Message: msg, Details: details}
}

// IsKind reports whether err is a taxonomy error of the given kind.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

// IsRetryable reports whether an error is worth retrying: network and
// timeout failures, plus API failures with status 429 or any 5xx.
// Validation errors and other 4xx API failures are not retryable.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindAPI:
		return e.Status == 429 || e.Status >= 500
	default:
		return false
	}
}

// Formatted is the normalized shape of any error, suitable for logging
// or returning over the wire.
type Formatted struct {
	Message string         `json:"message"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// FormatError normalizes any error into a Formatted value. Errors from
// outside the taxonomy get the code UNKNOWN_ERROR.
func FormatError(err error) Formatted {
	if err == nil {
		return Formatted{Message: "unknown error", Code: KindUnknown.Code()}
	}
	var e *Error
	if errors.As(err, &e) {
		return Formatted{Message: e.Message, Code: e.Kind.Code(), Details: e.Details}
	}
	return Formatted{Message: err.Error(), Code: KindUnknown.Code()}
}
