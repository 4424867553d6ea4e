package dentalsdk

import (
	"errors"
	"fmt"
	"net/http"
)

// ============================================================================
// Error kinds
// ============================================================================

// Kind classifies a failed call by what the user should be told.
type Kind string

const (
	KindBadRequest       Kind = "bad_request"
	KindUnauthorized     Kind = "unauthorized"
	KindForbidden        Kind = "forbidden"
	KindNotFound         Kind = "not_found"
	KindConflict         Kind = "conflict"
	KindValidationFailed Kind = "validation_failed"
	KindRateLimited      Kind = "rate_limited"
	KindServerError      Kind = "server_error"
	KindTransport        Kind = "transport"
)

// KindFromStatus maps an HTTP status to a Kind. Statuses the API does not
// document fall back to BadRequest for 4xx and ServerError otherwise.
func KindFromStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusConflict:
		return KindConflict
	case status == http.StatusUnprocessableEntity:
		return KindValidationFailed
	case status == http.StatusTooManyRequests:
		return KindRateLimited
	case status >= 400 && status < 500:
		return KindBadRequest
	default:
		return KindServerError
	}
}

// ============================================================================
// APIError
// ============================================================================

// APIError is the normalized failure of an SDK call.
type APIError struct {
	// StatusCode is the HTTP status, 0 for transport failures.
	StatusCode int

	Kind Kind

	// Message is the server-provided message, if any.
	Message string

	// Code is the server's machine-readable error code, if any.
	Code string

	// RequestID echoes the X-Request-ID of the failed request.
	RequestID string

	// FieldErrors holds per-field messages from validation failures.
	FieldErrors map[string]string

	// Err is the underlying transport or decode error.
	Err error
}

func (e *APIError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Err != nil:
		return fmt.Sprintf("dentalsdk: %s: %v", e.Kind, e.Err)
	case e.Message != "":
		return fmt.Sprintf("dentalsdk: %s (HTTP %d): %s", e.Kind, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("dentalsdk: %s (HTTP %d)", e.Kind, e.StatusCode)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches another *APIError by Kind, so errors.Is(err, ErrNotFound) works
// for any 404.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// UserMessage is the text a user should see for this failure.
func (e *APIError) UserMessage() string {
	switch e.Kind {
	case KindBadRequest:
		return orDefault(e.Message, "Please check your input and try again.")
	case KindUnauthorized:
		return "Your session has ended. Please log in again."
	case KindForbidden:
		return "Access denied."
	case KindNotFound:
		return "Resource not found."
	case KindConflict:
		return orDefault(e.Message, "A record with these details already exists.")
	case KindValidationFailed:
		return orDefault(e.Message, "Please correct the highlighted fields.")
	case KindRateLimited:
		return "Too many requests. Please slow down and try again shortly."
	case KindServerError:
		return "The server had a problem. Please try again later."
	default:
		return "Something went wrong. Please try again."
	}
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Sentinels for errors.Is.
var (
	ErrBadRequest       = &APIError{Kind: KindBadRequest}
	ErrUnauthorized     = &APIError{Kind: KindUnauthorized}
	ErrForbidden        = &APIError{Kind: KindForbidden}
	ErrNotFound         = &APIError{Kind: KindNotFound}
	ErrConflict         = &APIError{Kind: KindConflict}
	ErrValidationFailed = &APIError{Kind: KindValidationFailed}
	ErrRateLimited      = &APIError{Kind: KindRateLimited}
	ErrServerError      = &APIError{Kind: KindServerError}
	ErrTransport        = &APIError{Kind: KindTransport}
)

// AsAPIError returns the *APIError in err's chain, if any.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ============================================================================
// Login challenges
// ============================================================================

// TwoFactorRequiredError is returned by Login when the account has two-factor
// authentication enabled and no code was supplied (or the code was rejected).
type TwoFactorRequiredError struct {
	Message string
}

func (e *TwoFactorRequiredError) Error() string {
	if e.Message != "" {
		return "dentalsdk: two-factor code required: " + e.Message
	}
	return "dentalsdk: two-factor code required"
}

// ErrUnknownRole is returned when a role-dispatched call gets a role that is
// not patient, doctor or admin.
var ErrUnknownRole = errors.New("dentalsdk: unknown role")

// ============================================================================
// Error parsing
// ============================================================================

// errorBody covers the error shapes the API produces: the envelope with a
// message, an {error, message} pair, and validation errors with per-field
// messages.
type errorBody struct {
	Success *bool             `json:"success"`
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Errors  []fieldErrorEntry `json:"errors"`
}

type fieldErrorEntry struct {
	Field   string `json:"field"`
	Path    string `json:"path"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (b *errorBody) fieldErrors() map[string]string {
	if len(b.Errors) == 0 {
		return nil
	}
	out := make(map[string]string, len(b.Errors))
	for _, fe := range b.Errors {
		field := fe.Field
		if field == "" {
			field = fe.Path
		}
		msg := fe.Message
		if msg == "" {
			msg = fe.Msg
		}
		if field != "" {
			out[field] = msg
		}
	}
	return out
}

// message prefers the human message, then the error field when it is not
// just a code.
func (b *errorBody) message() string {
	if b.Message != "" {
		return b.Message
	}
	return b.Error
}
