package http

import (
	"errors"
	"net/http"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
)

// ErrorResponse is the portal's failure body.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

var errBadBody = errors.New("request body is not valid JSON for this endpoint")

func writeError(w http.ResponseWriter, req *http.Request, err error) {
	status, body := errorResponse(err)
	if status >= http.StatusInternalServerError {
		slogx.FromContext(req.Context()).Error("request failed", "error", err)
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	httpx.WriteJSON(w, status, body)
}

func errorResponse(err error) (int, ErrorResponse) {
	if errors.Is(err, errBadBody) {
		return http.StatusBadRequest, ErrorResponse{Error: "invalid_request", Message: "Please check your input and try again."}
	}

	var flow *service.FlowError
	if errors.As(err, &flow) {
		return flowStatus(flow), ErrorResponse{Error: flowCode(flow), Message: flow.UserMessage(), Fields: flow.Fields}
	}

	switch {
	case errors.Is(err, service.ErrLoginInProgress):
		return http.StatusConflict, ErrorResponse{Error: "login_in_progress", Message: "A login is already in progress."}
	case errors.Is(err, service.ErrTwoFactorRequired):
		return http.StatusUnauthorized, ErrorResponse{Error: "two_factor_required", Message: "Enter the code from your authenticator app."}
	case errors.Is(err, dentalsdk.ErrUnknownRole):
		return http.StatusBadRequest, ErrorResponse{Error: "unknown_role", Message: "Please choose patient, doctor or admin."}
	case errors.Is(err, service.ErrInvalidSession):
		return http.StatusBadGateway, ErrorResponse{Error: "invalid_session", Message: "The server returned an invalid session. Please try again."}
	}

	if apiErr, ok := dentalsdk.AsAPIError(err); ok {
		status := apiErr.StatusCode
		if apiErr.Kind == dentalsdk.KindTransport || status == 0 {
			status = http.StatusBadGateway
		}
		return status, ErrorResponse{Error: string(apiErr.Kind), Message: apiErr.UserMessage(), Fields: apiErr.FieldErrors}
	}

	return http.StatusInternalServerError, ErrorResponse{Error: "internal_error", Message: "Something went wrong. Please try again."}
}

func flowStatus(e *service.FlowError) int {
	switch {
	case errors.Is(e, service.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(e, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(e, service.ErrTokenExpired):
		return http.StatusGone
	case errors.Is(e, service.ErrNoTempToken):
		return http.StatusUnauthorized
	case errors.Is(e, service.ErrInvalidToken), errors.Is(e, service.ErrTokenInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func flowCode(e *service.FlowError) string {
	switch {
	case errors.Is(e, service.ErrValidation):
		return "validation_failed"
	case errors.Is(e, service.ErrConflict):
		return "conflict"
	case errors.Is(e, service.ErrTokenExpired):
		return "token_expired"
	case errors.Is(e, service.ErrNoTempToken):
		return "no_temp_token"
	case errors.Is(e, dentalsdk.ErrUnknownRole):
		return "unknown_role"
	default:
		return "invalid_token"
	}
}
