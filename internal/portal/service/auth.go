package service

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
)

// AccountAPI is the part of the API client the account flows use.
type AccountAPI interface {
	Register(ctx context.Context, req dentalsdk.RegisterRequest) (*dentalsdk.Ack, error)
	ForgotPassword(ctx context.Context, email string) (*dentalsdk.Ack, error)
	ResetPassword(ctx context.Context, req dentalsdk.ResetPasswordRequest) (*dentalsdk.Ack, error)
	ResendVerificationEmail(ctx context.Context, email string) (*dentalsdk.Ack, error)
	VerifyEmail(ctx context.Context, token string) (*dentalsdk.Ack, error)
	ChangeForcedPassword(ctx context.Context, role dentalsdk.Role, tempToken, newPassword string) (*dentalsdk.Ack, error)
}

// Acknowledgment is the neutral answer to requests whose outcome must not
// reveal whether an account exists.
type Acknowledgment struct {
	Message string
}

var (
	ResetLinkSent = Acknowledgment{
		Message: "If an account exists for that e-mail address, a password reset link has been sent.",
	}
	VerificationSent = Acknowledgment{
		Message: "If that e-mail address needs verifying, a new verification link has been sent.",
	}
)

// ForcedPasswordChange is the input of ChangeForcedPassword. Empty TempToken
// and Role fall back to the stored temp token and the role captured at login.
type ForcedPasswordChange struct {
	TempToken   string
	NewPassword string
	Role        domain.Role
}

// AuthService runs the account flows beyond plain login. None of them signs
// the user in; each successful flow ends at the login page.
type AuthService struct {
	API     AccountAPI
	Session *SessionStore
	Logger  *slog.Logger
}

func NewAuthService(api AccountAPI, session *SessionStore, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &AuthService{API: api, Session: session, Logger: logger}
}

// Register creates a patient account.
func (s *AuthService) Register(ctx context.Context, req dentalsdk.RegisterRequest) (*Acknowledgment, error) {
	if fields := req.Validate(); fields != nil {
		return nil, &FlowError{Reason: ErrValidation, Message: "Please correct the highlighted fields.", Fields: fields}
	}

	ack, err := s.API.Register(ctx, req)
	if err != nil {
		apiErr, ok := dentalsdk.AsAPIError(err)
		if !ok {
			return nil, err
		}
		switch apiErr.Kind {
		case dentalsdk.KindValidationFailed, dentalsdk.KindBadRequest:
			return nil, &FlowError{Reason: ErrValidation, Message: apiErr.UserMessage(), Fields: apiErr.FieldErrors, Err: err}
		case dentalsdk.KindConflict:
			return nil, &FlowError{Reason: ErrConflict, Message: orDefault(apiErr.Message, "An account with this e-mail address already exists."), Err: err}
		}
		return nil, err
	}

	s.Logger.Info("account registered")
	return &Acknowledgment{Message: orDefault(ack.Message, "Registration successful. Please check your e-mail to verify your account.")}, nil
}

// ForgotPassword always answers with ResetLinkSent unless the request could
// not be delivered at all.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (*Acknowledgment, error) {
	if err := requireEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.API.ForgotPassword(ctx, email); err != nil && !hideable(err) {
		return nil, err
	}
	ack := ResetLinkSent
	return &ack, nil
}

// ResendVerificationEmail follows the same policy as ForgotPassword.
func (s *AuthService) ResendVerificationEmail(ctx context.Context, email string) (*Acknowledgment, error) {
	if err := requireEmail(email); err != nil {
		return nil, err
	}
	if _, err := s.API.ResendVerificationEmail(ctx, email); err != nil && !hideable(err) {
		return nil, err
	}
	ack := VerificationSent
	return &ack, nil
}

// ResetPassword sets a new password from a reset link. A missing, expired or
// used token fails with ErrInvalidToken.
func (s *AuthService) ResetPassword(ctx context.Context, req dentalsdk.ResetPasswordRequest) (*Acknowledgment, error) {
	if strings.TrimSpace(req.Token) == "" {
		return nil, &FlowError{Reason: ErrInvalidToken, Message: "This reset link is invalid or has expired."}
	}
	if fields := req.Validate(); fields != nil {
		return nil, &FlowError{Reason: ErrValidation, Message: "Please correct the highlighted fields.", Fields: fields}
	}

	ack, err := s.API.ResetPassword(ctx, req)
	if err != nil {
		apiErr, ok := dentalsdk.AsAPIError(err)
		if !ok {
			return nil, err
		}
		switch apiErr.Kind {
		case dentalsdk.KindValidationFailed:
			return nil, &FlowError{Reason: ErrValidation, Message: apiErr.UserMessage(), Fields: apiErr.FieldErrors, Err: err}
		case dentalsdk.KindBadRequest, dentalsdk.KindUnauthorized, dentalsdk.KindNotFound:
			return nil, &FlowError{Reason: ErrInvalidToken, Message: "This reset link is invalid or has expired.", Err: err}
		}
		return nil, err
	}

	return &Acknowledgment{Message: orDefault(ack.Message, "Your password has been reset. Please log in.")}, nil
}

// VerifyEmail confirms an address. Failures distinguish ErrTokenExpired,
// where resending makes sense, from ErrTokenInvalid.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (*Acknowledgment, error) {
	if strings.TrimSpace(token) == "" {
		return nil, &FlowError{Reason: ErrTokenInvalid, Message: "This verification link is invalid."}
	}

	ack, err := s.API.VerifyEmail(ctx, token)
	if err != nil {
		apiErr, ok := dentalsdk.AsAPIError(err)
		if !ok || apiErr.StatusCode < 400 || apiErr.StatusCode >= 500 || apiErr.Kind == dentalsdk.KindRateLimited {
			return nil, err
		}
		if isExpiry(apiErr) {
			return nil, &FlowError{Reason: ErrTokenExpired, Message: "This verification link has expired. Request a new one.", Err: err}
		}
		return nil, &FlowError{Reason: ErrTokenInvalid, Message: "This verification link is invalid.", Err: err}
	}

	return &Acknowledgment{Message: orDefault(ack.Message, "Your e-mail address has been verified. Please log in.")}, nil
}

// ChangeForcedPassword sets the permanent password of an account that logged
// in with a temporary one. The endpoint follows the role captured at login.
// On success the temp token is discarded and the session returns to
// Anonymous; the user then logs in with the new password.
func (s *AuthService) ChangeForcedPassword(ctx context.Context, in ForcedPasswordChange) (*Acknowledgment, error) {
	s.Session.flight.Lock()
	defer s.Session.flight.Unlock()

	tempToken := in.TempToken
	if tempToken == "" {
		tok, ok, err := s.Session.Temp.Load(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &FlowError{Reason: ErrNoTempToken, Message: "Your temporary session has ended. Please log in again."}
		}
		tempToken = tok
	}

	role := in.Role
	if role == "" {
		role = s.Session.Snapshot().PendingRole
	}
	if !role.Valid() {
		return nil, &FlowError{Reason: dentalsdk.ErrUnknownRole, Message: "Unknown account type. Please log in again."}
	}

	if fields := dentalsdk.ValidatePassword(in.NewPassword); fields != nil {
		return nil, &FlowError{Reason: ErrValidation, Message: "Please choose a stronger password.", Fields: fields}
	}

	ack, err := s.API.ChangeForcedPassword(ctx, role, tempToken, in.NewPassword)
	if err != nil {
		apiErr, ok := dentalsdk.AsAPIError(err)
		if !ok {
			return nil, err
		}
		switch apiErr.Kind {
		case dentalsdk.KindValidationFailed, dentalsdk.KindBadRequest:
			return nil, &FlowError{Reason: ErrValidation, Message: apiErr.UserMessage(), Fields: apiErr.FieldErrors, Err: err}
		case dentalsdk.KindUnauthorized:
			return nil, &FlowError{Reason: ErrInvalidToken, Message: "Your temporary session has ended. Please log in again.", Err: err}
		}
		return nil, err
	}

	s.Session.completePasswordChange(ctx)
	s.Logger.Info("forced password change completed", "role", role)

	return &Acknowledgment{Message: orDefault(ack.Message, "Password changed. Please log in with your new password.")}, nil
}

// hideable reports whether err may be folded into a neutral acknowledgment.
// Transport failures, rate limiting and server errors are surfaced since the
// request may not have been acted on.
func hideable(err error) bool {
	apiErr, ok := dentalsdk.AsAPIError(err)
	if !ok {
		return false
	}
	switch apiErr.Kind {
	case dentalsdk.KindTransport, dentalsdk.KindRateLimited, dentalsdk.KindServerError:
		return false
	}
	return true
}

func isExpiry(apiErr *dentalsdk.APIError) bool {
	if apiErr.StatusCode == http.StatusGone {
		return true
	}
	return strings.Contains(strings.ToLower(apiErr.Code), "expired") ||
		strings.Contains(strings.ToLower(apiErr.Message), "expired")
}

func requireEmail(email string) error {
	if fields := dentalsdk.ValidateEmail(email); fields != nil {
		return &FlowError{Reason: ErrValidation, Message: "Please enter a valid e-mail address.", Fields: fields}
	}
	return nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
