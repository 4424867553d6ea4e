package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/route"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
)

// AuthHandler serves the /auth/* forms.
type AuthHandler struct {
	Session *service.SessionStore
	Auth    *service.AuthService
	Tree    *route.Tree
}

type LoginForm struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	TwoFactorCode string `json:"twoFactorCode,omitempty"`

	// From is the page the user was sent away from, if any.
	From string `json:"from,omitempty"`
}

type LoginResponse struct {
	Redirect               string      `json:"redirect"`
	Role                   domain.Role `json:"role"`
	RequiresPasswordChange bool        `json:"requiresPasswordChange,omitempty"`
}

type EmailForm struct {
	Email string `json:"email"`
}

type PasswordForm struct {
	NewPassword string `json:"newPassword"`
}

// MessageResponse carries an acknowledgment and where to go next.
type MessageResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect,omitempty"`
}

// LoginView exposes the last failure and the return target to the form.
func (h *AuthHandler) LoginView(r *http.Request) (any, error) {
	return map[string]string{
		"from":           r.URL.Query().Get("from"),
		"lastLoginError": h.Session.Snapshot().LastLoginError,
	}, nil
}

func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var form LoginForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	if form.From == "" {
		form.From = r.URL.Query().Get("from")
	}

	role, err := dentalsdk.ParseRole(form.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	req := dentalsdk.LoginRequest{Email: form.Email, Password: form.Password, UserType: role, TwoFactorCode: form.TwoFactorCode}
	if fields := req.Validate(); fields != nil {
		writeError(w, r, &service.FlowError{Reason: service.ErrValidation, Message: "Please enter your e-mail address and password.", Fields: fields})
		return
	}

	result, err := h.Session.Login(ctx, service.Credentials{
		Email:         strings.TrimSpace(form.Email),
		Password:      form.Password,
		Role:          role,
		TwoFactorCode: form.TwoFactorCode,
	})
	if err != nil {
		status, body := errorResponse(err)
		if msg := h.Session.Snapshot().LastLoginError; msg != "" && status != http.StatusConflict && body.Error != "two_factor_required" {
			body.Message = msg
		}
		log.Info("portal login rejected", "role", role, "status", status)
		httpx.WriteJSON(w, status, body)
		return
	}

	target := result.RedirectPath
	if !result.RequiresPasswordChange {
		target = route.PostLoginTarget(h.Tree, h.Session.Snapshot(), form.From)
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Redirect:               target,
		Role:                   result.Role,
		RequiresPasswordChange: result.RequiresPasswordChange,
	})
}

// HandleLogout always succeeds.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.Session.Logout(r.Context())
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: "You have been logged out.", Redirect: domain.LoginPath})
}

func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req dentalsdk.RegisterRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.Auth.Register(r.Context(), req)
	writeAck(w, r, ack, err, domain.LoginPath)
}

func (h *AuthHandler) HandleForgotPassword(w http.ResponseWriter, r *http.Request) {
	var form EmailForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.Auth.ForgotPassword(r.Context(), form.Email)
	writeAck(w, r, ack, err, "")
}

func (h *AuthHandler) HandleResendVerification(w http.ResponseWriter, r *http.Request) {
	var form EmailForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.Auth.ResendVerificationEmail(r.Context(), form.Email)
	writeAck(w, r, ack, err, "")
}

func (h *AuthHandler) ResetPasswordView(r *http.Request) (any, error) {
	return map[string]string{"token": r.PathValue("token")}, nil
}

func (h *AuthHandler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	var form PasswordForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.Auth.ResetPassword(r.Context(), dentalsdk.ResetPasswordRequest{
		Token:       r.PathValue("token"),
		NewPassword: form.NewPassword,
	})
	writeAck(w, r, ack, err, domain.LoginPath)
}

// VerifyEmailView verifies the address on visit. An expired link offers the
// resend form.
func (h *AuthHandler) VerifyEmailView(r *http.Request) (any, error) {
	ack, err := h.Auth.VerifyEmail(r.Context(), r.PathValue("token"))
	if err != nil {
		return nil, err
	}
	return MessageResponse{Message: ack.Message, Redirect: domain.LoginPath}, nil
}

func (h *AuthHandler) ChangePasswordView(*http.Request) (any, error) {
	return map[string]domain.Role{"role": h.Session.Snapshot().PendingRole}, nil
}

func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var form PasswordForm
	if err := decodeBody(r, &form); err != nil {
		writeError(w, r, err)
		return
	}
	ack, err := h.Auth.ChangeForcedPassword(r.Context(), service.ForcedPasswordChange{NewPassword: form.NewPassword})
	writeAck(w, r, ack, err, domain.LoginPath)
}

func writeAck(w http.ResponseWriter, r *http.Request, ack *service.Acknowledgment, err error, next string) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, MessageResponse{Message: ack.Message, Redirect: next})
}

func decodeBody(r *http.Request, v any) error {
	if err := httpx.DecodeJSON(r, v); err != nil {
		return fmt.Errorf("%w: %w", errBadBody, err)
	}
	return nil
}
