package dentalsdk

import (
	"context"
	"fmt"
	"net/http"
)

// forcedPasswordChangePaths maps each role to its forced password change
// endpoint. Each role has its own.
var forcedPasswordChangePaths = map[Role]string{
	RolePatient: "/api/patients/change-password",
	RoleDoctor:  "/api/doctors/change-password",
	RoleAdmin:   "/api/users/force-password-change",
}

// ForcedPasswordChangePath returns the endpoint for role.
func ForcedPasswordChangePath(role Role) (string, error) {
	p, ok := forcedPasswordChangePaths[role]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return p, nil
}

// Login submits credentials. A two-factor challenge is returned as
// *TwoFactorRequiredError; a forced password change is a successful response
// with RequiresPasswordChange set and only TempToken populated.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	resp, err := get[LoginResponse](ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/login",
		body:   req,
		public: true,
	})
	if err != nil {
		return nil, err
	}

	if resp.RequiresTwoFactor && resp.Token == "" && resp.TempToken == "" {
		return nil, &TwoFactorRequiredError{}
	}
	if resp.UserType == "" {
		resp.UserType = req.UserType
	}
	return &resp, nil
}

// Register creates a patient account. It never signs the user in.
func (c *SDKClient) Register(ctx context.Context, req RegisterRequest) (*Ack, error) {
	return ack(ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/register",
		body:   req,
		public: true,
	})
}

// Logout tells the server the token is no longer in use. An empty token is a
// no-op. A 401 here does not trigger OnUnauthorized.
func (c *SDKClient) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	_, err := ack(ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/logout",
		bearer: token,
	})
	return err
}

// ForgotPassword asks the server to e-mail a reset link.
func (c *SDKClient) ForgotPassword(ctx context.Context, email string) (*Ack, error) {
	return ack(ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/forgot-password",
		body:   map[string]string{"email": email},
		public: true,
	})
}

// ResetPassword sets a new password using the token from a reset e-mail.
func (c *SDKClient) ResetPassword(ctx context.Context, req ResetPasswordRequest) (*Ack, error) {
	return ack(ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/reset-password",
		body:   req,
		public: true,
	})
}

// ResendVerificationEmail asks the server to send another verification link.
func (c *SDKClient) ResendVerificationEmail(ctx context.Context, email string) (*Ack, error) {
	return ack(ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/resend-verification-email",
		body:   map[string]string{"email": email},
		public: true,
	})
}

// VerifyEmail confirms an address with the token from a verification e-mail.
func (c *SDKClient) VerifyEmail(ctx context.Context, token string) (*Ack, error) {
	return ack(ctx, c, request{
		method: http.MethodPost,
		path:   "/api/auth/verify-email",
		body:   map[string]string{"token": token},
		public: true,
	})
}

// ChangeForcedPassword sets the permanent password for an account that logged
// in with a temporary one. The endpoint is picked from role, the role
// captured at login, and tempToken is sent as the bearer.
func (c *SDKClient) ChangeForcedPassword(ctx context.Context, role Role, tempToken, newPassword string) (*Ack, error) {
	path, err := ForcedPasswordChangePath(role)
	if err != nil {
		return nil, err
	}
	if tempToken == "" {
		return nil, &APIError{StatusCode: http.StatusUnauthorized, Kind: KindUnauthorized, Message: "missing temporary token"}
	}
	return ack(ctx, c, request{
		method: http.MethodPost,
		path:   path,
		body:   ChangePasswordRequest{NewPassword: newPassword},
		bearer: tempToken,
	})
}
