package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/store/drivers/memory"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func makeToken(t *testing.T, role string, exp time.Time, perms ...string) string {
	t.Helper()
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(exp)},
		UserID:           "u-1",
		Email:            "a@b.com",
		Type:             role,
		Permissions:      perms,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

// fakeAPI implements AuthAPI and AccountAPI with canned responses.
type fakeAPI struct {
	mu sync.Mutex

	loginResp  *dentalsdk.LoginResponse
	loginErr   error
	loginGate  chan struct{}
	loginCalls int

	logoutErr    error
	logoutTokens []string

	ackErr       error
	changeCalls  []changeCall
	lastEmail    string
	lastRegister dentalsdk.RegisterRequest
}

type changeCall struct {
	role      dentalsdk.Role
	tempToken string
	password  string
}

func (f *fakeAPI) Login(ctx context.Context, req dentalsdk.LoginRequest) (*dentalsdk.LoginResponse, error) {
	f.mu.Lock()
	f.loginCalls++
	gate := f.loginGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	resp := *f.loginResp
	return &resp, nil
}

func (f *fakeAPI) Logout(ctx context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logoutTokens = append(f.logoutTokens, token)
	return f.logoutErr
}

func (f *fakeAPI) Register(ctx context.Context, req dentalsdk.RegisterRequest) (*dentalsdk.Ack, error) {
	f.lastRegister = req
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return &dentalsdk.Ack{}, nil
}

func (f *fakeAPI) ForgotPassword(ctx context.Context, email string) (*dentalsdk.Ack, error) {
	f.lastEmail = email
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return &dentalsdk.Ack{Message: "Reset e-mail sent to " + email}, nil
}

func (f *fakeAPI) ResetPassword(ctx context.Context, req dentalsdk.ResetPasswordRequest) (*dentalsdk.Ack, error) {
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return &dentalsdk.Ack{}, nil
}

func (f *fakeAPI) ResendVerificationEmail(ctx context.Context, email string) (*dentalsdk.Ack, error) {
	f.lastEmail = email
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return &dentalsdk.Ack{Message: "sent"}, nil
}

func (f *fakeAPI) VerifyEmail(ctx context.Context, token string) (*dentalsdk.Ack, error) {
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return &dentalsdk.Ack{}, nil
}

func (f *fakeAPI) ChangeForcedPassword(ctx context.Context, role dentalsdk.Role, tempToken, newPassword string) (*dentalsdk.Ack, error) {
	f.changeCalls = append(f.changeCalls, changeCall{role, tempToken, newPassword})
	if f.ackErr != nil {
		return nil, f.ackErr
	}
	return &dentalsdk.Ack{}, nil
}

func newTestSession(api *fakeAPI) (*SessionStore, *memory.Store) {
	kv := memory.NewStore()
	s := NewSessionStore(api, kv, nil)
	s.Now = func() time.Time { return testNow }
	return s, kv
}
