package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	"github.com/aussiebroadwan/dentaldesk/pkg/cryptox"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/jwtx"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
)

// AuthAPI is the part of the API client the session store drives.
type AuthAPI interface {
	Login(ctx context.Context, req dentalsdk.LoginRequest) (*dentalsdk.LoginResponse, error)
	Logout(ctx context.Context, token string) error
}

// Credentials are what a user submits to log in.
type Credentials struct {
	Email         string
	Password      string
	Role          domain.Role
	TwoFactorCode string
}

// LoginResult is the outcome of a successful login call.
type LoginResult struct {
	Role         domain.Role
	RedirectPath string

	// RequiresPasswordChange is set when the account must pick a new password
	// before it gets a session. TempToken is then the only token issued.
	RequiresPasswordChange bool
	TempToken              string
}

// SessionStore owns the session for one running client. It is the only
// writer of the persisted tokens.
type SessionStore struct {
	API    AuthAPI
	Auth   *store.Tokens
	Temp   *store.Tokens
	Logger *slog.Logger

	// Now is the clock used for expiry checks.
	Now func() time.Time

	// flight serializes login, logout and the forced password change. Login
	// refuses to wait on it; the others queue.
	flight sync.Mutex

	mu      sync.Mutex
	session domain.Session
	subs    map[int]func(domain.Session)
	nextSub int
}

// NewSessionStore creates a store in the Initializing state. Call Restore to
// leave it.
func NewSessionStore(api AuthAPI, kv store.KV, logger *slog.Logger) *SessionStore {
	if logger == nil {
		logger = slogx.Discard()
	}
	return &SessionStore{
		API:    api,
		Auth:   store.NewTokens(kv, store.KeyAuthToken),
		Temp:   store.NewTokens(kv, store.KeyTempToken),
		Logger: logger,
		Now:    time.Now,
		subs:   make(map[int]func(domain.Session)),
	}
}

func (s *SessionStore) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// ============================================================================
// Reads
// ============================================================================

// Snapshot returns the current session.
func (s *SessionStore) Snapshot() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// RedirectPath is the dashboard of the current user's role, or the not-found
// path when there is no authenticated user.
func (s *SessionStore) RedirectPath() string {
	return domain.DashboardPath(s.Snapshot().Role())
}

// Permissions returns the admin permissions of the current user.
func (s *SessionStore) Permissions() []domain.Permission {
	snap := s.Snapshot()
	if !snap.IsAuthenticated() {
		return nil
	}
	return snap.User.Permissions
}

// HasPermission reports whether the current user is an admin holding p.
func (s *SessionStore) HasPermission(p domain.Permission) bool {
	snap := s.Snapshot()
	return snap.IsAuthenticated() && snap.User.Can(p)
}

// Subscribe registers fn to be called with the new snapshot after every state
// change. The returned func unregisters it.
func (s *SessionStore) Subscribe(fn func(domain.Session)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// ============================================================================
// Transitions
// ============================================================================

// Restore reads the stored bearer token and settles the session as
// Authenticated (valid, unexpired, known role) or Anonymous. An unusable
// token is removed from storage.
func (s *SessionStore) Restore(ctx context.Context) domain.Session {
	token, ok, err := s.Auth.Load(ctx)
	if err != nil {
		s.Logger.Warn("stored session unreadable", "error", err)
		s.clearAuth(ctx)
		return s.transition(func(sess *domain.Session) { *sess = domain.Session{State: domain.Anonymous} })
	}
	if !ok {
		return s.transition(func(sess *domain.Session) { *sess = domain.Session{State: domain.Anonymous} })
	}

	user, err := identityFromToken(token, s.now())
	if err != nil {
		s.Logger.Info("discarding stored session", "reason", err, "token_fp", cryptox.LogFingerprint(token))
		s.clearAuth(ctx)
		return s.transition(func(sess *domain.Session) { *sess = domain.Session{State: domain.Anonymous} })
	}

	s.Logger.Debug("session restored", "user_id", user.ID, "role", user.Role)
	return s.transition(func(sess *domain.Session) {
		*sess = domain.Session{State: domain.Authenticated, User: user}
	})
}

// RefreshFromStorage re-runs the restore decision after an out-of-band
// change to the stored token, such as a dentalctl login or logout against the
// same storage. A pending forced password change is left alone, and an
// unchanged token leaves the session (and LastLoginError) untouched.
func (s *SessionStore) RefreshFromStorage(ctx context.Context) domain.Session {
	snap := s.Snapshot()
	switch snap.State {
	case domain.Initializing:
		return s.Restore(ctx)
	case domain.PasswordChangeRequired:
		return snap
	}

	token, ok, err := s.Auth.Load(ctx)
	if err != nil {
		s.Logger.Warn("failed to read token", "error", err)
		return snap
	}
	if !ok {
		s.expire(ctx, "token removed from storage")
		return s.Snapshot()
	}

	user, err := identityFromToken(token, s.now())
	if err != nil {
		s.Logger.Info("discarding stored session", "reason", err, "token_fp", cryptox.LogFingerprint(token))
		s.clearAuth(ctx)
		s.expire(ctx, "stored token unusable")
		return s.Snapshot()
	}
	if snap.IsAuthenticated() && sameIdentity(snap.User, user) {
		return snap
	}

	s.Logger.Info("session picked up from storage", "user_id", user.ID, "role", user.Role)
	return s.transitionIf(func(sess *domain.Session) bool {
		if sess.State == domain.PasswordChangeRequired {
			return false
		}
		*sess = domain.Session{State: domain.Authenticated, User: user}
		return true
	})
}

// Login submits credentials. Only one login runs at a time; a concurrent
// attempt fails with ErrLoginInProgress. On failure the session is left as it
// was and LastLoginError explains why.
func (s *SessionStore) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	if !s.flight.TryLock() {
		return nil, ErrLoginInProgress
	}
	defer s.flight.Unlock()

	resp, err := s.API.Login(ctx, dentalsdk.LoginRequest{
		Email:         creds.Email,
		Password:      creds.Password,
		UserType:      creds.Role,
		TwoFactorCode: creds.TwoFactorCode,
	})
	if err != nil {
		var tfa *dentalsdk.TwoFactorRequiredError
		if errors.As(err, &tfa) {
			return nil, fmt.Errorf("%w: %w", ErrTwoFactorRequired, err)
		}
		msg := loginErrorMessage(err)
		s.transition(func(sess *domain.Session) { sess.LastLoginError = msg })
		s.Logger.Info("login failed", "role", creds.Role, "error", err)
		return nil, fmt.Errorf("login: %w", err)
	}

	if resp.RequiresPasswordChange {
		return s.beginPasswordChange(ctx, creds, resp)
	}

	user, err := identityFromToken(resp.Token, s.now())
	if err != nil {
		s.transition(func(sess *domain.Session) {
			sess.LastLoginError = "The server returned an invalid session. Please try again."
		})
		s.Logger.Warn("login returned unusable token", "error", err, "token_fp", cryptox.LogFingerprint(resp.Token))
		return nil, fmt.Errorf("%w: %w", ErrInvalidSession, err)
	}

	if err := s.Auth.Store(ctx, resp.Token); err != nil {
		s.transition(func(sess *domain.Session) { sess.LastLoginError = "Could not save your session." })
		return nil, err
	}
	if err := s.Temp.Clear(ctx); err != nil {
		s.Logger.Warn("failed to clear temp token", "error", err)
	}

	s.transition(func(sess *domain.Session) {
		*sess = domain.Session{State: domain.Authenticated, User: user}
	})
	s.Logger.Info("logged in", "user_id", user.ID, "role", user.Role, "token_fp", cryptox.LogFingerprint(resp.Token))

	return &LoginResult{
		Role:         user.Role,
		RedirectPath: domain.DashboardPath(user.Role),
	}, nil
}

// beginPasswordChange stores only the temp token. The permanent bearer token
// key is not touched.
func (s *SessionStore) beginPasswordChange(ctx context.Context, creds Credentials, resp *dentalsdk.LoginResponse) (*LoginResult, error) {
	if resp.TempToken == "" {
		s.transition(func(sess *domain.Session) {
			sess.LastLoginError = "The server returned an invalid session. Please try again."
		})
		return nil, fmt.Errorf("%w: password change required but no temp token issued", ErrInvalidSession)
	}

	role := creds.Role
	if resp.UserType.Valid() {
		role = resp.UserType
	}

	if err := s.Temp.Store(ctx, resp.TempToken); err != nil {
		s.transition(func(sess *domain.Session) { sess.LastLoginError = "Could not save your session." })
		return nil, err
	}

	s.transition(func(sess *domain.Session) {
		*sess = domain.Session{State: domain.PasswordChangeRequired, PendingRole: role}
	})
	s.Logger.Info("password change required", "role", role)

	return &LoginResult{
		Role:                   role,
		RedirectPath:           domain.ChangePasswordPath,
		RequiresPasswordChange: true,
		TempToken:              resp.TempToken,
	}, nil
}

// Logout ends the session. The server is told on a best-effort basis; the
// local session is cleared whether or not that call succeeds.
func (s *SessionStore) Logout(ctx context.Context) {
	s.flight.Lock()
	defer s.flight.Unlock()

	token, _, err := s.Auth.Load(ctx)
	if err != nil {
		s.Logger.Warn("failed to read token for logout", "error", err)
	}
	if err := s.API.Logout(ctx, token); err != nil {
		s.Logger.Warn("server logout failed", "error", err)
	}

	s.clearAuth(ctx)
	if err := s.Temp.Clear(ctx); err != nil {
		s.Logger.Warn("failed to clear temp token", "error", err)
	}
	s.transition(func(sess *domain.Session) { *sess = domain.Session{State: domain.Anonymous} })
	s.Logger.Info("logged out")
}

// Token is the current-token provider for the API client. It reads storage on
// every call. An expired token ends the session and yields "".
func (s *SessionStore) Token() string {
	ctx := context.Background()

	token, ok, err := s.Auth.Load(ctx)
	if err != nil {
		s.Logger.Warn("failed to read token", "error", err)
		return ""
	}
	if !ok {
		s.expire(ctx, "token removed from storage")
		return ""
	}
	if jwtx.IsExpiredAt(token, s.now()) {
		s.clearAuth(ctx)
		s.expire(ctx, "token expired")
		return ""
	}
	if s.Snapshot().State == domain.Anonymous {
		s.RefreshFromStorage(ctx)
	}
	return token
}

// HandleUnauthorized drops an authenticated session after the API rejected
// its token. Wire it to SDKClient.OnUnauthorized.
func (s *SessionStore) HandleUnauthorized(apiErr *dentalsdk.APIError) {
	ctx := context.Background()
	if !s.Snapshot().IsAuthenticated() {
		return
	}
	s.clearAuth(ctx)
	reason := "api rejected token"
	if apiErr != nil && apiErr.Message != "" {
		reason = apiErr.Message
	}
	s.expire(ctx, reason)
}

// completePasswordChange discards the temp token and returns to Anonymous so
// the user logs in with the new password.
func (s *SessionStore) completePasswordChange(ctx context.Context) {
	if err := s.Temp.Clear(ctx); err != nil {
		s.Logger.Warn("failed to clear temp token", "error", err)
	}
	s.transition(func(sess *domain.Session) { *sess = domain.Session{State: domain.Anonymous} })
}

// expire moves an authenticated session to Anonymous. Other states are left
// alone.
func (s *SessionStore) expire(_ context.Context, reason string) {
	changed := false
	s.transitionIf(func(sess *domain.Session) bool {
		if sess.State != domain.Authenticated {
			return false
		}
		*sess = domain.Session{State: domain.Anonymous}
		changed = true
		return true
	})
	if changed {
		s.Logger.Info("session ended", "reason", reason)
	}
}

func (s *SessionStore) clearAuth(ctx context.Context) {
	if err := s.Auth.Clear(ctx); err != nil {
		s.Logger.Warn("failed to clear auth token", "error", err)
	}
}

// transition applies fn under the lock and notifies subscribers.
func (s *SessionStore) transition(fn func(*domain.Session)) domain.Session {
	return s.transitionIf(func(sess *domain.Session) bool {
		fn(sess)
		return true
	})
}

func (s *SessionStore) transitionIf(fn func(*domain.Session) bool) domain.Session {
	s.mu.Lock()
	if !fn(&s.session) {
		snap := s.session
		s.mu.Unlock()
		return snap
	}
	snap := s.session
	subs := make([]func(domain.Session), 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(snap)
	}
	return snap
}

// ============================================================================
// Helpers
// ============================================================================

func sameIdentity(a, b *domain.UserIdentity) bool {
	return a.ID == b.ID && a.Role == b.Role && a.ExpiresAt.Equal(b.ExpiresAt) &&
		slices.Equal(a.Permissions, b.Permissions)
}

// identityFromToken decodes a bearer token into the session user. The token
// must be unexpired and carry a known role.
func identityFromToken(token string, now time.Time) (*domain.UserIdentity, error) {
	claims, err := jwtx.Decode(token)
	if err != nil {
		return nil, err
	}
	if err := claims.ValidateExpiry(now); err != nil {
		return nil, err
	}
	role, err := dentalsdk.ParseRole(claims.Role())
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, claims.Role())
	}

	user := &domain.UserIdentity{
		ID:        claims.Identity(),
		Email:     claims.Email,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if role == domain.RoleAdmin {
		user.Permissions = domain.ParsePermissions(claims.Permissions)
	}
	return user, nil
}

// loginErrorMessage turns a login failure into text for the login form.
func loginErrorMessage(err error) string {
	apiErr, ok := dentalsdk.AsAPIError(err)
	if !ok {
		return "Something went wrong. Please try again."
	}
	switch apiErr.Kind {
	case dentalsdk.KindUnauthorized:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "Invalid email or password."
	case dentalsdk.KindForbidden:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return "This account cannot sign in. Please verify your e-mail or contact the practice."
	default:
		return apiErr.UserMessage()
	}
}
