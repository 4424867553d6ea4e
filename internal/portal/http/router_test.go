package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store/drivers/memory"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
	"github.com/aussiebroadwan/dentaldesk/pkg/jwtx"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func makeToken(t *testing.T, role string, perms ...string) string {
	t.Helper()
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u-1",
		Email:            "user@example.com",
		Type:             role,
		Permissions:      perms,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

// fakeAPI is a stand-in for the dental API. Unregistered paths answer 404.
type fakeAPI struct {
	t   *testing.T
	srv *httptest.Server
	mux *http.ServeMux

	mu   sync.Mutex
	auth map[string]string // path -> last Authorization header
}

func newFakeAPI(t *testing.T) *fakeAPI {
	f := &fakeAPI{t: t, mux: http.NewServeMux(), auth: map[string]string{}}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.auth[r.URL.Path] = r.Header.Get("Authorization")
		f.mu.Unlock()
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAPI) reply(pattern string, status int, body any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		require.NoError(f.t, json.NewEncoder(w).Encode(body))
	})
}

func (f *fakeAPI) ok(pattern string, data any) {
	f.reply(pattern, http.StatusOK, map[string]any{"success": true, "data": data})
}

func (f *fakeAPI) authHeader(path string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth[path]
}

type harness struct {
	api     *fakeAPI
	kv      *memory.Store
	session *service.SessionStore
	router  *Router
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	api := newFakeAPI(t)
	kv := memory.NewStore()

	client := dentalsdk.NewSDKClient(api.srv.URL)
	session := service.NewSessionStore(client, kv, slogx.Discard())
	client.Tokens = session.Token
	client.OnUnauthorized = session.HandleUnauthorized

	router := NewRouter(session, service.NewAuthService(client, session, slogx.Discard()), client, kv, "test", slogx.Discard())
	router.AuthLimit = httpx.RateLimitConfig{RequestsPerWindow: 1000, Window: time.Minute, Burst: 1000}
	router.ApplyRoutes()

	return &harness{api: api, kv: kv, session: session, router: router}
}

// signIn seeds a stored token and restores the session from it.
func (h *harness) signIn(t *testing.T, token string) {
	t.Helper()
	require.NoError(t, h.kv.Set(context.Background(), store.KeyAuthToken, token))
	h.session.Restore(context.Background())
	require.True(t, h.session.Snapshot().IsAuthenticated())
}

func (h *harness) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, target, strings.NewReader(string(raw)))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestGuardWhileLoading(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/patient/dashboard", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Equal(t, "1", rec.Header().Get("Retry-After"))

	rec = h.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGuardRedirectsAnonymousToLogin(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())

	rec := h.do(t, http.MethodGet, "/patient/appointments?status=scheduled", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/auth/login?from=%2Fpatient%2Fappointments%3Fstatus%3Dscheduled", rec.Header().Get("Location"))
	require.Equal(t, rec.Header().Get("Location"), decode[RedirectResponse](t, rec).Redirect)

	rec = h.do(t, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, domain.LoginPath, rec.Header().Get("Location"))
}

func TestLoginReturnsToRequestedPage(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())

	token := makeToken(t, "patient")
	h.api.ok("POST /api/auth/login", map[string]any{"token": token, "userType": "patient"})
	h.api.ok("GET /api/patient/appointments", []map[string]any{{"id": "a-1", "status": "scheduled"}})

	rec := h.do(t, http.MethodPost, "/auth/login", LoginForm{
		Email:    "user@example.com",
		Password: "secret123",
		Role:     "patient",
		From:     "/patient/appointments",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[LoginResponse](t, rec)
	require.Equal(t, "/patient/appointments", resp.Redirect)
	require.Equal(t, domain.RolePatient, resp.Role)
	require.Empty(t, h.api.authHeader("/api/auth/login"))

	rec = h.do(t, http.MethodGet, "/patient/appointments", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, "Bearer "+token, h.api.authHeader("/api/patient/appointments"))
	require.Equal(t, "patient.appointments", decode[ViewResponse](t, rec).Route)
}

func TestLoginIgnoresForeignReturnTarget(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())
	h.api.ok("POST /api/auth/login", map[string]any{"token": makeToken(t, "doctor")})

	for _, from := range []string{"https://evil.example/", "//evil.example", "/admin/dashboard"} {
		h.session.Logout(context.Background())
		rec := h.do(t, http.MethodPost, "/auth/login", LoginForm{
			Email: "user@example.com", Password: "secret123", Role: "doctor", From: from,
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Equal(t, "/doctor/dashboard", decode[LoginResponse](t, rec).Redirect, from)
	}
}

func TestLoginFailureShowsReason(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())
	h.api.reply("POST /api/auth/login", http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid credentials"})

	rec := h.do(t, http.MethodPost, "/auth/login", LoginForm{Email: "user@example.com", Password: "wrong-pass", Role: "admin"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Invalid credentials", decode[ErrorResponse](t, rec).Message)

	rec = h.do(t, http.MethodGet, "/auth/login", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Invalid credentials")
}

func TestLoginValidation(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())

	rec := h.do(t, http.MethodPost, "/auth/login", LoginForm{Email: "not-an-email", Password: "", Role: "patient"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[ErrorResponse](t, rec)
	require.Contains(t, body.Fields, "email")
	require.Contains(t, body.Fields, "password")

	rec = h.do(t, http.MethodPost, "/auth/login", LoginForm{Email: "user@example.com", Password: "x", Role: "dentist"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "unknown_role", decode[ErrorResponse](t, rec).Error)

	rec = h.do(t, http.MethodPost, "/auth/login", map[string]any{"email": "a@b.com", "bogus": true})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoleMismatchRedirectsToOwnDashboard(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t, makeToken(t, "patient"))

	rec := h.do(t, http.MethodGet, "/admin/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/patient/dashboard", rec.Header().Get("Location"))

	rec = h.do(t, http.MethodGet, "/auth/login", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/patient/dashboard", rec.Header().Get("Location"))

	rec = h.do(t, http.MethodGet, "/", nil)
	require.Equal(t, "/patient/dashboard", rec.Header().Get("Location"))
}

func TestAdminPermissions(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t, makeToken(t, "admin", "billing.view"))

	h.api.ok("GET /api/admin/fees", []map[string]any{{"id": "f-1", "name": "Scale and clean", "price": 120}})
	h.api.ok("PATCH /api/admin/fees/{id}", map[string]any{"id": "f-1", "price": 130})

	rec := h.do(t, http.MethodGet, "/admin/fees", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPatch, "/admin/fees/f-1", map[string]any{"name": "Scale and clean", "price": 130})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))

	rec = h.do(t, http.MethodGet, "/admin/users", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Header().Get("Location"))
}

func TestAdminPermissionAllowsAction(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t, makeToken(t, "admin", "billing.view", "billing.edit"))
	h.api.ok("PATCH /api/admin/fees/{id}", map[string]any{"id": "f-1", "price": 130})

	rec := h.do(t, http.MethodPatch, "/admin/fees/f-1", map[string]any{"name": "Scale and clean", "price": 130})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	resp := decode[ViewResponse](t, rec)
	require.Equal(t, "admin.fees", resp.Route)
	require.Equal(t, map[string]string{"id": "f-1"}, resp.Params)
}

func TestPatientAppointmentViews(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t, makeToken(t, "patient"))

	h.api.ok("GET /api/appointment/{id}", map[string]any{"id": "a-7", "status": "scheduled"})
	h.api.ok("GET /api/patient/doctors", []map[string]any{{"id": "d-1", "firstName": "Ada"}})
	h.api.ok("GET /api/appointment/slots", []map[string]any{{"startTime": "09:00", "endTime": "09:30", "available": true}})
	h.api.ok("DELETE /api/patient/appointments/{id}", nil)

	t.Run("detail", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/patient/appointments/a-7", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ViewResponse](t, rec)
		require.Equal(t, "patient.appointment", resp.Route)
		require.Equal(t, map[string]string{"id": "a-7"}, resp.Params)
		require.Equal(t, "a-7", resp.Data.(map[string]any)["id"])
	})

	t.Run("booking form with slots", func(t *testing.T) {
		rec := h.do(t, http.MethodGet, "/patient/appointments/book?doctorId=d-1&date=2026-11-02", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ViewResponse](t, rec)
		require.Empty(t, resp.Params)
		slots := resp.Data.(map[string]any)["slots"].([]any)
		require.Len(t, slots, 1)
	})

	t.Run("cancel keeps the id", func(t *testing.T) {
		rec := h.do(t, http.MethodPost, "/patient/appointments/a-7/cancel", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		resp := decode[ViewResponse](t, rec)
		require.Equal(t, "patient.appointment", resp.Route)
		require.Equal(t, map[string]string{"id": "a-7"}, resp.Params)
	})
}

func TestUnauthorizedEndsSession(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t, makeToken(t, "doctor"))
	h.api.reply("GET /api/doctor/dashboard", http.StatusUnauthorized, map[string]any{"success": false, "message": "jwt expired"})

	rec := h.do(t, http.MethodGet, "/doctor/dashboard", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Equal(t, "Your session has ended. Please log in again.", decode[ErrorResponse](t, rec).Message)
	require.Equal(t, domain.Anonymous, h.session.Snapshot().State)

	_, err := h.kv.Get(context.Background(), store.KeyAuthToken)
	require.ErrorIs(t, err, store.ErrNotFound)

	rec = h.do(t, http.MethodGet, "/doctor/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestForcedPasswordChange(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())

	h.api.ok("POST /api/auth/login", map[string]any{"requiresPasswordChange": true, "tempToken": "temp-123", "userType": "doctor"})
	h.api.ok("POST /api/doctors/change-password", map[string]any{})

	rec := h.do(t, http.MethodPost, "/auth/login", LoginForm{Email: "doc@example.com", Password: "temporary", Role: "doctor"})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[LoginResponse](t, rec)
	require.True(t, resp.RequiresPasswordChange)
	require.Equal(t, domain.ChangePasswordPath, resp.Redirect)

	_, err := h.kv.Get(context.Background(), store.KeyAuthToken)
	require.ErrorIs(t, err, store.ErrNotFound)

	rec = h.do(t, http.MethodGet, "/doctor/dashboard", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	rec = h.do(t, http.MethodGet, "/auth/change-password", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"role":"doctor"`)

	rec = h.do(t, http.MethodPost, "/auth/change-password", PasswordForm{NewPassword: "short"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = h.do(t, http.MethodPost, "/auth/change-password", PasswordForm{NewPassword: "a-much-better-one"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, domain.LoginPath, decode[MessageResponse](t, rec).Redirect)
	require.Equal(t, "Bearer temp-123", h.api.authHeader("/api/doctors/change-password"))
	require.Equal(t, domain.Anonymous, h.session.Snapshot().State)

	rec = h.do(t, http.MethodGet, "/auth/change-password", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, domain.LoginPath, rec.Header().Get("Location"))
}

func TestForgotPasswordIsNeutral(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())
	h.api.reply("POST /api/auth/forgot-password", http.StatusNotFound, map[string]any{"success": false, "message": "No such user"})

	rec := h.do(t, http.MethodPost, "/auth/forgot-password", EmailForm{Email: "nobody@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, service.ResetLinkSent.Message, decode[MessageResponse](t, rec).Message)
	require.NotContains(t, rec.Body.String(), "No such user")
}

func TestVerifyEmail(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())
	h.api.mux.HandleFunc("POST /api/auth/verify-email", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		switch body["token"] {
		case "good":
			_, _ = w.Write([]byte(`{"success":true,"message":"Email verified"}`))
		case "old":
			w.WriteHeader(http.StatusGone)
			_, _ = w.Write([]byte(`{"success":false,"message":"Token expired"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"success":false,"message":"Invalid token"}`))
		}
	})

	rec := h.do(t, http.MethodGet, "/auth/verify-email/good", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/auth/verify-email/old", nil)
	require.Equal(t, http.StatusGone, rec.Code)
	require.Equal(t, "token_expired", decode[ErrorResponse](t, rec).Error)

	rec = h.do(t, http.MethodGet, "/auth/verify-email/junk", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_token", decode[ErrorResponse](t, rec).Error)
}

func TestLogout(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	token := makeToken(t, "patient")
	h.signIn(t, token)
	h.api.reply("POST /api/auth/logout", http.StatusInternalServerError, map[string]any{"success": false})

	rec := h.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Bearer "+token, h.api.authHeader("/api/auth/logout"))
	require.Equal(t, domain.Anonymous, h.session.Snapshot().State)

	rec = h.do(t, http.MethodPost, "/auth/logout", nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSessionEndpoint(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.signIn(t, makeToken(t, "admin", "reports.view", "made.up"))

	rec := h.do(t, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[SessionResponse](t, rec)
	require.True(t, resp.IsAuthenticated)
	require.Equal(t, "/admin/dashboard", resp.RedirectPath)
	require.Equal(t, []domain.Permission{domain.PermReportsView}, resp.User.Permissions)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	h.session.Restore(context.Background())

	rec := h.do(t, http.MethodGet, "/livez", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(t, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[HealthResponse](t, rec)
	require.Equal(t, "anonymous", resp.Checks.Session)
}

func TestUnknownPath(t *testing.T) {
	t.Parallel()
	h := newHarness(t)

	rec := h.do(t, http.MethodGet, "/nowhere", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
