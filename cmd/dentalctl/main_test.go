package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/dentaldesk/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testTOTPSecret = "JBSWY3DPEHPK3PXP"

func token(t *testing.T, role string) string {
	t.Helper()
	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u-9",
		Email:            "pat@example.com",
		Type:             role,
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test"))
	require.NoError(t, err)
	return tok
}

// fakeAPI answers login according to the submitted e-mail.
func fakeAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/auth/login":
			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			switch req["email"] {
			case "temp@example.com":
				_, _ = w.Write([]byte(`{"success":true,"data":{"requiresPasswordChange":true,"tempToken":"tmp-1","userType":"admin"}}`))
			case "2fa@example.com":
				if req["twoFactorCode"] == "" || !totp.Validate(req["twoFactorCode"], testTOTPSecret) {
					_, _ = w.Write([]byte(`{"success":true,"data":{"requiresTwoFactor":true}}`))
					return
				}
				_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"token": token(t, "doctor")}})
			case "pat@example.com":
				_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": map[string]any{"token": token(t, "patient")}})
			default:
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"Invalid credentials"}`))
			}
		case "/api/users/force-password-change":
			require.Equal(t, "Bearer tmp-1", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`{"success":true,"message":"Password updated"}`))
		case "/api/auth/logout":
			_, _ = w.Write([]byte(`{"success":true}`))
		case "/api/auth/forgot-password":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"success":false,"message":"User not found"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type cli struct {
	t    *testing.T
	base []string
}

func newCLI(t *testing.T) *cli {
	dir := t.TempDir()
	return &cli{t: t, base: []string{
		"--config", filepath.Join(dir, "config.yaml"),
		"--api-url", fakeAPI(t).URL,
		"--storage-path", filepath.Join(dir, "session.json"),
		"--log-level", "error",
	}}
}

func (c *cli) run(stdin string, args ...string) (string, error) {
	cmd := NewRootCmd()
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append(args, c.base...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommand_HasExpectedSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetArgs([]string{"--help"})

	require.NoError(t, cmd.Execute())

	for _, sub := range []string{
		"login", "logout", "whoami", "register", "forgot-password", "reset-password",
		"verify-email", "resend-verification", "change-password", "open", "serve",
	} {
		assert.Contains(t, buf.String(), sub, "help missing %q command", sub)
	}
}

func TestLoginSession(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in.")

	out, err = c.run("hunter22\n", "login", "--email", "pat@example.com", "--role", "patient")
	require.NoError(t, err)
	require.Contains(t, out, "Logged in as pat@example.com (patient). Home: /patient/dashboard")

	out, err = c.run("", "whoami", "--json")
	require.NoError(t, err)
	var who whoamiOutput
	require.NoError(t, json.Unmarshal([]byte(out), &who))
	require.Equal(t, "authenticated", who.State)
	require.Equal(t, "/patient/dashboard", who.Home)

	out, err = c.run("", "open", "/admin/dashboard")
	require.NoError(t, err)
	require.Equal(t, "redirect /patient/dashboard\n", out)

	out, err = c.run("", "open", "/patient/appointments/42")
	require.NoError(t, err)
	require.Equal(t, "render patient.appointment id=42\n", out)

	_, err = c.run("", "logout")
	require.NoError(t, err)

	out, err = c.run("", "open", "/patient/appointments")
	require.NoError(t, err)
	require.Equal(t, "redirect /auth/login?from=%2Fpatient%2Fappointments\n", out)
}

func TestLoginFailure(t *testing.T) {
	c := newCLI(t)

	_, err := c.run("", "login", "--email", "who@example.com", "--password", "nope1234", "--role", "admin")
	require.EqualError(t, err, "Invalid credentials")

	_, err = c.run("", "login", "--email", "who@example.com", "--password", "x", "--role", "dentist")
	require.Error(t, err)
}

func TestLoginTwoFactor(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "login", "--email", "2fa@example.com", "--password", "secret123",
		"--role", "doctor", "--totp-secret", testTOTPSecret)
	require.NoError(t, err)
	require.Contains(t, out, "(doctor)")
}

func TestLoginForcedPasswordChange(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "login", "--email", "temp@example.com", "--password", "temporary",
		"--role", "admin", "--new-password", "brand-new-secret")
	require.NoError(t, err)
	require.Contains(t, out, "Password updated")

	out, err = c.run("", "whoami")
	require.NoError(t, err)
	require.Contains(t, out, "Not logged in.")
}

func TestForgotPasswordIsNeutral(t *testing.T) {
	c := newCLI(t)

	out, err := c.run("", "forgot-password", "--email", "ghost@example.com")
	require.NoError(t, err)
	require.NotContains(t, out, "User not found")
	require.Contains(t, out, "If an account exists")

	_, err = c.run("", "forgot-password", "--email", "not-an-email")
	require.Error(t, err)
}

func TestPrompt(t *testing.T) {
	in := strings.NewReader("first\r\nsecond")
	var out bytes.Buffer

	a, err := prompt(in, &out, "A: ")
	require.NoError(t, err)
	b, err := prompt(in, &out, "B: ")
	require.NoError(t, err)

	require.Equal(t, "first", a)
	require.Equal(t, "second", b)
	require.Equal(t, "A: B: ", out.String())
}
