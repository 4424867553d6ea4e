package dentalsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeEnvelope(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestAuthorizationHeader(t *testing.T) {
	t.Parallel()

	var got atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.Store(r.Header.Values("Authorization"))
		writeEnvelope(t, w, http.StatusOK, map[string]any{"success": true, "data": map[string]any{}})
	}))
	defer srv.Close()

	token := ""
	client := NewSDKClient(srv.URL)
	client.Tokens = func() string { return token }

	t.Run("no token means no header", func(t *testing.T) {
		_, err := client.Admin().Dashboard(context.Background())
		require.NoError(t, err)
		require.Empty(t, got.Load())
	})

	t.Run("token read per request", func(t *testing.T) {
		token = "first"
		_, err := client.Admin().Dashboard(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"Bearer first"}, got.Load())

		token = "second"
		_, err = client.Admin().Dashboard(context.Background())
		require.NoError(t, err)
		require.Equal(t, []string{"Bearer second"}, got.Load())
	})

	t.Run("public calls never carry the token", func(t *testing.T) {
		token = "session"
		_, err := client.ForgotPassword(context.Background(), "a@b.com")
		require.NoError(t, err)
		require.Empty(t, got.Load())
	})
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status int
		kind   Kind
		target error
	}{
		{http.StatusBadRequest, KindBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, KindUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, KindForbidden, ErrForbidden},
		{http.StatusNotFound, KindNotFound, ErrNotFound},
		{http.StatusConflict, KindConflict, ErrConflict},
		{http.StatusUnprocessableEntity, KindValidationFailed, ErrValidationFailed},
		{http.StatusTooManyRequests, KindRateLimited, ErrRateLimited},
		{http.StatusInternalServerError, KindServerError, ErrServerError},
		{http.StatusBadGateway, KindServerError, ErrServerError},
	}

	for _, tc := range cases {
		t.Run(http.StatusText(tc.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(t, w, tc.status, map[string]any{"success": false, "message": "server says no"})
			}))
			defer srv.Close()

			_, err := NewSDKClient(srv.URL).Patient().Profile(context.Background())
			require.ErrorIs(t, err, tc.target)

			apiErr, ok := AsAPIError(err)
			require.True(t, ok)
			require.Equal(t, tc.status, apiErr.StatusCode)
			require.Equal(t, tc.kind, apiErr.Kind)
			require.Equal(t, "server says no", apiErr.Message)
			require.NotEmpty(t, apiErr.UserMessage())
		})
	}
}

func TestErrorBodies(t *testing.T) {
	t.Parallel()

	t.Run("non json body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "<html>bad gateway</html>", http.StatusBadGateway)
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).Doctor().Profile(context.Background())
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, KindServerError, apiErr.Kind)
		require.Empty(t, apiErr.Message)
		require.Equal(t, "The server had a problem. Please try again later.", apiErr.UserMessage())
	})

	t.Run("validation field errors", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(t, w, http.StatusUnprocessableEntity, map[string]any{
				"success": false,
				"message": "Validation failed",
				"errors":  []map[string]string{{"field": "email", "message": "invalid"}, {"path": "phone", "msg": "too short"}},
			})
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).Register(context.Background(), RegisterRequest{})
		apiErr, ok := AsAPIError(err)
		require.True(t, ok)
		require.Equal(t, map[string]string{"email": "invalid", "phone": "too short"}, apiErr.FieldErrors)
	})

	t.Run("success false on 200", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			writeEnvelope(t, w, http.StatusOK, map[string]any{"success": false, "message": "nope"})
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).Patient().Dashboard(context.Background())
		require.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("undecodable success body is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{not json"))
		}))
		defer srv.Close()

		_, err := NewSDKClient(srv.URL).Patient().Dashboard(context.Background())
		require.ErrorIs(t, err, ErrTransport)
	})

	t.Run("unreachable server", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := NewSDKClient(url).Patient().Dashboard(context.Background())
		require.ErrorIs(t, err, ErrTransport)
		require.Equal(t, "Something went wrong. Please try again.", err.(*APIError).UserMessage())
	})
}

func TestUserMessageFallbacks(t *testing.T) {
	t.Parallel()

	require.Equal(t, "Please check your input and try again.", (&APIError{Kind: KindBadRequest}).UserMessage())
	require.Equal(t, "Bad date", (&APIError{Kind: KindBadRequest, Message: "Bad date"}).UserMessage())
	require.Equal(t, "A record with these details already exists.", (&APIError{Kind: KindConflict}).UserMessage())
	require.Equal(t, "Please correct the highlighted fields.", (&APIError{Kind: KindValidationFailed}).UserMessage())
	require.Equal(t, "Access denied.", (&APIError{Kind: KindForbidden, Message: "ignored"}).UserMessage())
}

func TestOnUnauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(t, w, http.StatusUnauthorized, map[string]any{"success": false, "message": "Invalid token"})
	}))
	defer srv.Close()

	var calls atomic.Int32
	client := NewSDKClient(srv.URL)
	client.Tokens = func() string { return "tok" }
	client.OnUnauthorized = func(*APIError) { calls.Add(1) }

	_, err := client.Doctor().Dashboard(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.EqualValues(t, 1, calls.Load())

	// A failed login is a 401 too but must not end a session.
	_, err = client.Login(context.Background(), LoginRequest{Email: "a@b.com", Password: "x", UserType: RoleDoctor})
	require.ErrorIs(t, err, ErrUnauthorized)
	require.EqualValues(t, 1, calls.Load())

	require.ErrorIs(t, client.Logout(context.Background(), "tok"), ErrUnauthorized)
	require.EqualValues(t, 1, calls.Load())
}

func TestPagination(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/admin/patients", r.URL.Path)
		require.Equal(t, "2", r.URL.Query().Get("page"))
		require.Equal(t, "smith", r.URL.Query().Get("search"))
		require.False(t, r.URL.Query().Has("status"))
		writeEnvelope(t, w, http.StatusOK, map[string]any{
			"success":    true,
			"data":       []map[string]any{{"id": "p1", "firstName": "Ann", "lastName": "Smith", "email": "ann@example.com"}},
			"pagination": map[string]int{"page": 2, "limit": 1, "total": 3, "pages": 3},
		})
	}))
	defer srv.Close()

	page, err := NewSDKClient(srv.URL).Admin().ListPatients(context.Background(), ListQuery{Page: 2, Search: "smith"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "p1", page.Items[0].ID)
	require.Equal(t, 3, page.Pagination.Total)
	require.True(t, page.HasNext())
}

func TestAPIErrorIs(t *testing.T) {
	t.Parallel()

	err := error(&APIError{StatusCode: 404, Kind: KindNotFound})
	require.True(t, errors.Is(err, ErrNotFound))
	require.False(t, errors.Is(err, ErrConflict))
}
