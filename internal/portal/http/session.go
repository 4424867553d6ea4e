package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
)

type SessionUser struct {
	ID          string              `json:"id"`
	Email       string              `json:"email,omitempty"`
	Role        domain.Role         `json:"role"`
	Permissions []domain.Permission `json:"permissions,omitempty"`
	ExpiresAt   time.Time           `json:"expiresAt"`
}

// SessionResponse is the session snapshot as the portal exposes it.
type SessionResponse struct {
	State           string       `json:"state"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	IsLoading       bool         `json:"isLoading"`
	User            *SessionUser `json:"user,omitempty"`
	PendingRole     domain.Role  `json:"pendingRole,omitempty"`
	LastLoginError  string       `json:"lastLoginError,omitempty"`
	RedirectPath    string       `json:"redirectPath"`
}

func NewSessionResponse(s domain.Session) SessionResponse {
	resp := SessionResponse{
		State:           s.State.String(),
		IsAuthenticated: s.IsAuthenticated(),
		IsLoading:       s.IsLoading(),
		PendingRole:     s.PendingRole,
		LastLoginError:  s.LastLoginError,
		RedirectPath:    domain.DashboardPath(s.Role()),
	}
	if s.IsAuthenticated() {
		resp.User = &SessionUser{
			ID:          s.User.ID,
			Email:       s.User.Email,
			Role:        s.User.Role,
			Permissions: s.User.Permissions,
			ExpiresAt:   s.User.ExpiresAt.UTC(),
		}
	}
	return resp
}

// SessionHandler returns the current session snapshot. It is never guarded.
func SessionHandler(session *service.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, NewSessionResponse(session.Snapshot()))
	}
}
