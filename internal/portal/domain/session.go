package domain

// SessionState is where the session is in its lifecycle.
type SessionState int

const (
	// Initializing is the state before the stored token has been checked.
	Initializing SessionState = iota
	Anonymous
	Authenticated
	// PasswordChangeRequired holds only a temp token, never a bearer token.
	PasswordChangeRequired
)

func (s SessionState) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Anonymous:
		return "anonymous"
	case Authenticated:
		return "authenticated"
	case PasswordChangeRequired:
		return "password_change_required"
	default:
		return "unknown"
	}
}

// Session is a point-in-time snapshot of the session store.
type Session struct {
	State SessionState
	User  *UserIdentity

	// PendingRole is the role captured at login while a forced password change
	// is outstanding.
	PendingRole Role

	// LastLoginError is the human-readable reason the last login failed.
	LastLoginError string
}

func (s Session) IsLoading() bool       { return s.State == Initializing }
func (s Session) IsAuthenticated() bool { return s.State == Authenticated && s.User != nil }

// Role returns the authenticated user's role, or "" when there is none.
func (s Session) Role() Role {
	if !s.IsAuthenticated() {
		return ""
	}
	return s.User.Role
}
