package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDashboardPath(t *testing.T) {
	t.Parallel()

	seen := map[string]Role{}
	for _, r := range []Role{RolePatient, RoleDoctor, RoleAdmin} {
		p := DashboardPath(r)
		require.NotEqual(t, NotFoundPath, p)
		require.Equal(t, p, DashboardPath(r))
		_, dup := seen[p]
		require.False(t, dup, "dashboard %s shared", p)
		seen[p] = r
	}

	for _, r := range []Role{"", "Doctor", "nurse", "admin "} {
		require.Equal(t, NotFoundPath, DashboardPath(r))
	}
}

func TestParsePermissions(t *testing.T) {
	t.Parallel()

	got := ParsePermissions([]string{"patients.view", "bogus.thing", "patients.view", " billing.edit "})
	require.Equal(t, []Permission{PermPatientsView, PermBillingEdit}, got)
	require.Nil(t, ParsePermissions(nil))
	require.Equal(t, "billing", PermBillingEdit.Category())
}

func TestUserCan(t *testing.T) {
	t.Parallel()

	admin := &UserIdentity{Role: RoleAdmin, Permissions: []Permission{PermReportsView}}
	require.True(t, admin.Can(PermReportsView))
	require.False(t, admin.Can(PermUsersManage))

	doctor := &UserIdentity{Role: RoleDoctor, Permissions: []Permission{PermReportsView}}
	require.False(t, doctor.Can(PermReportsView))

	var nobody *UserIdentity
	require.False(t, nobody.Can(PermReportsView))
}

func TestSessionSnapshot(t *testing.T) {
	t.Parallel()

	require.True(t, Session{}.IsLoading())
	require.False(t, Session{State: Authenticated}.IsAuthenticated())
	s := Session{State: Authenticated, User: &UserIdentity{Role: RoleDoctor}}
	require.True(t, s.IsAuthenticated())
	require.Equal(t, RoleDoctor, s.Role())
	require.Equal(t, Role(""), Session{State: PasswordChangeRequired, PendingRole: RoleAdmin}.Role())
}
