package domain

const (
	LoginPath          = "/auth/login"
	ChangePasswordPath = "/auth/change-password"
	NotFoundPath       = "/404"
)

var dashboards = map[Role]string{
	RolePatient: "/patient/dashboard",
	RoleDoctor:  "/doctor/dashboard",
	RoleAdmin:   "/admin/dashboard",
}

// DashboardPath returns the dashboard root for role. Unknown roles get
// NotFoundPath.
func DashboardPath(role Role) string {
	if p, ok := dashboards[role]; ok {
		return p
	}
	return NotFoundPath
}
