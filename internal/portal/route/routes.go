package route

import "github.com/aussiebroadwan/dentaldesk/internal/portal/domain"

func patientOnly() Requirement { return Requirement{Roles: []domain.Role{domain.RolePatient}} }
func doctorOnly() Requirement  { return Requirement{Roles: []domain.Role{domain.RoleDoctor}} }

func adminWith(p domain.Permission) Requirement {
	return Requirement{Roles: []domain.Role{domain.RoleAdmin}, Permission: p}
}

// Default is the portal's route surface.
func Default() *Tree {
	return NewTree(
		// Public
		Route{Name: "auth.login", Pattern: domain.LoginPath, Requirement: Requirement{PublicOnly: true}},
		Route{Name: "auth.register", Pattern: "/auth/register", Requirement: Requirement{PublicOnly: true}},
		Route{Name: "auth.forgot-password", Pattern: "/auth/forgot-password", Requirement: Requirement{PublicOnly: true}},
		Route{Name: "auth.reset-password", Pattern: "/auth/reset-password/:token", Requirement: Requirement{PublicOnly: true}},
		Route{Name: "auth.verify-email", Pattern: "/auth/verify-email/:token"},
		Route{Name: "auth.resend-verification", Pattern: "/auth/resend-verification", Requirement: Requirement{PublicOnly: true}},
		Route{Name: "auth.change-password", Pattern: domain.ChangePasswordPath, Requirement: Requirement{PasswordChange: true}},

		// Patient
		Route{Name: "patient.dashboard", Pattern: "/patient/dashboard", Requirement: patientOnly()},
		Route{Name: "patient.profile", Pattern: "/patient/profile", Requirement: patientOnly()},
		Route{Name: "patient.appointments", Pattern: "/patient/appointments", Requirement: patientOnly()},
		Route{Name: "patient.appointments.book", Pattern: "/patient/appointments/book", Requirement: patientOnly()},
		Route{Name: "patient.appointment", Pattern: "/patient/appointments/:id", Requirement: patientOnly()},
		Route{Name: "patient.doctors", Pattern: "/patient/doctors", Requirement: patientOnly()},
		Route{Name: "patient.invoices", Pattern: "/patient/invoices", Requirement: patientOnly()},

		// Doctor
		Route{Name: "doctor.dashboard", Pattern: "/doctor/dashboard", Requirement: doctorOnly()},
		Route{Name: "doctor.profile", Pattern: "/doctor/profile", Requirement: doctorOnly()},
		Route{Name: "doctor.appointments", Pattern: "/doctor/appointments", Requirement: doctorOnly()},
		Route{Name: "doctor.appointment", Pattern: "/doctor/appointments/:id", Requirement: doctorOnly()},
		Route{Name: "doctor.patients", Pattern: "/doctor/patients", Requirement: doctorOnly()},
		Route{Name: "doctor.patient", Pattern: "/doctor/patients/:id", Requirement: doctorOnly()},
		Route{Name: "doctor.schedule", Pattern: "/doctor/schedule", Requirement: doctorOnly()},

		// Admin
		Route{Name: "admin.dashboard", Pattern: "/admin/dashboard", Requirement: adminWith("")},
		Route{Name: "admin.patients", Pattern: "/admin/patients", Requirement: adminWith(domain.PermPatientsView)},
		Route{Name: "admin.patient", Pattern: "/admin/patients/:id", Requirement: adminWith(domain.PermPatientsView)},
		Route{Name: "admin.doctors", Pattern: "/admin/doctors", Requirement: adminWith(domain.PermDoctorsView)},
		Route{Name: "admin.doctor", Pattern: "/admin/doctors/:id", Requirement: adminWith(domain.PermDoctorsView)},
		Route{Name: "admin.appointments", Pattern: "/admin/appointments", Requirement: adminWith(domain.PermAppointmentsView)},
		Route{Name: "admin.fees", Pattern: "/admin/fees", Requirement: adminWith(domain.PermBillingView)},
		Route{Name: "admin.invoices", Pattern: "/admin/invoices", Requirement: adminWith(domain.PermBillingView)},
		Route{Name: "admin.analytics", Pattern: "/admin/analytics", Requirement: adminWith(domain.PermReportsView)},
		Route{Name: "admin.users", Pattern: "/admin/users", Requirement: adminWith(domain.PermUsersManage)},
	)
}
