package domain

import "strings"

// Permission is an admin capability in "<category>.<action>" form.
type Permission string

const (
	PermPatientsView   Permission = "patients.view"
	PermPatientsCreate Permission = "patients.create"
	PermPatientsEdit   Permission = "patients.edit"
	PermPatientsDelete Permission = "patients.delete"

	PermDoctorsView   Permission = "doctors.view"
	PermDoctorsCreate Permission = "doctors.create"
	PermDoctorsEdit   Permission = "doctors.edit"
	PermDoctorsDelete Permission = "doctors.delete"

	PermAppointmentsView   Permission = "appointments.view"
	PermAppointmentsCreate Permission = "appointments.create"
	PermAppointmentsEdit   Permission = "appointments.edit"
	PermAppointmentsCancel Permission = "appointments.cancel"

	PermBillingView Permission = "billing.view"
	PermBillingEdit Permission = "billing.edit"

	PermReportsView    Permission = "reports.view"
	PermSettingsManage Permission = "settings.manage"
	PermUsersManage    Permission = "users.manage"
)

// AllPermissions is the closed set of admin permissions.
var AllPermissions = []Permission{
	PermPatientsView, PermPatientsCreate, PermPatientsEdit, PermPatientsDelete,
	PermDoctorsView, PermDoctorsCreate, PermDoctorsEdit, PermDoctorsDelete,
	PermAppointmentsView, PermAppointmentsCreate, PermAppointmentsEdit, PermAppointmentsCancel,
	PermBillingView, PermBillingEdit,
	PermReportsView, PermSettingsManage, PermUsersManage,
}

var knownPermissions = func() map[Permission]struct{} {
	m := make(map[Permission]struct{}, len(AllPermissions))
	for _, p := range AllPermissions {
		m[p] = struct{}{}
	}
	return m
}()

// Category returns the part before the dot, e.g. "patients".
func (p Permission) Category() string {
	cat, _, _ := strings.Cut(string(p), ".")
	return cat
}

// Known reports whether p is in AllPermissions.
func (p Permission) Known() bool {
	_, ok := knownPermissions[p]
	return ok
}

// ParsePermissions keeps the known permissions from raw, dropping unknown and
// duplicate entries.
func ParsePermissions(raw []string) []Permission {
	if len(raw) == 0 {
		return nil
	}
	out := make([]Permission, 0, len(raw))
	seen := make(map[Permission]struct{}, len(raw))
	for _, s := range raw {
		p := Permission(strings.TrimSpace(s))
		if !p.Known() {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
