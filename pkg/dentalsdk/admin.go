package dentalsdk

import (
	"context"
	"net/http"
	"net/url"
)

// AdminClient calls the /api/admin endpoints.
type AdminClient struct {
	c *SDKClient
}

// Dashboard returns the practice-wide headline numbers.
func (a *AdminClient) Dashboard(ctx context.Context) (*DashboardStats, error) {
	s, err := get[DashboardStats](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/dashboard"})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ============================================================================
// Patients
// ============================================================================

func (a *AdminClient) ListPatients(ctx context.Context, q ListQuery) (*Page[Patient], error) {
	return list[Patient](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/patients", query: q.values()})
}

func (a *AdminClient) GetPatient(ctx context.Context, id string) (*Patient, error) {
	p, err := get[Patient](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/patients/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *AdminClient) CreatePatient(ctx context.Context, in PatientInput) (*Patient, error) {
	p, err := get[Patient](ctx, a.c, request{method: http.MethodPost, path: "/api/admin/patients", body: in})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *AdminClient) UpdatePatient(ctx context.Context, id string, in PatientInput) (*Patient, error) {
	p, err := get[Patient](ctx, a.c, request{method: http.MethodPatch, path: "/api/admin/patients/" + url.PathEscape(id), body: in})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (a *AdminClient) DeletePatient(ctx context.Context, id string) error {
	_, err := ack(ctx, a.c, request{method: http.MethodDelete, path: "/api/admin/patients/" + url.PathEscape(id)})
	return err
}

// ============================================================================
// Doctors
// ============================================================================

func (a *AdminClient) ListDoctors(ctx context.Context, q ListQuery) (*Page[Doctor], error) {
	return list[Doctor](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/doctors", query: q.values()})
}

func (a *AdminClient) GetDoctor(ctx context.Context, id string) (*Doctor, error) {
	d, err := get[Doctor](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/doctors/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// CreateDoctor adds a doctor. The server e-mails a temporary password and
// the doctor goes through the forced password change on first login.
func (a *AdminClient) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	d, err := get[Doctor](ctx, a.c, request{method: http.MethodPost, path: "/api/admin/doctors", body: in})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *AdminClient) UpdateDoctor(ctx context.Context, id string, in DoctorInput) (*Doctor, error) {
	d, err := get[Doctor](ctx, a.c, request{method: http.MethodPatch, path: "/api/admin/doctors/" + url.PathEscape(id), body: in})
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (a *AdminClient) DeleteDoctor(ctx context.Context, id string) error {
	_, err := ack(ctx, a.c, request{method: http.MethodDelete, path: "/api/admin/doctors/" + url.PathEscape(id)})
	return err
}

// ============================================================================
// Appointments, billing and reports
// ============================================================================

func (a *AdminClient) ListAppointments(ctx context.Context, q ListQuery) (*Page[Appointment], error) {
	return list[Appointment](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/appointments", query: q.values()})
}

func (a *AdminClient) ListFees(ctx context.Context) ([]TreatmentFee, error) {
	return get[[]TreatmentFee](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/fees"})
}

func (a *AdminClient) UpdateFee(ctx context.Context, fee TreatmentFee) (*TreatmentFee, error) {
	f, err := get[TreatmentFee](ctx, a.c, request{method: http.MethodPatch, path: "/api/admin/fees/" + url.PathEscape(fee.ID), body: fee})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (a *AdminClient) ListInvoices(ctx context.Context, q ListQuery) (*Page[Invoice], error) {
	return list[Invoice](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/invoices", query: q.values()})
}

// Analytics returns reporting figures for period ("week", "month", "year").
func (a *AdminClient) Analytics(ctx context.Context, period string) (*AnalyticsStats, error) {
	q := url.Values{}
	if period != "" {
		q.Set("period", period)
	}
	s, err := get[AnalyticsStats](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/analytics", query: q})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ============================================================================
// Admin users
// ============================================================================

func (a *AdminClient) ListUsers(ctx context.Context) ([]AdminUser, error) {
	return get[[]AdminUser](ctx, a.c, request{method: http.MethodGet, path: "/api/admin/users"})
}

func (a *AdminClient) CreateUser(ctx context.Context, in AdminUserInput) (*AdminUser, error) {
	u, err := get[AdminUser](ctx, a.c, request{method: http.MethodPost, path: "/api/admin/users", body: in})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// SetPermissions replaces an admin user's permission set.
func (a *AdminClient) SetPermissions(ctx context.Context, id string, permissions []string) (*AdminUser, error) {
	u, err := get[AdminUser](ctx, a.c, request{
		method: http.MethodPatch,
		path:   "/api/admin/users/" + url.PathEscape(id) + "/permissions",
		body:   map[string][]string{"permissions": permissions},
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (a *AdminClient) DeleteUser(ctx context.Context, id string) error {
	_, err := ack(ctx, a.c, request{method: http.MethodDelete, path: "/api/admin/users/" + url.PathEscape(id)})
	return err
}
