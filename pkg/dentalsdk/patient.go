package dentalsdk

import (
	"context"
	"net/http"
	"net/url"
)

// PatientClient calls the /api/patient endpoints for the signed-in patient.
type PatientClient struct {
	c *SDKClient
}

func (p *PatientClient) Profile(ctx context.Context) (*Patient, error) {
	out, err := get[Patient](ctx, p.c, request{method: http.MethodGet, path: "/api/patient/profile"})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PatientClient) UpdateProfile(ctx context.Context, in PatientInput) (*Patient, error) {
	out, err := get[Patient](ctx, p.c, request{method: http.MethodPatch, path: "/api/patient/profile", body: in})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PatientClient) Dashboard(ctx context.Context) (*DashboardStats, error) {
	out, err := get[DashboardStats](ctx, p.c, request{method: http.MethodGet, path: "/api/patient/dashboard"})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PatientClient) ListAppointments(ctx context.Context, q ListQuery) (*Page[Appointment], error) {
	return list[Appointment](ctx, p.c, request{method: http.MethodGet, path: "/api/patient/appointments", query: q.values()})
}

// BookAppointment books a slot. Calls are not de-duplicated; a repeated
// submit books twice unless the server rejects it.
func (p *PatientClient) BookAppointment(ctx context.Context, req BookAppointmentRequest) (*Appointment, error) {
	out, err := get[Appointment](ctx, p.c, request{method: http.MethodPost, path: "/api/patient/appointments", body: req})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *PatientClient) CancelAppointment(ctx context.Context, id string) error {
	_, err := ack(ctx, p.c, request{method: http.MethodDelete, path: "/api/patient/appointments/" + url.PathEscape(id)})
	return err
}

// ListDoctors returns the doctor directory.
func (p *PatientClient) ListDoctors(ctx context.Context, q ListQuery) (*Page[Doctor], error) {
	return list[Doctor](ctx, p.c, request{method: http.MethodGet, path: "/api/patient/doctors", query: q.values()})
}

func (p *PatientClient) ListInvoices(ctx context.Context, q ListQuery) (*Page[Invoice], error) {
	return list[Invoice](ctx, p.c, request{method: http.MethodGet, path: "/api/patient/invoices", query: q.values()})
}
