package dentalsdk

import (
	"context"
	"net/http"
	"net/url"
)

// DoctorClient calls the /api/doctor endpoints for the signed-in doctor.
type DoctorClient struct {
	c *SDKClient
}

func (d *DoctorClient) Profile(ctx context.Context) (*Doctor, error) {
	p, err := get[Doctor](ctx, d.c, request{method: http.MethodGet, path: "/api/doctor/profile"})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DoctorClient) Dashboard(ctx context.Context) (*DashboardStats, error) {
	s, err := get[DashboardStats](ctx, d.c, request{method: http.MethodGet, path: "/api/doctor/dashboard"})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DoctorClient) ListAppointments(ctx context.Context, q ListQuery) (*Page[Appointment], error) {
	return list[Appointment](ctx, d.c, request{method: http.MethodGet, path: "/api/doctor/appointments", query: q.values()})
}

func (d *DoctorClient) GetAppointment(ctx context.Context, id string) (*Appointment, error) {
	a, err := get[Appointment](ctx, d.c, request{method: http.MethodGet, path: "/api/doctor/appointments/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAppointment changes status and/or notes.
func (d *DoctorClient) UpdateAppointment(ctx context.Context, id string, upd AppointmentUpdate) (*Appointment, error) {
	a, err := get[Appointment](ctx, d.c, request{method: http.MethodPatch, path: "/api/doctor/appointments/" + url.PathEscape(id), body: upd})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (d *DoctorClient) ListPatients(ctx context.Context, q ListQuery) (*Page[Patient], error) {
	return list[Patient](ctx, d.c, request{method: http.MethodGet, path: "/api/doctor/patients", query: q.values()})
}

func (d *DoctorClient) GetPatient(ctx context.Context, id string) (*Patient, error) {
	p, err := get[Patient](ctx, d.c, request{method: http.MethodGet, path: "/api/doctor/patients/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (d *DoctorClient) Schedule(ctx context.Context) (*Schedule, error) {
	s, err := get[Schedule](ctx, d.c, request{method: http.MethodGet, path: "/api/doctor/schedule"})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (d *DoctorClient) UpdateSchedule(ctx context.Context, s Schedule) (*Schedule, error) {
	out, err := get[Schedule](ctx, d.c, request{method: http.MethodPatch, path: "/api/doctor/schedule", body: s})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
