package dentalsdk

import (
	"context"
	"net/http"
	"net/url"
)

// AppointmentClient calls the /api/appointment endpoints shared by all roles.
type AppointmentClient struct {
	c *SDKClient
}

func (a *AppointmentClient) Get(ctx context.Context, id string) (*Appointment, error) {
	out, err := get[Appointment](ctx, a.c, request{method: http.MethodGet, path: "/api/appointment/" + url.PathEscape(id)})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AppointmentClient) Reschedule(ctx context.Context, id string, req RescheduleRequest) (*Appointment, error) {
	out, err := get[Appointment](ctx, a.c, request{method: http.MethodPatch, path: "/api/appointment/" + url.PathEscape(id) + "/reschedule", body: req})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AppointmentClient) Cancel(ctx context.Context, id, reason string) (*Appointment, error) {
	out, err := get[Appointment](ctx, a.c, request{
		method: http.MethodPatch,
		path:   "/api/appointment/" + url.PathEscape(id) + "/cancel",
		body:   map[string]string{"reason": reason},
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AvailableSlots lists a doctor's slots on date (YYYY-MM-DD).
func (a *AppointmentClient) AvailableSlots(ctx context.Context, doctorID, date string) ([]TimeSlot, error) {
	return get[[]TimeSlot](ctx, a.c, request{
		method: http.MethodGet,
		path:   "/api/appointment/slots",
		query:  url.Values{"doctorId": {doctorID}, "date": {date}},
	})
}
