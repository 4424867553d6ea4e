package http

import (
	"net/http"
	"strconv"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
)

// listQuery reads the paging and filter parameters shared by list views.
func listQuery(r *http.Request) dentalsdk.ListQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return dentalsdk.ListQuery{
		Page:     page,
		Limit:    limit,
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		DoctorID: q.Get("doctorId"),
		Date:     q.Get("date"),
		From:     q.Get("from"),
		To:       q.Get("to"),
	}
}

// ============================================================================
// Patient
// ============================================================================

type PatientViews struct {
	API            *dentalsdk.PatientClient
	AppointmentAPI *dentalsdk.AppointmentClient
}

type PatientDashboard struct {
	Stats    *dentalsdk.DashboardStats              `json:"stats"`
	Upcoming *dentalsdk.Page[dentalsdk.Appointment] `json:"upcoming"`
}

func (v *PatientViews) Dashboard(r *http.Request) (any, error) {
	stats, err := v.API.Dashboard(r.Context())
	if err != nil {
		return nil, err
	}
	upcoming, err := v.API.ListAppointments(r.Context(), dentalsdk.ListQuery{
		Status: string(dentalsdk.AppointmentScheduled),
		Limit:  5,
	})
	if err != nil {
		return nil, err
	}
	return PatientDashboard{Stats: stats, Upcoming: upcoming}, nil
}

func (v *PatientViews) Profile(r *http.Request) (any, error) {
	return v.API.Profile(r.Context())
}

func (v *PatientViews) UpdateProfile(r *http.Request) (any, error) {
	var in dentalsdk.PatientInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	return v.API.UpdateProfile(r.Context(), in)
}

func (v *PatientViews) Appointments(r *http.Request) (any, error) {
	return v.API.ListAppointments(r.Context(), listQuery(r))
}

func (v *PatientViews) Appointment(r *http.Request) (any, error) {
	return v.AppointmentAPI.Get(r.Context(), r.PathValue("id"))
}

type BookingForm struct {
	Doctors *dentalsdk.Page[dentalsdk.Doctor] `json:"doctors"`
	Slots   []dentalsdk.TimeSlot              `json:"slots,omitempty"`
}

// BookForm lists doctors, and the free slots once a doctor and date are
// picked.
func (v *PatientViews) BookForm(r *http.Request) (any, error) {
	doctors, err := v.API.ListDoctors(r.Context(), dentalsdk.ListQuery{})
	if err != nil {
		return nil, err
	}
	form := BookingForm{Doctors: doctors}

	q := r.URL.Query()
	if doctorID, date := q.Get("doctorId"), q.Get("date"); doctorID != "" && date != "" {
		form.Slots, err = v.AppointmentAPI.AvailableSlots(r.Context(), doctorID, date)
		if err != nil {
			return nil, err
		}
	}
	return form, nil
}

func (v *PatientViews) Book(r *http.Request) (any, error) {
	var req dentalsdk.BookAppointmentRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, err
	}
	if fields := req.Validate(); fields != nil {
		return nil, &dentalsdk.APIError{
			StatusCode:  http.StatusUnprocessableEntity,
			Kind:        dentalsdk.KindValidationFailed,
			FieldErrors: fields,
		}
	}
	return v.API.BookAppointment(r.Context(), req)
}

func (v *PatientViews) Cancel(r *http.Request) (any, error) {
	if err := v.API.CancelAppointment(r.Context(), r.PathValue("id")); err != nil {
		return nil, err
	}
	return MessageResponse{Message: "Appointment cancelled.", Redirect: "/patient/appointments"}, nil
}

func (v *PatientViews) Doctors(r *http.Request) (any, error) {
	return v.API.ListDoctors(r.Context(), listQuery(r))
}

func (v *PatientViews) Invoices(r *http.Request) (any, error) {
	return v.API.ListInvoices(r.Context(), listQuery(r))
}

// ============================================================================
// Doctor
// ============================================================================

type DoctorViews struct {
	API *dentalsdk.DoctorClient
}

func (v *DoctorViews) Dashboard(r *http.Request) (any, error) {
	return v.API.Dashboard(r.Context())
}

func (v *DoctorViews) Profile(r *http.Request) (any, error) {
	return v.API.Profile(r.Context())
}

func (v *DoctorViews) Appointments(r *http.Request) (any, error) {
	return v.API.ListAppointments(r.Context(), listQuery(r))
}

func (v *DoctorViews) Appointment(r *http.Request) (any, error) {
	return v.API.GetAppointment(r.Context(), r.PathValue("id"))
}

func (v *DoctorViews) UpdateAppointment(r *http.Request) (any, error) {
	var upd dentalsdk.AppointmentUpdate
	if err := decodeBody(r, &upd); err != nil {
		return nil, err
	}
	return v.API.UpdateAppointment(r.Context(), r.PathValue("id"), upd)
}

func (v *DoctorViews) Patients(r *http.Request) (any, error) {
	return v.API.ListPatients(r.Context(), listQuery(r))
}

func (v *DoctorViews) Patient(r *http.Request) (any, error) {
	return v.API.GetPatient(r.Context(), r.PathValue("id"))
}

func (v *DoctorViews) Schedule(r *http.Request) (any, error) {
	return v.API.Schedule(r.Context())
}

func (v *DoctorViews) UpdateSchedule(r *http.Request) (any, error) {
	var s dentalsdk.Schedule
	if err := decodeBody(r, &s); err != nil {
		return nil, err
	}
	return v.API.UpdateSchedule(r.Context(), s)
}

// ============================================================================
// Admin
// ============================================================================

type AdminViews struct {
	API *dentalsdk.AdminClient
}

func (v *AdminViews) Dashboard(r *http.Request) (any, error) {
	return v.API.Dashboard(r.Context())
}

func (v *AdminViews) Patients(r *http.Request) (any, error) {
	return v.API.ListPatients(r.Context(), listQuery(r))
}

func (v *AdminViews) Patient(r *http.Request) (any, error) {
	return v.API.GetPatient(r.Context(), r.PathValue("id"))
}

func (v *AdminViews) CreatePatient(r *http.Request) (any, error) {
	var in dentalsdk.PatientInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	return v.API.CreatePatient(r.Context(), in)
}

func (v *AdminViews) UpdatePatient(r *http.Request) (any, error) {
	var in dentalsdk.PatientInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	return v.API.UpdatePatient(r.Context(), r.PathValue("id"), in)
}

func (v *AdminViews) DeletePatient(r *http.Request) (any, error) {
	if err := v.API.DeletePatient(r.Context(), r.PathValue("id")); err != nil {
		return nil, err
	}
	return MessageResponse{Message: "Patient deleted.", Redirect: "/admin/patients"}, nil
}

func (v *AdminViews) Doctors(r *http.Request) (any, error) {
	return v.API.ListDoctors(r.Context(), listQuery(r))
}

func (v *AdminViews) Doctor(r *http.Request) (any, error) {
	return v.API.GetDoctor(r.Context(), r.PathValue("id"))
}

func (v *AdminViews) CreateDoctor(r *http.Request) (any, error) {
	var in dentalsdk.DoctorInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	return v.API.CreateDoctor(r.Context(), in)
}

func (v *AdminViews) UpdateDoctor(r *http.Request) (any, error) {
	var in dentalsdk.DoctorInput
	if err := decodeBody(r, &in); err != nil {
		return nil, err
	}
	return v.API.UpdateDoctor(r.Context(), r.PathValue("id"), in)
}

func (v *AdminViews) DeleteDoctor(r *http.Request) (any, error) {
	if err := v.API.DeleteDoctor(r.Context(), r.PathValue("id")); err != nil {
		return nil, err
	}
	return MessageResponse{Message: "Doctor deleted.", Redirect: "/admin/doctors"}, nil
}

func (v *AdminViews) Appointments(r *http.Request) (any, error) {
	return v.API.ListAppointments(r.Context(), listQuery(r))
}

func (v *AdminViews) Fees(r *http.Request) (any, error) {
	return v.API.ListFees(r.Context())
}

func (v *AdminViews) UpdateFee(r *http.Request) (any, error) {
	var fee dentalsdk.TreatmentFee
	if err := decodeBody(r, &fee); err != nil {
		return nil, err
	}
	fee.ID = r.PathValue("id")
	return v.API.UpdateFee(r.Context(), fee)
}

func (v *AdminViews) Invoices(r *http.Request) (any, error) {
	return v.API.ListInvoices(r.Context(), listQuery(r))
}

func (v *AdminViews) Analytics(r *http.Request) (any, error) {
	return v.API.Analytics(r.Context(), r.URL.Query().Get("period"))
}

func (v *AdminViews) Users(r *http.Request) (any, error) {
	return v.API.ListUsers(r.Context())
}

type PermissionsForm struct {
	Permissions []string `json:"permissions"`
}

// SetPermissions drops capability strings the portal does not know.
func (v *AdminViews) SetPermissions(r *http.Request) (any, error) {
	var form PermissionsForm
	if err := decodeBody(r, &form); err != nil {
		return nil, err
	}
	known := domain.ParsePermissions(form.Permissions)
	perms := make([]string, len(known))
	for i, p := range known {
		perms[i] = string(p)
	}
	return v.API.SetPermissions(r.Context(), r.PathValue("id"), perms)
}
