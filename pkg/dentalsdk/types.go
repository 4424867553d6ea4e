package dentalsdk

import (
	"net/url"
	"strconv"
	"time"
)

// ============================================================================
// Envelope
// ============================================================================

// Envelope is the wrapper around every API payload.
type Envelope[T any] struct {
	Success    bool        `json:"success"`
	Data       T           `json:"data"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page is a list result with its pagination.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// HasNext reports whether there is a page after this one.
func (p *Page[T]) HasNext() bool {
	return p.Pagination.Page < p.Pagination.Pages
}

// ListQuery holds the common list filters. Zero fields are not sent.
type ListQuery struct {
	Page     int
	Limit    int
	Search   string
	Status   string
	DoctorID string
	// Date filters by day, formatted YYYY-MM-DD.
	Date string
	From string
	To   string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	set := func(k, s string) {
		if s != "" {
			v.Set(k, s)
		}
	}
	set("search", q.Search)
	set("status", q.Status)
	set("doctorId", q.DoctorID)
	set("date", q.Date)
	set("from", q.From)
	set("to", q.To)
	return v
}

// Ack is the response of endpoints that only return a message.
type Ack struct {
	Message string `json:"message,omitempty"`
}

// ============================================================================
// Roles
// ============================================================================

// Role selects the route subtree and API surface a user may access.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

// Roles lists every valid role.
var Roles = []Role{RolePatient, RoleDoctor, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// ParseRole converts s to a Role, failing with ErrUnknownRole.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrUnknownRole
	}
	return r, nil
}

// ============================================================================
// Auth Types
// ============================================================================

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	UserType Role   `json:"userType"`

	// TwoFactorCode is the 6-digit TOTP code, only sent when challenged.
	TwoFactorCode string `json:"twoFactorCode,omitempty"`
}

// LoginResponse is the data of a successful login.
type LoginResponse struct {
	Token string `json:"token,omitempty"`

	// RequiresPasswordChange is set for accounts created with a temporary
	// password; TempToken is then the only token issued.
	RequiresPasswordChange bool   `json:"requiresPasswordChange,omitempty"`
	TempToken              string `json:"tempToken,omitempty"`

	RequiresTwoFactor bool `json:"requiresTwoFactor,omitempty"`

	UserType Role         `json:"userType,omitempty"`
	User     *UserProfile `json:"user,omitempty"`
}

// UserProfile is the identity returned alongside a login.
type UserProfile struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Role        Role     `json:"role,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}

// FullName joins first and last name.
func (u *UserProfile) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// RegisterRequest is the body of POST /api/auth/register. Only patients
// self-register.
type RegisterRequest struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phone,omitempty"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Address     string `json:"address,omitempty"`
}

// ResetPasswordRequest is the body of POST /api/auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// ChangePasswordRequest is the body of the role-specific forced password
// change endpoints.
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword"`
}

// ============================================================================
// Domain Types
// ============================================================================

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentConfirmed AppointmentStatus = "confirmed"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
	AppointmentNoShow    AppointmentStatus = "no-show"
)

// Appointment is a booked visit.
type Appointment struct {
	ID        string            `json:"id"`
	PatientID string            `json:"patientId"`
	DoctorID  string            `json:"doctorId"`
	Patient   *PersonSummary    `json:"patient,omitempty"`
	Doctor    *PersonSummary    `json:"doctor,omitempty"`
	Date      string            `json:"date"`
	StartTime string            `json:"startTime"`
	EndTime   string            `json:"endTime,omitempty"`
	Type      string            `json:"type,omitempty"`
	Status    AppointmentStatus `json:"status"`
	Reason    string            `json:"reason,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"createdAt,omitzero"`
}

// PersonSummary is the embedded patient or doctor on an appointment.
type PersonSummary struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email,omitempty"`
}

// BookAppointmentRequest is the body of POST /api/patient/appointments.
type BookAppointmentRequest struct {
	DoctorID  string `json:"doctorId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	Type      string `json:"type,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// RescheduleRequest moves an appointment.
type RescheduleRequest struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
}

// AppointmentUpdate changes an appointment's status or notes.
type AppointmentUpdate struct {
	Status *AppointmentStatus `json:"status,omitempty"`
	Notes  *string            `json:"notes,omitempty"`
}

// TimeSlot is a bookable slot.
type TimeSlot struct {
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Available bool   `json:"available"`
}

// Patient is a patient record.
type Patient struct {
	ID               string    `json:"id"`
	FirstName        string    `json:"firstName"`
	LastName         string    `json:"lastName"`
	Email            string    `json:"email"`
	Phone            string    `json:"phone,omitempty"`
	DateOfBirth      string    `json:"dateOfBirth,omitempty"`
	Gender           string    `json:"gender,omitempty"`
	Address          string    `json:"address,omitempty"`
	MedicalHistory   string    `json:"medicalHistory,omitempty"`
	Allergies        []string  `json:"allergies,omitempty"`
	EmergencyContact string    `json:"emergencyContact,omitempty"`
	IsActive         bool      `json:"isActive"`
	CreatedAt        time.Time `json:"createdAt,omitzero"`
}

// PatientInput is the body for creating or updating a patient.
type PatientInput struct {
	FirstName        string   `json:"firstName,omitempty"`
	LastName         string   `json:"lastName,omitempty"`
	Email            string   `json:"email,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	DateOfBirth      string   `json:"dateOfBirth,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	Address          string   `json:"address,omitempty"`
	MedicalHistory   string   `json:"medicalHistory,omitempty"`
	Allergies        []string `json:"allergies,omitempty"`
	EmergencyContact string   `json:"emergencyContact,omitempty"`
}

// Doctor is a practitioner record.
type Doctor struct {
	ID             string         `json:"id"`
	FirstName      string         `json:"firstName"`
	LastName       string         `json:"lastName"`
	Email          string         `json:"email"`
	Phone          string         `json:"phone,omitempty"`
	Specialization string         `json:"specialization,omitempty"`
	LicenseNumber  string         `json:"licenseNumber,omitempty"`
	Experience     int            `json:"experience,omitempty"`
	Bio            string         `json:"bio,omitempty"`
	Availability   []Availability `json:"availability,omitempty"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt,omitzero"`
}

// DoctorInput is the body for creating or updating a doctor. New doctors get
// a temporary password and must change it on first login.
type DoctorInput struct {
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Specialization string `json:"specialization,omitempty"`
	LicenseNumber  string `json:"licenseNumber,omitempty"`
	Experience     int    `json:"experience,omitempty"`
	Bio            string `json:"bio,omitempty"`
}

// Availability is a doctor's working window on one weekday.
type Availability struct {
	DayOfWeek   string `json:"dayOfWeek"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsAvailable bool   `json:"isAvailable"`
}

// Schedule is a doctor's weekly availability.
type Schedule struct {
	Availability []Availability `json:"availability"`
	SlotMinutes  int            `json:"slotDuration,omitempty"`
}

// TreatmentFee is one priced treatment.
type TreatmentFee struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Category    string  `json:"category,omitempty"`
	Price       float64 `json:"price"`
	IsActive    bool    `json:"isActive"`
}

// InvoiceItem is one line on an invoice.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
}

// Invoice is a bill raised for a patient.
type Invoice struct {
	ID            string        `json:"id"`
	InvoiceNumber string        `json:"invoiceNumber"`
	PatientID     string        `json:"patientId"`
	AppointmentID string        `json:"appointmentId,omitempty"`
	Items         []InvoiceItem `json:"items"`
	Subtotal      float64       `json:"subtotal"`
	Tax           float64       `json:"tax"`
	Total         float64       `json:"total"`
	Status        string        `json:"status"`
	DueDate       string        `json:"dueDate,omitempty"`
	PaidAt        *time.Time    `json:"paidAt,omitempty"`
	CreatedAt     time.Time     `json:"createdAt,omitzero"`
}

// DashboardStats are the headline numbers on a dashboard. Which fields are
// populated depends on the role.
type DashboardStats struct {
	TotalPatients         int           `json:"totalPatients,omitempty"`
	TotalDoctors          int           `json:"totalDoctors,omitempty"`
	TotalAppointments     int           `json:"totalAppointments,omitempty"`
	TodayAppointments     int           `json:"todayAppointments,omitempty"`
	UpcomingAppointments  int           `json:"upcomingAppointments,omitempty"`
	CompletedAppointments int           `json:"completedAppointments,omitempty"`
	PendingInvoices       int           `json:"pendingInvoices,omitempty"`
	Revenue               float64       `json:"revenue,omitempty"`
	Recent                []Appointment `json:"recentAppointments,omitempty"`
}

// AnalyticsStats are the admin reporting figures for a period.
type AnalyticsStats struct {
	Period                string             `json:"period"`
	Revenue               float64            `json:"revenue"`
	NewPatients           int                `json:"newPatients"`
	Appointments          int                `json:"appointments"`
	CancellationRate      float64            `json:"cancellationRate"`
	AppointmentsByStatus  map[string]int     `json:"appointmentsByStatus,omitempty"`
	RevenueByTreatment    map[string]float64 `json:"revenueByTreatment,omitempty"`
	AppointmentsPerDoctor map[string]int     `json:"appointmentsPerDoctor,omitempty"`
}

// AdminUser is a staff account with a permission set.
type AdminUser struct {
	ID          string   `json:"id"`
	Email       string   `json:"email"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Permissions []string `json:"permissions"`
	IsActive    bool     `json:"isActive"`
}

// AdminUserInput is the body for creating or updating an admin user.
type AdminUserInput struct {
	Email       string   `json:"email,omitempty"`
	FirstName   string   `json:"firstName,omitempty"`
	LastName    string   `json:"lastName,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
}
