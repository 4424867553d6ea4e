package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/dentaldesk/internal/portal/domain"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/route"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/service"
	"github.com/aussiebroadwan/dentaldesk/internal/portal/store"
	"github.com/aussiebroadwan/dentaldesk/pkg/dentalsdk"
	"github.com/aussiebroadwan/dentaldesk/pkg/httpx"
	"github.com/aussiebroadwan/dentaldesk/pkg/slogx"
)

// Router serves the portal: JSON views over the role-prefixed route surface,
// each gated by the route guard, plus the auth form endpoints.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	Session *service.SessionStore
	Auth    *service.AuthService
	Client  *dentalsdk.SDKClient
	Tree    *route.Tree

	// AuthLimit paces the auth form endpoints per client IP.
	AuthLimit httpx.RateLimitConfig

	storage      store.KV
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(
	session *service.SessionStore,
	auth *service.AuthService,
	client *dentalsdk.SDKClient,
	storage store.KV,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		Session:      session,
		Auth:         auth,
		Client:       client,
		Tree:         route.Default(),
		AuthLimit:    httpx.AuthLimit,
		storage:      storage,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerSystem()
	r.registerAuth()
	r.registerPatient()
	r.registerDoctor()
	r.registerAdmin()
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.storage, r.Session))
	r.Mux.Handle("GET /api/session", SessionHandler(r.Session))
	r.Mux.HandleFunc("GET /{$}", r.handleRoot)
	r.Mux.HandleFunc("/", r.handleNotFound)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{Session: r.Session, Auth: r.Auth, Tree: r.Tree}
	limited := func(fn http.HandlerFunc, name string) http.Handler {
		return httpx.Chain(fn,
			httpx.RateLimitByIP(r.AuthLimit),
			r.guard(name),
		)
	}

	r.Mux.Handle("GET /auth/login", r.view("auth.login", h.LoginView))
	r.Mux.Handle("POST /auth/login", limited(h.HandleLogin, "auth.login"))
	r.Mux.HandleFunc("POST /auth/logout", h.HandleLogout)

	r.Mux.Handle("GET /auth/register", r.view("auth.register", emptyView))
	r.Mux.Handle("POST /auth/register", limited(h.HandleRegister, "auth.register"))

	r.Mux.Handle("GET /auth/forgot-password", r.view("auth.forgot-password", emptyView))
	r.Mux.Handle("POST /auth/forgot-password", limited(h.HandleForgotPassword, "auth.forgot-password"))

	r.Mux.Handle("GET /auth/reset-password/{token}", r.view("auth.reset-password", h.ResetPasswordView))
	r.Mux.Handle("POST /auth/reset-password/{token}", limited(h.HandleResetPassword, "auth.reset-password"))

	r.Mux.Handle("GET /auth/resend-verification", r.view("auth.resend-verification", emptyView))
	r.Mux.Handle("POST /auth/resend-verification", limited(h.HandleResendVerification, "auth.resend-verification"))

	// Verification happens on visit, like following the e-mailed link.
	r.Mux.Handle("GET /auth/verify-email/{token}", httpx.Chain(r.view("auth.verify-email", h.VerifyEmailView),
		httpx.RateLimitByIP(r.AuthLimit),
	))

	r.Mux.Handle("GET /auth/change-password", r.view("auth.change-password", h.ChangePasswordView))
	r.Mux.Handle("POST /auth/change-password", limited(h.HandleChangePassword, "auth.change-password"))
}

func (r *Router) registerPatient() {
	v := &PatientViews{API: r.Client.Patient(), AppointmentAPI: r.Client.Appointment()}

	r.Mux.Handle("GET /patient/dashboard", r.view("patient.dashboard", v.Dashboard))
	r.Mux.Handle("GET /patient/profile", r.view("patient.profile", v.Profile))
	r.Mux.Handle("PATCH /patient/profile", r.action("patient.profile", "", v.UpdateProfile))
	r.Mux.Handle("GET /patient/appointments", r.view("patient.appointments", v.Appointments))
	r.Mux.Handle("GET /patient/appointments/book", r.view("patient.appointments.book", v.BookForm))
	r.Mux.Handle("POST /patient/appointments/book", r.action("patient.appointments.book", "", v.Book))
	r.Mux.Handle("GET /patient/appointments/{id}", r.view("patient.appointment", v.Appointment))
	r.Mux.Handle("POST /patient/appointments/{id}/cancel", r.action("patient.appointment", "", v.Cancel))
	r.Mux.Handle("GET /patient/doctors", r.view("patient.doctors", v.Doctors))
	r.Mux.Handle("GET /patient/invoices", r.view("patient.invoices", v.Invoices))
}

func (r *Router) registerDoctor() {
	v := &DoctorViews{API: r.Client.Doctor()}

	r.Mux.Handle("GET /doctor/dashboard", r.view("doctor.dashboard", v.Dashboard))
	r.Mux.Handle("GET /doctor/profile", r.view("doctor.profile", v.Profile))
	r.Mux.Handle("GET /doctor/appointments", r.view("doctor.appointments", v.Appointments))
	r.Mux.Handle("GET /doctor/appointments/{id}", r.view("doctor.appointment", v.Appointment))
	r.Mux.Handle("PATCH /doctor/appointments/{id}", r.action("doctor.appointment", "", v.UpdateAppointment))
	r.Mux.Handle("GET /doctor/patients", r.view("doctor.patients", v.Patients))
	r.Mux.Handle("GET /doctor/patients/{id}", r.view("doctor.patient", v.Patient))
	r.Mux.Handle("GET /doctor/schedule", r.view("doctor.schedule", v.Schedule))
	r.Mux.Handle("PUT /doctor/schedule", r.action("doctor.schedule", "", v.UpdateSchedule))
}

func (r *Router) registerAdmin() {
	v := &AdminViews{API: r.Client.Admin()}

	r.Mux.Handle("GET /admin/dashboard", r.view("admin.dashboard", v.Dashboard))

	r.Mux.Handle("GET /admin/patients", r.view("admin.patients", v.Patients))
	r.Mux.Handle("POST /admin/patients", r.action("admin.patients", domain.PermPatientsCreate, v.CreatePatient))
	r.Mux.Handle("GET /admin/patients/{id}", r.view("admin.patient", v.Patient))
	r.Mux.Handle("PATCH /admin/patients/{id}", r.action("admin.patient", domain.PermPatientsEdit, v.UpdatePatient))
	r.Mux.Handle("DELETE /admin/patients/{id}", r.action("admin.patient", domain.PermPatientsDelete, v.DeletePatient))

	r.Mux.Handle("GET /admin/doctors", r.view("admin.doctors", v.Doctors))
	r.Mux.Handle("POST /admin/doctors", r.action("admin.doctors", domain.PermDoctorsCreate, v.CreateDoctor))
	r.Mux.Handle("GET /admin/doctors/{id}", r.view("admin.doctor", v.Doctor))
	r.Mux.Handle("PATCH /admin/doctors/{id}", r.action("admin.doctor", domain.PermDoctorsEdit, v.UpdateDoctor))
	r.Mux.Handle("DELETE /admin/doctors/{id}", r.action("admin.doctor", domain.PermDoctorsDelete, v.DeleteDoctor))

	r.Mux.Handle("GET /admin/appointments", r.view("admin.appointments", v.Appointments))
	r.Mux.Handle("GET /admin/fees", r.view("admin.fees", v.Fees))
	r.Mux.Handle("PATCH /admin/fees/{id}", r.action("admin.fees", domain.PermBillingEdit, v.UpdateFee))
	r.Mux.Handle("GET /admin/invoices", r.view("admin.invoices", v.Invoices))
	r.Mux.Handle("GET /admin/analytics", r.view("admin.analytics", v.Analytics))
	r.Mux.Handle("GET /admin/users", r.view("admin.users", v.Users))
	r.Mux.Handle("PUT /admin/users/{id}/permissions", r.action("admin.users", "", v.SetPermissions))
}

func (r *Router) handleRoot(w http.ResponseWriter, req *http.Request) {
	snap := r.Session.Snapshot()
	switch {
	case snap.IsLoading():
		writeLoading(w)
	case snap.IsAuthenticated():
		writeRedirect(w, req, domain.DashboardPath(snap.Role()))
	default:
		writeRedirect(w, req, domain.LoginPath)
	}
}

func (r *Router) handleNotFound(w http.ResponseWriter, req *http.Request) {
	httpx.WriteMessage(w, http.StatusNotFound, "not_found", "Page not found.")
}
