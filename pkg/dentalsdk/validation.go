package dentalsdk

import (
	"net/mail"
	"regexp"
	"strings"
)

const (
	requiredReason   = "required"
	minPasswordLen   = 8
	passwordTooShort = "must be at least 8 characters"
)

var (
	reDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	reTime = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	reCode = regexp.MustCompile(`^\d{6}$`)
)

// Validate checks the login fields. Returns a map of field names to error
// messages, or nil if all fields are valid.
func (r LoginRequest) Validate() map[string]string {
	errs := make(map[string]string)
	validateEmail(errs, "email", r.Email)
	if r.Password == "" {
		errs["password"] = requiredReason
	}
	if !r.UserType.Valid() {
		errs["userType"] = "must be patient, doctor or admin"
	}
	if r.TwoFactorCode != "" && !reCode.MatchString(r.TwoFactorCode) {
		errs["twoFactorCode"] = "must be 6 digits"
	}
	return nilIfEmpty(errs)
}

// Validate checks the registration fields.
func (r RegisterRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.FirstName) == "" {
		errs["firstName"] = requiredReason
	}
	if strings.TrimSpace(r.LastName) == "" {
		errs["lastName"] = requiredReason
	}
	validateEmail(errs, "email", r.Email)
	validatePassword(errs, "password", r.Password)
	if r.DateOfBirth != "" && !reDate.MatchString(r.DateOfBirth) {
		errs["dateOfBirth"] = "must be YYYY-MM-DD"
	}
	return nilIfEmpty(errs)
}

// Validate checks the reset fields.
func (r ResetPasswordRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if strings.TrimSpace(r.Token) == "" {
		errs["token"] = requiredReason
	}
	validatePassword(errs, "newPassword", r.NewPassword)
	return nilIfEmpty(errs)
}

// Validate checks the booking fields.
func (r BookAppointmentRequest) Validate() map[string]string {
	errs := make(map[string]string)
	if r.DoctorID == "" {
		errs["doctorId"] = requiredReason
	}
	switch {
	case r.Date == "":
		errs["date"] = requiredReason
	case !reDate.MatchString(r.Date):
		errs["date"] = "must be YYYY-MM-DD"
	}
	switch {
	case r.StartTime == "":
		errs["startTime"] = requiredReason
	case !reTime.MatchString(r.StartTime):
		errs["startTime"] = "must be HH:MM"
	}
	return nilIfEmpty(errs)
}

// ValidatePassword checks a new password on its own, for the forced change
// flow.
func ValidatePassword(pw string) map[string]string {
	errs := make(map[string]string)
	validatePassword(errs, "newPassword", pw)
	return nilIfEmpty(errs)
}

// ValidateEmail checks a lone e-mail field, for the reset and verification
// requests.
func ValidateEmail(email string) map[string]string {
	errs := make(map[string]string)
	validateEmail(errs, "email", email)
	return nilIfEmpty(errs)
}

func validateEmail(errs map[string]string, field, email string) {
	email = strings.TrimSpace(email)
	if email == "" {
		errs[field] = requiredReason
		return
	}
	if _, err := mail.ParseAddress(email); err != nil {
		errs[field] = "must be a valid e-mail address"
	}
}

func validatePassword(errs map[string]string, field, pw string) {
	switch {
	case pw == "":
		errs[field] = requiredReason
	case len(pw) < minPasswordLen:
		errs[field] = passwordTooShort
	}
}

func nilIfEmpty(errs map[string]string) map[string]string {
	if len(errs) == 0 {
		return nil
	}
	return errs
}
