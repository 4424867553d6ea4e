package service

import (
	"errors"
	"strings"
)

var (
	ErrLoginInProgress   = errors.New("service: a login is already in progress")
	ErrTwoFactorRequired = errors.New("service: two-factor code required")
	ErrInvalidSession    = errors.New("service: server returned an unusable session token")

	ErrValidation   = errors.New("service: validation failed")
	ErrConflict     = errors.New("service: conflict")
	ErrInvalidToken = errors.New("service: token is invalid, expired or already used")
	ErrTokenExpired = errors.New("service: token expired")
	ErrTokenInvalid = errors.New("service: token invalid")
	ErrNoTempToken  = errors.New("service: no temporary token; log in again")
)

// FlowError is the failure of an account flow. Reason is one of the sentinels
// above; Message is what the user should be shown.
type FlowError struct {
	Reason  error
	Message string
	Fields  map[string]string
	Err     error
}

func (e *FlowError) Error() string {
	var b strings.Builder
	b.WriteString(e.Reason.Error())
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *FlowError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

// UserMessage returns Message, or the reason when there is none.
func (e *FlowError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Reason.Error()
}
