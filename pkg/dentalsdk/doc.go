/*
Package dentalsdk is the typed client for the DentalDesk practice-management API.

# Overview

The API wraps every payload in an envelope:

	{"success": true, "data": {...}, "message": "...", "pagination": {...}}

Every SDK call unwraps the envelope and returns the typed data, or an
*APIError carrying the HTTP status, a Kind and the server's message. Errors
are never swallowed; callers decide how to surface them (APIError.UserMessage
gives the text a user should see).

# Tokens

The SDK never caches the bearer token. SDKClient.Tokens is a TokenProvider
that is called on every protected request, so a login or logout that happens
while the client is in use takes effect on the next call:

	client := dentalsdk.NewSDKClient("https://api.example.com")
	client.Tokens = session.Token
	client.OnUnauthorized = func(*dentalsdk.APIError) { session.HandleUnauthorized() }

When the provider returns "" the Authorization header is omitted entirely.

# Domain clients

Calls are grouped per API area:

	stats, err := client.Admin().Dashboard(ctx)
	appts, err := client.Doctor().ListAppointments(ctx, dentalsdk.ListQuery{Status: "scheduled"})
	appt, err := client.Patient().BookAppointment(ctx, req)
	slots, err := client.Appointment().AvailableSlots(ctx, doctorID, "2026-03-02")

# Authentication

Login, registration, password reset and e-mail verification live on
SDKClient directly since they run before a session exists. A login that needs
a second factor fails with *TwoFactorRequiredError; retry with the code set on
LoginRequest.TwoFactorCode.

Accounts created with a temporary password get a temp token instead of a
bearer token. ChangeForcedPassword sends it to the endpoint for the account's
role (each role has its own) and the user then logs in again.
*/
package dentalsdk
