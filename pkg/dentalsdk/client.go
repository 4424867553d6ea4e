package dentalsdk

import (
	"net/http"
	"strings"
	"time"
)

// TokenProvider returns the bearer token to attach to a request, or "" when
// there is none. It is called once per request.
type TokenProvider func() string

// SDKClient is a client for the DentalDesk API.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client

	// Tokens supplies the bearer token for protected calls.
	Tokens TokenProvider

	// OnUnauthorized, when set, is called for every 401 on a protected call
	// so the session can drop back to anonymous.
	OnUnauthorized func(*APIError)
}

// NewSDKClient creates a client with a 10 second request timeout.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// WithTokens returns a copy of the client that reads tokens from p.
func (c *SDKClient) WithTokens(p TokenProvider) *SDKClient {
	cp := *c
	cp.Tokens = p
	return &cp
}

func (c *SDKClient) token() string {
	if c.Tokens == nil {
		return ""
	}
	return c.Tokens()
}

// Admin returns the client for /api/admin endpoints.
func (c *SDKClient) Admin() *AdminClient { return &AdminClient{c: c} }

// Doctor returns the client for /api/doctor endpoints.
func (c *SDKClient) Doctor() *DoctorClient { return &DoctorClient{c: c} }

// Patient returns the client for /api/patient endpoints.
func (c *SDKClient) Patient() *PatientClient { return &PatientClient{c: c} }

// Appointment returns the client for /api/appointment endpoints.
func (c *SDKClient) Appointment() *AppointmentClient { return &AppointmentClient{c: c} }
