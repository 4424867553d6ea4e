package slogx

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/dentaldesk/pkg/idx"
)

// Transport logs every outbound API call. It stamps an X-Request-ID header
// (reusing the one in the request context when there is one) so client and
// server logs can be joined.
type Transport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	logger := t.Logger
	if logger == nil {
		logger = FromContext(req.Context())
	}

	reqID, ok := RequestID(req.Context())
	if !ok {
		reqID = idx.New()
	}
	if req.Header.Get("X-Request-ID") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("X-Request-ID", reqID.String())
	}

	start := time.Now()
	resp, err := base.RoundTrip(req)
	elapsed := time.Since(start).Milliseconds()

	if err != nil {
		logger.Warn("api_request_failed",
			"req_id", req.Header.Get("X-Request-ID"),
			"method", req.Method,
			"path", req.URL.Path,
			"duration_ms", elapsed,
			"err", err,
		)
		return nil, err
	}

	logger.Debug("api_request",
		"req_id", req.Header.Get("X-Request-ID"),
		"method", req.Method,
		"path", req.URL.Path,
		"status", resp.StatusCode,
		"duration_ms", elapsed,
	)
	return resp, nil
}
