package dentalsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxResponseBody caps how much of a response is read.
const maxResponseBody = 4 << 20

// request describes one API call.
type request struct {
	method string
	path   string
	query  url.Values
	body   any

	// bearer, when set, is sent instead of the provider's token. Used for
	// the temp token of a forced password change.
	bearer string

	// public calls never carry the session token and a 401 from them does
	// not end the session.
	public bool
}

func (r request) protected() bool {
	return !r.public && r.bearer == ""
}

// url builds a complete URL by appending the path and query to the base URL.
func (c *SDKClient) url(path string, query url.Values) string {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// call performs r and unwraps the response envelope into T.
func call[T any](ctx context.Context, c *SDKClient, r request) (*Envelope[T], error) {
	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.url(r.path, r.query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// The token is read per request; an empty token means no header at all.
	token := r.bearer
	if r.protected() {
		token = c.token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Err: err, RequestID: req.Header.Get("X-Request-ID")}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := parseErrorResponse(resp, raw)
		if apiErr.Kind == KindUnauthorized && r.protected() && c.OnUnauthorized != nil {
			c.OnUnauthorized(apiErr)
		}
		return nil, apiErr
	}

	env := &Envelope[T]{Success: true}
	if len(bytes.TrimSpace(raw)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(raw, env); err != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Kind:       KindTransport,
			RequestID:  requestID(resp),
			Err:        fmt.Errorf("failed to decode response: %w", err),
		}
	}
	if !env.Success {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Kind:       KindBadRequest,
			Message:    env.Message,
			RequestID:  requestID(resp),
		}
	}
	return env, nil
}

// get is call for the common case where only the data matters.
func get[T any](ctx context.Context, c *SDKClient, r request) (T, error) {
	env, err := call[T](ctx, c, r)
	if err != nil {
		var zero T
		return zero, err
	}
	return env.Data, nil
}

// list is call for paginated endpoints.
func list[T any](ctx context.Context, c *SDKClient, r request) (*Page[T], error) {
	env, err := call[[]T](ctx, c, r)
	if err != nil {
		return nil, err
	}
	page := &Page[T]{Items: env.Data}
	if env.Pagination != nil {
		page.Pagination = *env.Pagination
	} else {
		page.Pagination = Pagination{Page: 1, Limit: len(env.Data), Total: len(env.Data), Pages: 1}
	}
	return page, nil
}

// ack is call for endpoints whose data is irrelevant; it returns the server
// message.
func ack(ctx context.Context, c *SDKClient, r request) (*Ack, error) {
	env, err := call[json.RawMessage](ctx, c, r)
	if err != nil {
		return nil, err
	}
	return &Ack{Message: env.Message}, nil
}

func requestID(resp *http.Response) string {
	if id := resp.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	if resp.Request != nil {
		return resp.Request.Header.Get("X-Request-ID")
	}
	return ""
}

// parseErrorResponse turns a non-2xx response into an *APIError. Bodies that
// are not JSON still produce an error of the right Kind.
func parseErrorResponse(resp *http.Response, body []byte) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Kind:       KindFromStatus(resp.StatusCode),
		RequestID:  requestID(resp),
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		apiErr.Message = eb.message()
		apiErr.Code = eb.Code
		apiErr.FieldErrors = eb.fieldErrors()
	}
	return apiErr
}
