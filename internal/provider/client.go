package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/planwell/calsync/internal/instrumentation"
	"github.com/planwell/calsync/internal/logging"
)

// TokenSource supplies bearer tokens for provider calls and owns the
// re-authentication lifecycle. It is implemented by auth.Manager.
type TokenSource interface {
	// AccessToken returns a currently valid access token, refreshing
	// silently if the cached one is expired.
	AccessToken(ctx context.Context) (string, error)

	// AcquireTokenSilently refreshes the credential without user
	// interaction. Concurrent callers share a single in-flight refresh.
	AcquireTokenSilently(ctx context.Context) error

	// HandleAuthenticationFailure is invoked on an unrecoverable 401.
	HandleAuthenticationFailure()
}

// Client executes provider REST calls with a single, shared retry policy:
// on 401 it re-authenticates once and retries once, and nothing more. Every
// remote-facing component routes through this client so that retry and
// re-auth logic exists in exactly one place.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a provider API client. baseURL is the API root without
// a trailing slash.
func NewClient(baseURL string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
		tokens:  tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	c.logger = logging.WithComponent(c.logger, "provider")
	return c
}

// Call executes a request against an endpoint relative to the API root
// (e.g. "/me/events"). body, when non-nil, is sent as JSON. The raw JSON
// response is returned; a 204 or empty response yields nil.
func (c *Client) Call(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	return c.CallURL(ctx, method, c.baseURL+endpoint, body)
}

// CallURL is Call for an absolute URL. Pagination follows the provider's
// absolute continuation links, which is why this variant exists.
func (c *Client) CallURL(ctx context.Context, method, rawURL string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
	}

	start := time.Now()
	result, status, err := c.callOnce(ctx, method, rawURL, payload)

	if status == http.StatusUnauthorized {
		// One silent re-acquisition, one retry. A second 401 is definitive.
		c.logger.Info("token rejected, refreshing once", logging.Operation("call"))
		if refreshErr := c.tokens.AcquireTokenSilently(ctx); refreshErr != nil {
			c.tokens.HandleAuthenticationFailure()
			c.record(ctx, method, rawURL, status, start)
			return nil, &AuthError{Op: "refresh", Err: refreshErr}
		}

		result, status, err = c.callOnce(ctx, method, rawURL, payload)
		if status == http.StatusUnauthorized {
			c.logger.Error("still unauthorized after refresh", logging.Operation("call"))
			c.tokens.HandleAuthenticationFailure()
			c.record(ctx, method, rawURL, status, start)
			return nil, &AuthError{Op: "call"}
		}
	}

	c.record(ctx, method, rawURL, status, start)
	return result, err
}

// callOnce performs a single HTTP exchange. The returned status is zero
// when the request never produced a response.
func (c *Client) callOnce(ctx context.Context, method, rawURL string, payload []byte) (json.RawMessage, int, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return nil, 0, &AuthError{Op: "token", Err: err}
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, resp.StatusCode, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, resp.StatusCode, &NotFoundError{Endpoint: endpointFamily(rawURL)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, resp.StatusCode, &RemoteError{
			Op:         method + " " + endpointFamily(rawURL),
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	case resp.StatusCode == http.StatusNoContent || len(respBody) == 0:
		return nil, resp.StatusCode, nil
	}

	return json.RawMessage(respBody), resp.StatusCode, nil
}

func (c *Client) record(ctx context.Context, method, rawURL string, status int, start time.Time) {
	c.metrics.RecordProviderOperation(ctx, method, endpointFamily(rawURL), status, time.Since(start))
}

// endpointFamily reduces a request URL to a low-cardinality label by
// stripping the query string and collapsing resource ids.
func endpointFamily(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid"
	}

	known := map[string]bool{
		"me": true, "events": true, "calendars": true, "calendarGroups": true,
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	var out []string
	for _, seg := range segments {
		if seg == "" {
			continue
		}
		switch {
		case known[seg]:
			out = append(out, seg)
		case len(out) == 0:
			// API version prefix, e.g. "v1.0"; not part of the family.
		default:
			out = append(out, ":id")
		}
	}
	return "/" + strings.Join(out, "/")
}
