// Package api is the HTTP client for the remote task store.
//
// Every call attaches the stored bearer credential, and every failure comes
// back as either a *NetworkError (no response) or an *APIError (non-2xx).
// A 401 on an authenticated call also clears the credential and sends the
// user to the login view. The client never retries on its own.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harrisonrobin/steady/pkg/auth"
	"github.com/sirupsen/logrus"
)

// LoginPath is where a 401 sends the user.
const LoginPath = "/login"

const (
	maxResponseBytes = 4 << 20
	maxMessageBytes  = 512
)

var (
	// ErrNetwork matches every transport-level failure.
	ErrNetwork = errors.New("network error: please check your connection or try again")
	// ErrUnauthorized matches an *APIError carrying HTTP 401.
	ErrUnauthorized = errors.New("unauthorized")
)

// NetworkError is a request that never produced a response.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return ErrNetwork.Error() }

func (e *NetworkError) Unwrap() []error { return []error{ErrNetwork, e.Err} }

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Navigator moves the user between views.
type Navigator interface {
	Location() string
	Navigate(path string)
}

// Client talks to the remote task store.
type Client struct {
	baseURL string
	http    *http.Client
	creds   auth.Credentials
	nav     Navigator
	log     *logrus.Entry
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithNavigator(nav Navigator) Option {
	return func(c *Client) { c.nav = nav }
}

func WithLogger(log *logrus.Entry) Option {
	return func(c *Client) { c.log = log }
}

// WithTimeout bounds each round-trip. Zero keeps the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			hc := *c.http
			hc.Timeout = d
			c.http = &hc
		}
	}
}

// NewClient creates a client for baseURL. creds may be nil for an
// unauthenticated client.
func NewClient(baseURL string, creds auth.Credentials, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		creds:   creds,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "api")
	return c
}

type request struct {
	method string
	path   string
	body   interface{}
	out    interface{}
	// checksPassword marks calls where a 401 means the submitted password
	// was wrong, not that the session expired.
	checksPassword bool
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, request{method: http.MethodGet, path: path, out: out})
}

func (c *Client) do(ctx context.Context, r request) error {
	var body io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	requestID := uuid.NewString()
	req.Header.Set("X-Request-ID", requestID)
	if c.creds != nil {
		if tok, ok := c.creds.Token(); ok {
			tok.SetAuthHeader(req)
		}
	}

	log := c.log.WithFields(logrus.Fields{
		"method":     r.method,
		"path":       r.path,
		"request_id": requestID,
	})

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.WithError(err).Warn("request failed")
		return &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &NetworkError{Err: err}
	}
	log.WithFields(logrus.Fields{
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
		if resp.StatusCode == http.StatusUnauthorized && !r.checksPassword {
			c.forceLogout(log)
		}
		return apiErr
	}

	if r.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, r.out); err != nil {
		return fmt.Errorf("failed to decode response from %s %s: %w", r.method, r.path, err)
	}
	return nil
}

// forceLogout drops the credential and routes to the login view.
func (c *Client) forceLogout(log *logrus.Entry) {
	log.Warn("session rejected, signing out")
	if c.creds != nil {
		if err := c.creds.Clear(); err != nil {
			log.WithError(err).Error("could not clear credential")
		}
	}
	if c.nav != nil && !strings.HasPrefix(c.nav.Location(), LoginPath) {
		c.nav.Navigate(LoginPath)
	}
}

// errorMessage prefers the server's {error} or {message}, then a plain-text
// body, then a generic message.
func errorMessage(status int, body []byte) string {
	trimmed := bytes.TrimSpace(body)
	var payload struct {
		Error   interface{} `json:"error"`
		Message interface{} `json:"message"`
	}
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		for _, v := range []interface{}{payload.Error, payload.Message} {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	} else if len(trimmed) > 0 && !json.Valid(trimmed) {
		if len(trimmed) > maxMessageBytes {
			trimmed = trimmed[:maxMessageBytes]
		}
		return string(trimmed)
	}
	return fmt.Sprintf("Request failed: %d", status)
}
