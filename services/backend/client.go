// Package backend is the typed HTTP client for the MOCCA REST backend. Calls
// are scoped to an audience (shopper or admin), carry the caller's bearer
// token, refresh it once on a 401 and run behind a circuit breaker.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"mocca-storefront/models"
)

const maxResponseBytes = 10 << 20

var (
	ErrUnauthorized       = errors.New("backend rejected credentials")
	ErrSessionExpired     = errors.New("session expired")
	ErrMalformedResponse  = errors.New("malformed backend response")
	ErrBackendUnavailable = errors.New("backend unavailable")

	errServerStatus = errors.New("backend server error")
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned %d", e.Status)
	}
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// StatusOf returns the backend status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// TokenSource holds the bearer tokens of one caller. SetAccessToken persists a
// refreshed token; Clear drops every token after a failed refresh.
type TokenSource interface {
	AccessToken() string
	RefreshToken() string
	SetAccessToken(token string) error
	Clear() error
}

type validator interface {
	Validate() error
}

type audience struct {
	name        string
	prefix      string
	refreshPath string
	pickToken   func(models.RefreshTokenResponse) string
}

var (
	shopperAudience = audience{
		name:        "shopper",
		prefix:      "/user",
		refreshPath: "/refresh-token",
		pickToken:   func(r models.RefreshTokenResponse) string { return r.AccessToken },
	}
	adminAudience = audience{
		name:        "admin",
		prefix:      "/admin",
		refreshPath: "/refresh-token-admin",
		pickToken:   func(r models.RefreshTokenResponse) string { return r.AdminToken },
	}
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[*response]
	renewal singleflight.Group
	logger  *zap.Logger
}

type response struct {
	status int
	header http.Header
	body   []byte
}

func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithHTTP(cfg.BaseURL, &http.Client{Timeout: timeout}, logger)
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[*response](gobreaker.Settings{
		Name:        "mocca-backend",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
	return c
}

// Shopper returns the storefront endpoints bound to tokens. tokens may be nil
// for anonymous calls such as login and catalog browsing.
func (c *Client) Shopper(tokens TokenSource) *Shopper {
	return &Shopper{c: c, tokens: tokens}
}

// Admin returns the back-office endpoints bound to tokens.
func (c *Client) Admin(tokens TokenSource) *Admin {
	return &Admin{c: c, tokens: tokens}
}

func (c *Client) call(ctx context.Context, a audience, tokens TokenSource, method, path string, query url.Values, in, out interface{}) error {
	resp, err := c.exchange(ctx, a, tokens, method, path, query, in)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
		}
	}
	return nil
}

// exchange performs the request and turns non-2xx answers into *APIError.
func (c *Client) exchange(ctx context.Context, a audience, tokens TokenSource, method, path string, query url.Values, in interface{}) (*response, error) {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}

	resp, err := c.send(ctx, a, tokens, method, path, query, payload)
	if err != nil {
		return nil, err
	}
	if resp.status < 200 || resp.status >= 300 {
		return nil, resp.apiError()
	}
	return resp, nil
}

// send replays the request once after a successful token refresh.
// Concurrent calls that hit a 401 with the same stale token share a single
// refresh.
func (c *Client) send(ctx context.Context, a audience, tokens TokenSource, method, path string, query url.Values, payload []byte) (*response, error) {
	var used string
	if tokens != nil {
		used = tokens.AccessToken()
	}
	resp, err := c.roundTrip(ctx, a, tokens, method, path, query, payload)
	if err != nil {
		return nil, err
	}
	if resp.status != http.StatusUnauthorized || tokens == nil {
		return resp, nil
	}

	// skip the refresh when another call already replaced the token
	if current := tokens.AccessToken(); current == used || current == "" {
		if tokens.RefreshToken() == "" {
			return resp, nil
		}
		if err := c.renew(ctx, a, tokens); err != nil {
			return nil, err
		}
	}

	resp, err = c.roundTrip(ctx, a, tokens, method, path, query, payload)
	if err != nil {
		return nil, err
	}
	if resp.status == http.StatusUnauthorized {
		return nil, ErrUnauthorized
	}
	return resp, nil
}

func (c *Client) renew(ctx context.Context, a audience, tokens TokenSource) error {
	refreshToken := tokens.RefreshToken()
	v, err, shared := c.renewal.Do(a.name+":"+refreshToken, func() (interface{}, error) {
		token, err := c.refresh(ctx, a, refreshToken)
		if err != nil {
			return "", err
		}
		// stored before the flight ends so later 401s on these tokens replay
		return token, tokens.SetAccessToken(token)
	})
	if err != nil {
		c.logger.Info("token refresh failed, clearing session",
			zap.String("audience", a.name), zap.Bool("shared", shared), zap.Error(err))
		if clearErr := tokens.Clear(); clearErr != nil {
			c.logger.Warn("failed to clear tokens", zap.Error(clearErr))
		}
		return fmt.Errorf("%w: %v", ErrSessionExpired, err)
	}
	// no-op unless the flight belonged to another request's tokens
	return tokens.SetAccessToken(v.(string))
}

func (c *Client) refresh(ctx context.Context, a audience, refreshToken string) (string, error) {
	payload, err := json.Marshal(models.RefreshTokenRequest{RefreshToken: refreshToken})
	if err != nil {
		return "", err
	}
	resp, err := c.roundTrip(ctx, a, nil, http.MethodPost, a.refreshPath, nil, payload)
	if err != nil {
		return "", err
	}
	if resp.status != http.StatusOK {
		return "", resp.apiError()
	}
	var out models.RefreshTokenResponse
	if err := json.Unmarshal(resp.body, &out); err != nil {
		return "", fmt.Errorf("%w: refresh: %v", ErrMalformedResponse, err)
	}
	token := a.pickToken(out)
	if token == "" {
		return "", fmt.Errorf("%w: refresh returned no token", ErrMalformedResponse)
	}
	return token, nil
}

func (c *Client) roundTrip(ctx context.Context, a audience, tokens TokenSource, method, path string, query url.Values, payload []byte) (*response, error) {
	target := c.baseURL + a.prefix + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	start := time.Now()
	resp, err := c.breaker.Execute(func() (*response, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, target, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if tokens != nil {
			if token := tokens.AccessToken(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		httpResp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer httpResp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
		if err != nil {
			return nil, err
		}
		r := &response{status: httpResp.StatusCode, header: httpResp.Header, body: data}
		if r.status >= 500 {
			return r, errServerStatus
		}
		return r, nil
	})

	fields := []zap.Field{
		zap.String("audience", a.name),
		zap.String("method", method),
		zap.String("path", a.prefix+path),
		zap.Duration("duration", time.Since(start)),
	}
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.logger.Warn("backend call short-circuited", fields...)
		return nil, ErrBackendUnavailable
	case errors.Is(err, errServerStatus):
		c.logger.Warn("backend server error", append(fields, zap.Int("status", resp.status))...)
		return resp, nil
	case err != nil:
		c.logger.Warn("backend call failed", append(fields, zap.Error(err))...)
		return nil, fmt.Errorf("backend %s %s: %w", method, a.prefix+path, err)
	}
	c.logger.Debug("backend call", append(fields, zap.Int("status", resp.status))...)
	return resp, nil
}

func (r *response) apiError() *APIError {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(r.body, &body)
	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &APIError{Status: r.status, Message: msg}
}

// Download is a binary response such as an exported report.
type Download struct {
	ContentType        string
	ContentDisposition string
	Body               []byte
}

func (c *Client) download(ctx context.Context, a audience, tokens TokenSource, path string, query url.Values) (*Download, error) {
	resp, err := c.exchange(ctx, a, tokens, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	return &Download{
		ContentType:        resp.header.Get("Content-Type"),
		ContentDisposition: resp.header.Get("Content-Disposition"),
		Body:               resp.body,
	}, nil
}

func pathEscape(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
