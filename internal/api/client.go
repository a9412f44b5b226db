// Package api is the gateway to the remote task and attendance API. Every
// call is one HTTP request; responses are normalized into domain types
// before they are returned.
package api

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

	"github.com/google/uuid"
	"github.com/rpggio/taskdesk/internal/session"
)

const maxResponseBytes = 4 << 20

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Sessions   session.Reader
	Logger     *slog.Logger
}

// Client issues requests against a fixed base URL.
type Client struct {
	baseURL  string
	http     *http.Client
	sessions session.Reader
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a Client.
func New(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Client{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		http:     httpClient,
		sessions: opts.Sessions,
		logger:   logger,
		now:      time.Now,
	}
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	if c.sessions == nil {
		return "", &AuthError{Reason: ErrNoToken}
	}
	sess, err := c.sessions.Current(ctx)
	if err != nil {
		if session.IsAbsent(err) {
			return "", &AuthError{Reason: ErrNoToken}
		}
		return "", fmt.Errorf("reading session: %w", err)
	}
	if session.TokenExpired(sess.Token, c.now()) {
		return "", &AuthError{Reason: ErrTokenExpired}
	}
	return sess.Token, nil
}

// do sends req and decodes a 2xx JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, req request, out any) error {
	var token string
	if req.auth {
		t, err := c.bearer(ctx)
		if err != nil {
			return err
		}
		token = t
	}

	target := c.baseURL + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		data, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(data)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.path, err)
	}
	requestID := uuid.NewString()
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.logger.Debug("api request failed", "method", req.method, "path", req.path, "request_id", requestID, "error", err)
		return &NetworkError{Op: req.method + " " + req.path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return &NetworkError{Op: req.method + " " + req.path, Err: err}
	}

	c.logger.Debug("api request",
		"method", req.method,
		"path", req.path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
		"request_id", requestID,
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: errorMessage(resp.StatusCode, data)}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

func errorMessage(status int, body []byte) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != "" {
		return envelope.Error
	}
	return statusMessage(status)
}
