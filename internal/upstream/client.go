package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// OrgURL is the organisation endpoint the relay forwards to.
const OrgURL = "https://sf14-terminlister-prod-app.azurewebsites.net/org/Organisation?orgIds=20450"

// Result is a successful upstream response. Body holds the upstream bytes
// unchanged and is guaranteed to be syntactically valid JSON. Duration covers
// the request and the body read.
type Result struct {
	StatusCode int
	Body       json.RawMessage
	Duration   time.Duration
}

// Client performs the single outbound GET. It keeps no state between calls
// and is safe for concurrent use.
type Client struct {
	target string
	client *http.Client
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.client = hc
		}
	}
}

// New creates a client for target. No timeout is set on the default
// http.Client; callers bound the call through the context.
func New(target string, opts ...Option) *Client {
	c := &Client{
		target: target,
		client: &http.Client{},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Target returns the URL the client fetches.
func (c *Client) Target() string {
	return c.target
}

// FetchOrg issues GET target with Accept: application/json. Any transport
// error, 4xx/5xx status or non-JSON body is reported as *Failure.
func (c *Client) FetchOrg(ctx context.Context) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.target, nil)
	if err != nil {
		return Result{}, &Failure{URL: c.target, Err: fmt.Errorf("building request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return Result{}, &Failure{URL: c.target, Err: err}
	}
	defer resp.Body.Close()

	finalURL := c.target
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode >= http.StatusBadRequest {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Result{}, &Failure{
			StatusCode: resp.StatusCode,
			Reason:     reasonPhrase(resp),
			URL:        finalURL,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, &Failure{
			StatusCode: resp.StatusCode,
			URL:        finalURL,
			Err:        fmt.Errorf("reading response body: %w", err),
		}
	}

	if !json.Valid(body) {
		return Result{}, &Failure{
			StatusCode: resp.StatusCode,
			URL:        finalURL,
			Err:        fmt.Errorf("invalid JSON in upstream response: %s", finalURL),
		}
	}

	return Result{
		StatusCode: resp.StatusCode,
		Body:       body,
		Duration:   time.Since(start),
	}, nil
}

// reasonPhrase prefers the phrase from the status line and falls back to
// the standard text for the code.
func reasonPhrase(resp *http.Response) string {
	reason := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if reason == "" {
		reason = http.StatusText(resp.StatusCode)
	}
	return reason
}
