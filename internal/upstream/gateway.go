// Package upstream is the only place the process talks to the work
// management API. Every call funnels through Gateway.do, which attaches the
// scope parameters and bearer header, classifies the response, and turns a
// 401 into a re-authentication redirect.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/marcus/quote-desk/internal/auth"
	"github.com/marcus/quote-desk/internal/config"
)

// APIError is a non-2xx upstream response. Message is the upstream JSON
// "message" field when the body carries one, otherwise the raw body text.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream API error %d: %s", e.Status, e.Message)
}

// Gateway is the single chokepoint for upstream HTTP traffic.
type Gateway struct {
	client   *http.Client
	auth     *auth.Service
	baseURL  string
	appID    string
	portalID string
}

func NewGateway(cfg config.Config, authSvc *auth.Service) *Gateway {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}

	return &Gateway{
		client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		auth:     authSvc,
		baseURL:  strings.TrimRight(cfg.UpstreamBaseURL, "/"),
		appID:    cfg.AppID,
		portalID: cfg.PortalID,
	}
}

// do performs one upstream call. path may carry its own query string; the
// scope parameters are merged in. A nil out discards the response body.
//
// Error outcomes: *auth.ReauthRequiredError when no credential is held or
// the upstream answered 401 (callers must treat the call as non-returning
// and surface the login URL), *APIError for any other non-2xx.
func (g *Gateway) do(ctx context.Context, method, path string, body any, out any) error {
	header, err := g.auth.EnsureAuthenticated(ctx)
	if err != nil {
		return err
	}

	u, err := url.Parse(g.baseURL + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return fmt.Errorf("building request URL: %w", err)
	}
	q := u.Query()
	q.Set("app_id", g.appID)
	if g.portalID != "" {
		q.Set("portal_id", g.portalID)
	}
	u.RawQuery = q.Encode()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", header)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// Session expired upstream. Drop the credential and hand the caller
		// a fresh login redirect.
		log.Printf("[gateway] 401 from %s %s, clearing credential", method, path)
		g.auth.Invalidate()
		loginURL, loginErr := g.auth.BeginLogin(false)
		if loginErr != nil {
			return fmt.Errorf("session expired and re-login failed: %w", loginErr)
		}
		return &auth.ReauthRequiredError{LoginURL: loginURL}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: extractMessage(raw)}
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}
	return nil
}

// extractMessage pulls a JSON "message" field out of an error body, falling
// back to the raw text.
func extractMessage(raw []byte) string {
	var parsed struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(raw))
}
