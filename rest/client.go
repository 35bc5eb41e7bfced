// Package rest is the HTTP transport for a ctrlX CORE device. It
// implements the datalayer Transport and DataPlane collaborators
// against the identity-manager and automation REST endpoints. It holds
// no session state of its own; the datalayer client decides when each
// exchange happens and which credential it carries.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-ctrlx-datalayer/datalayer"
	"github.com/jrsteele09/go-ctrlx-datalayer/problem"
)

const (
	tokenRoute = "/identity-manager/api/v2/auth/token"
	nodesRoute = "/automation/api/v2/nodes"

	defaultRequestTimeout = 30 * time.Second
)

var (
	_ datalayer.Transport = (*Client)(nil)
	_ datalayer.DataPlane = (*Client)(nil)
)

// Client performs the wire exchanges against one or more devices. It is
// safe for concurrent use; all per-session state lives in the datalayer
// client that drives it.
type Client struct {
	httpClient     *http.Client
	defaultTimeout time.Duration
	logger         zerolog.Logger
}

// New creates a transport with the default TLS-verifying HTTP client
// and a 30 second request deadline. Devices commonly ship self-signed
// certificates; see WithInsecureTLS.
func New(opts ...Option) *Client {
	c := &Client{
		defaultTimeout: defaultRequestTimeout,
		logger:         log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	return c
}

// Authenticate exchanges username and password for a bearer token at
// the device's identity manager.
func (c *Client) Authenticate(ctx context.Context, host, username, password string, timeout time.Duration) (*datalayer.Credentials, error) {
	body := map[string]string{"name": username, "password": password}
	raw, err := c.do(ctx, http.MethodPost, host, nil, tokenRoute, nil, body, timeout)
	if err != nil {
		return nil, err
	}
	creds := &datalayer.Credentials{}
	if err := json.Unmarshal(raw, creds); err != nil {
		return nil, errors.Wrap(err, "rest.Authenticate: decoding token response")
	}
	return creds, nil
}

// RevokeToken invalidates the session's token at the identity manager.
func (c *Client) RevokeToken(ctx context.Context, host string, auth datalayer.Authorization, timeout time.Duration) error {
	_, err := c.do(ctx, http.MethodDelete, host, &auth, tokenRoute, nil, nil, timeout)
	return err
}

// Read reads a node's value, metadata, or children depending on kind.
func (c *Client) Read(ctx context.Context, host string, auth datalayer.Authorization, path string, kind datalayer.ReadKind, timeout time.Duration) (json.RawMessage, error) {
	var query url.Values
	if kind != "" && kind != datalayer.KindData {
		query = url.Values{"type": []string{string(kind)}}
	}
	return c.do(ctx, http.MethodGet, host, &auth, nodeRoute(path), query, nil, timeout)
}

// Write writes a node's value.
func (c *Client) Write(ctx context.Context, host string, auth datalayer.Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPut, host, &auth, nodeRoute(path), nil, payload, timeout)
}

// Create creates a node.
func (c *Client) Create(ctx context.Context, host string, auth datalayer.Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error) {
	return c.do(ctx, http.MethodPost, host, &auth, nodeRoute(path), nil, payload, timeout)
}

// Delete removes a node.
func (c *Client) Delete(ctx context.Context, host string, auth datalayer.Authorization, path string, timeout time.Duration) (json.RawMessage, error) {
	return c.do(ctx, http.MethodDelete, host, &auth, nodeRoute(path), nil, nil, timeout)
}

func nodeRoute(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nodesRoute
	}
	return nodesRoute + "/" + path
}

// baseURL normalizes a configured hostname into an https base URL.
func baseURL(host string) string {
	if strings.Contains(host, "://") {
		return strings.TrimRight(host, "/")
	}
	return "https://" + strings.TrimRight(host, "/")
}

// do performs one exchange. A nil auth sends no Authorization header.
// A negative timeout selects the transport default. Non-2xx responses
// are returned as *problem.Problem; everything else that fails is a
// plain transport error.
func (c *Client) do(ctx context.Context, method, host string, auth *datalayer.Authorization, route string, query url.Values, body any, timeout time.Duration) (json.RawMessage, error) {
	if timeout < 0 {
		timeout = c.defaultTimeout
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	requestURL := baseURL(host) + route
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "rest: encoding request body")
		}
		bodyReader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, errors.Wrap(err, "rest: building request")
	}
	requestID := uuid.New().String()
	req.Header.Set("Request-Id", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != nil {
		req.Header.Set("Authorization", auth.Scheme+" "+auth.Token)
	}

	c.logger.Debug().
		Str("method", method).
		Str("url", requestURL).
		Str("request_id", requestID).
		Msg("device request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "rest: %s %s", method, requestURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pb := problem.FromResponse(resp)
		c.logger.Debug().
			Str("request_id", requestID).
			Int("status", pb.Status).
			Str("title", pb.Title).
			Msg("device problem")
		return nil, fmt.Errorf("rest: %s %s: %w", method, requestURL, pb)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "rest: %s %s: reading response", method, requestURL)
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return json.RawMessage(raw), nil
}
