// Package datalayer manages the session and token lifecycle for a ctrlX
// CORE Data Layer connection. A Client owns the session state for one
// device, serializes concurrent login attempts through a single-flight
// guard, renews the token ahead of its expiry, and transparently retries
// an operation once after an authorization failure when auto-reconnect
// is enabled. The wire exchanges themselves are delegated to the
// Transport and DataPlane collaborators.
package datalayer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jrsteele09/go-ctrlx-datalayer/token"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

// renewalSkew is subtracted from a token's lifetime so renewal happens
// ahead of the instant the device starts rejecting it.
const renewalSkew = 30 * time.Second

// DefaultTimeout selects the transport's own default request deadline.
const DefaultTimeout time.Duration = -1

// Credentials is the device's token response.
type Credentials struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Transport performs the identity-manager exchanges.
type Transport interface {
	Authenticate(ctx context.Context, host, username, password string, timeout time.Duration) (*Credentials, error)
	RevokeToken(ctx context.Context, host string, auth Authorization, timeout time.Duration) error
}

// ReadKind selects among the read sub-variants of the data layer.
type ReadKind string

const (
	KindData     ReadKind = "data"
	KindMetadata ReadKind = "metadata"
	KindBrowse   ReadKind = "browse"
)

// DataPlane performs the data-layer verbs against an authenticated
// device. Results are passed through unchanged; the session core
// imposes no schema.
type DataPlane interface {
	Read(ctx context.Context, host string, auth Authorization, path string, kind ReadKind, timeout time.Duration) (json.RawMessage, error)
	Write(ctx context.Context, host string, auth Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error)
	Create(ctx context.Context, host string, auth Authorization, path string, payload json.RawMessage, timeout time.Duration) (json.RawMessage, error)
	Delete(ctx context.Context, host string, auth Authorization, path string, timeout time.Duration) (json.RawMessage, error)
}

// LoginResult is the outcome of a successful authentication exchange,
// augmented with the decoded claims and computed renewal watermark for
// observability.
type LoginResult struct {
	Token   string
	Scheme  string
	Claims  *token.Claims
	RenewAt time.Time
}

// Client is the session manager for one device connection. Credentials
// are immutable for its lifetime; rotating them means constructing a
// new Client.
type Client struct {
	host     string
	username string
	password string

	transport Transport
	data      DataPlane
	nowFunc   func() time.Time

	mu            sync.Mutex
	session       sessionState
	timeout       time.Duration
	autoReconnect bool

	loginGroup singleflight.Group
}

// Option modifies a Client during construction.
type Option func(*Client)

// WithTimeout sets the request deadline handed to every transport call.
// A negative value selects the transport default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithAutoReconnect controls whether an authorization failure triggers
// one transparent re-login and retry. Enabled by default.
func WithAutoReconnect(on bool) Option {
	return func(c *Client) { c.autoReconnect = on }
}

// WithNowFunc sets the clock used for the renewal watermark check
// (primarily for testing).
func WithNowFunc(now func() time.Time) Option {
	return func(c *Client) { c.nowFunc = now }
}

// New creates a session manager for the device at host. The returned
// Client starts logged out; callers must Login before invoking
// data-layer operations.
func New(host, username, password string, transport Transport, data DataPlane, opts ...Option) *Client {
	c := &Client{
		host:          host,
		username:      username,
		password:      password,
		transport:     transport,
		data:          data,
		nowFunc:       time.Now,
		timeout:       DefaultTimeout,
		autoReconnect: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.session.reset()
	c.session.renewAt = c.nowFunc()
	return c
}

// Host returns the device hostname this client talks to.
func (c *Client) Host() string { return c.host }

// Status returns the current session status.
func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.status
}

// Timeout returns the configured request deadline.
func (c *Client) Timeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// SetTimeout changes the request deadline for subsequent operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = d
}

// AutoReconnect reports whether the reconnect-on-401 path is enabled.
func (c *Client) AutoReconnect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoReconnect
}

// SetAutoReconnect toggles the reconnect-on-401 path.
func (c *Client) SetAutoReconnect(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoReconnect = on
}

// Login authenticates against the device and establishes a fresh
// session. Concurrent callers attach to a single in-flight exchange and
// converge onto one coherent final state. A Login on an already
// established or in-progress session first revokes the old token
// (best effort) and then performs a fresh exchange.
func (c *Client) Login(ctx context.Context) (*LoginResult, error) {
	v, err, _ := c.loginGroup.Do("login", func() (any, error) {
		return c.doLogin(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*LoginResult), nil
}

func (c *Client) doLogin(ctx context.Context) (*LoginResult, error) {
	c.mu.Lock()
	if c.session.status != StatusLoggedOut {
		auth := c.session.authorization()
		active := c.session.status == StatusLoggedIn
		timeout := c.timeout
		c.session.reset()
		c.mu.Unlock()
		if active {
			// Best effort: a token the device refuses to revoke is
			// dropped locally regardless.
			_ = c.transport.RevokeToken(ctx, c.host, auth, timeout)
		}
		c.mu.Lock()
	}
	c.session.status = StatusAuthenticating
	timeout := c.timeout
	c.mu.Unlock()

	creds, err := c.transport.Authenticate(ctx, c.host, c.username, c.password, timeout)
	if err != nil {
		c.resetSession()
		return nil, errors.Wrap(err, "datalayer.Login")
	}
	if creds == nil || creds.AccessToken == "" || creds.TokenType == "" {
		c.resetSession()
		return nil, fmt.Errorf("datalayer.Login: %w: token response missing access_token or token_type", ErrProtocolViolation)
	}

	claims, err := token.Decode(creds.AccessToken)
	if err != nil {
		c.resetSession()
		return nil, fmt.Errorf("datalayer.Login: %w: %v", ErrProtocolViolation, err)
	}

	renewAt := claims.RenewAt(renewalSkew)
	c.mu.Lock()
	c.session.setLoggedIn(creds.AccessToken, creds.TokenType, claims, renewAt)
	c.mu.Unlock()

	return &LoginResult{
		Token:   creds.AccessToken,
		Scheme:  creds.TokenType,
		Claims:  claims,
		RenewAt: renewAt,
	}, nil
}

// Logout clears the local session unconditionally and asks the device
// to revoke the token. A revocation failure is surfaced to the caller
// but is purely informational: local state is already reset, so a
// failed Logout never leaves the session active.
func (c *Client) Logout(ctx context.Context) error {
	c.mu.Lock()
	auth := c.session.authorization()
	active := c.session.status == StatusLoggedIn
	timeout := c.timeout
	c.session.reset()
	c.mu.Unlock()

	if !active {
		return nil
	}
	if err := c.transport.RevokeToken(ctx, c.host, auth, timeout); err != nil {
		return errors.Wrap(err, "datalayer.Logout")
	}
	return nil
}

func (c *Client) resetSession() {
	c.mu.Lock()
	c.session.reset()
	c.mu.Unlock()
}
