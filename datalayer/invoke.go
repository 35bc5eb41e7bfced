package datalayer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jrsteele09/go-ctrlx-datalayer/problem"
)

// Operation performs one data-layer exchange using the supplied
// credential snapshot. Implementations must not retain the snapshot
// beyond the call.
type Operation func(ctx context.Context, auth Authorization, timeout time.Duration) (json.RawMessage, error)

// maxRenewals bounds the watermark-driven re-login within one Invoke
// call chain. One renewal is always enough when the renewal margin is
// positive; a second consecutive miss means a broken clock.
const maxRenewals = 1

// Invoke runs op with the current session credential. It is the shared
// wrapper behind every data-layer verb and guarantees uniform retry
// semantics:
//
//   - fails with ErrNotAuthenticated when no session is established,
//     without touching the transport;
//   - renews the token first when it has crossed its renewal watermark;
//   - on an authorization-class device problem with auto-reconnect
//     enabled, re-logs-in once and retries op exactly once; the retry's
//     outcome is final;
//   - every other failure propagates unchanged.
func (c *Client) Invoke(ctx context.Context, op Operation) (json.RawMessage, error) {
	return c.invoke(ctx, op, 0)
}

func (c *Client) invoke(ctx context.Context, op Operation, renewals int) (json.RawMessage, error) {
	c.mu.Lock()
	if c.session.status != StatusLoggedIn {
		c.mu.Unlock()
		return nil, ErrNotAuthenticated
	}
	if c.nowFunc().After(c.session.renewAt) {
		c.mu.Unlock()
		if renewals >= maxRenewals {
			return nil, fmt.Errorf("datalayer.Invoke: %w", ErrRenewalLoop)
		}
		if _, err := c.Login(ctx); err != nil {
			return nil, err
		}
		return c.invoke(ctx, op, renewals+1)
	}
	auth := c.session.authorization()
	timeout := c.timeout
	reconnect := c.autoReconnect
	c.mu.Unlock()

	result, err := op(ctx, auth, timeout)
	if err == nil {
		return result, nil
	}

	var pb *problem.Problem
	if !reconnect || !errors.As(err, &pb) || !pb.AuthFailure() {
		return nil, err
	}

	// One transparent re-login, one retry. A failed re-login supersedes
	// the original authorization failure.
	if _, lerr := c.Login(ctx); lerr != nil {
		return nil, lerr
	}
	c.mu.Lock()
	auth = c.session.authorization()
	timeout = c.timeout
	c.mu.Unlock()

	result, err = op(ctx, auth, timeout)
	c.reassertLoggedIn()
	return result, err
}

// reassertLoggedIn guards against state drift introduced by the nested
// login while the retried operation was in flight. The status is only
// restored when the token material is still intact.
func (c *Client) reassertLoggedIn() {
	c.mu.Lock()
	if c.session.token != "" && c.session.scheme != "" {
		c.session.status = StatusLoggedIn
	}
	c.mu.Unlock()
}

// Read reads the value of a data-layer node.
func (c *Client) Read(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Invoke(ctx, func(ctx context.Context, auth Authorization, timeout time.Duration) (json.RawMessage, error) {
		return c.data.Read(ctx, c.host, auth, path, KindData, timeout)
	})
}

// ReadMetadata reads the metadata of a data-layer node.
func (c *Client) ReadMetadata(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Invoke(ctx, func(ctx context.Context, auth Authorization, timeout time.Duration) (json.RawMessage, error) {
		return c.data.Read(ctx, c.host, auth, path, KindMetadata, timeout)
	})
}

// Browse lists the children of a data-layer node. An empty path browses
// the root.
func (c *Client) Browse(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Invoke(ctx, func(ctx context.Context, auth Authorization, timeout time.Duration) (json.RawMessage, error) {
		return c.data.Read(ctx, c.host, auth, path, KindBrowse, timeout)
	})
}

// Write writes a value to a data-layer node.
func (c *Client) Write(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error) {
	return c.Invoke(ctx, func(ctx context.Context, auth Authorization, timeout time.Duration) (json.RawMessage, error) {
		return c.data.Write(ctx, c.host, auth, path, payload, timeout)
	})
}

// Create creates a data-layer node.
func (c *Client) Create(ctx context.Context, path string, payload json.RawMessage) (json.RawMessage, error) {
	return c.Invoke(ctx, func(ctx context.Context, auth Authorization, timeout time.Duration) (json.RawMessage, error) {
		return c.data.Create(ctx, c.host, auth, path, payload, timeout)
	})
}

// Delete deletes a data-layer node.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.Invoke(ctx, func(ctx context.Context, auth Authorization, timeout time.Duration) (json.RawMessage, error) {
		return c.data.Delete(ctx, c.host, auth, path, timeout)
	})
	return err
}
