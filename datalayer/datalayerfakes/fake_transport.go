// Package datalayerfakes provides in-memory fakes of the datalayer
// transport collaborators for tests.
package datalayerfakes

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-ctrlx-datalayer/datalayer"
)

var _ datalayer.Transport = (*FakeTransport)(nil)

// FakeTransport fakes the identity-manager exchanges. Behavior can be
// overridden per test via AuthenticateFn and RevokeFn; by default every
// Authenticate issues a fresh one-hour bearer token.
type FakeTransport struct {
	AuthenticateFn func(ctx context.Context, host, username, password string, timeout time.Duration) (*datalayer.Credentials, error)
	RevokeFn       func(ctx context.Context, host string, auth datalayer.Authorization, timeout time.Duration) error

	lock        sync.Mutex
	authCalls   int
	revokeCalls int
	lastIssued  string
	lastRevoked datalayer.Authorization
}

func NewFakeTransport() *FakeTransport {
	return &FakeTransport{}
}

func (t *FakeTransport) Authenticate(ctx context.Context, host, username, password string, timeout time.Duration) (*datalayer.Credentials, error) {
	t.lock.Lock()
	t.authCalls++
	fn := t.AuthenticateFn
	t.lock.Unlock()

	if fn != nil {
		creds, err := fn(ctx, host, username, password, timeout)
		if creds != nil {
			t.lock.Lock()
			t.lastIssued = creds.AccessToken
			t.lock.Unlock()
		}
		return creds, err
	}

	tok := IssueToken(time.Now(), time.Hour)
	t.lock.Lock()
	t.lastIssued = tok
	t.lock.Unlock()
	return &datalayer.Credentials{AccessToken: tok, TokenType: "Bearer"}, nil
}

func (t *FakeTransport) RevokeToken(ctx context.Context, host string, auth datalayer.Authorization, timeout time.Duration) error {
	t.lock.Lock()
	t.revokeCalls++
	t.lastRevoked = auth
	fn := t.RevokeFn
	t.lock.Unlock()

	if fn != nil {
		return fn(ctx, host, auth, timeout)
	}
	return nil
}

// AuthCalls returns how many Authenticate exchanges were performed.
func (t *FakeTransport) AuthCalls() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.authCalls
}

// RevokeCalls returns how many RevokeToken exchanges were performed.
func (t *FakeTransport) RevokeCalls() int {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.revokeCalls
}

// LastIssued returns the most recently issued token.
func (t *FakeTransport) LastIssued() string {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.lastIssued
}

// LastRevoked returns the credential of the last revocation call.
func (t *FakeTransport) LastRevoked() datalayer.Authorization {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.lastRevoked
}

// IssueToken builds an unsigned compact JWT whose payload carries the
// given issue instant and lifetime, shaped like a ctrlX identity-manager
// token.
func IssueToken(issuedAt time.Time, lifetime time.Duration) string {
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, _ := json.Marshal(map[string]any{
		"id":    uuid.New().String(),
		"name":  "boschrexroth",
		"iat":   issuedAt.Unix(),
		"exp":   issuedAt.Add(lifetime).Unix(),
		"scope": []string{"rexroth-device.all.rwx"},
	})
	body := base64.RawURLEncoding.EncodeToString(payload)
	sig := base64.RawURLEncoding.EncodeToString([]byte("unsigned"))
	return header + "." + body + "." + sig
}
