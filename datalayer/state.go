package datalayer

import (
	"time"

	"github.com/jrsteele09/go-ctrlx-datalayer/token"
)

// Status is the authentication state of a session. Exactly one status
// holds at any instant; transitions happen only through Client methods.
type Status int

const (
	StatusLoggedOut Status = iota
	StatusAuthenticating
	StatusLoggedIn
)

func (s Status) String() string {
	switch s {
	case StatusLoggedOut:
		return "logged-out"
	case StatusAuthenticating:
		return "authenticating"
	case StatusLoggedIn:
		return "logged-in"
	}
	return "unknown"
}

// Authorization is the credential snapshot attached to a single request.
// It is immutable for the duration of one operation, so concurrent
// operations never observe a half-replaced credential.
type Authorization struct {
	Scheme string // Authorization scheme label, e.g. "Bearer"
	Token  string // Opaque bearer credential
}

// sessionState holds the token material for one device connection.
// Token, scheme and claims are all present or all absent; they are only
// populated while status is StatusLoggedIn. All fields are guarded by
// the owning Client's mutex.
type sessionState struct {
	status  Status
	token   string
	scheme  string
	claims  *token.Claims
	renewAt time.Time
}

// reset clears all token material and returns the session to LoggedOut.
func (s *sessionState) reset() {
	s.status = StatusLoggedOut
	s.token = ""
	s.scheme = ""
	s.claims = nil
}

// setLoggedIn installs a freshly issued token and its renewal watermark.
func (s *sessionState) setLoggedIn(tok, scheme string, claims *token.Claims, renewAt time.Time) {
	s.status = StatusLoggedIn
	s.token = tok
	s.scheme = scheme
	s.claims = claims
	s.renewAt = renewAt
}

func (s *sessionState) authorization() Authorization {
	return Authorization{Scheme: s.scheme, Token: s.token}
}
