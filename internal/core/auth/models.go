package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// Session is the caller identity as seen by the storefront. Token is the raw
// bearer token from the identity provider and is forwarded verbatim to every
// downstream collaborator; an empty token means the request is anonymous.
//
// Verified is set only when the token signature was checked locally. An
// unverified user id may be forwarded to collaborators, which check the
// token themselves, but must not scope anything the storefront owns.
type Session struct {
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"-"`
	Verified bool   `json:"-"`
}

func Anonymous() Session {
	return Session{}
}

// Authenticated reports whether the caller claims a user id.
func (s Session) Authenticated() bool {
	return s.UserID != ""
}

// Trusted reports whether the user id was verified locally.
func (s Session) Trusted() bool {
	return s.Verified && s.UserID != ""
}

// Owner is the id local resources are scoped to, empty unless trusted.
func (s Session) Owner() string {
	if !s.Trusted() {
		return ""
	}
	return s.UserID
}

type Claims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
