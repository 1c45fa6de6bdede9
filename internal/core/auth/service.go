package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixelprint/storefront/config"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrMissingToken = errors.New("missing token")
)

// Verifier turns bearer tokens into sessions. With a secret configured it
// checks the HS256 signature, expiry and issuer; without one the identity
// provider is trusted and the token is only decoded.
type Verifier struct {
	secret []byte
	issuer string
}

func NewVerifier(cfg config.AuthConfig) *Verifier {
	return &Verifier{
		secret: []byte(cfg.JWTSecret),
		issuer: cfg.Issuer,
	}
}

func (v *Verifier) Verifies() bool {
	return len(v.secret) > 0
}

func (v *Verifier) Verify(tokenString string) (Session, error) {
	if tokenString == "" {
		return Session{}, ErrMissingToken
	}

	if !v.Verifies() {
		return v.passthrough(tokenString), nil
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, opts...)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return Session{}, ErrUnauthorized
	}

	return Session{UserID: claims.Subject, Email: claims.Email, Token: tokenString, Verified: true}, nil
}

// passthrough accepts any token. The subject is decoded for forwarding but the
// session is never Verified, so it cannot reach routes scoped to local data.
// Opaque (non-JWT) tokens yield a session without a user id.
func (v *Verifier) passthrough(tokenString string) Session {
	session := Session{Token: tokenString}
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err == nil {
		session.UserID = claims.Subject
		session.Email = claims.Email
	}
	return session
}

// Issue signs a token for userID. It is used by local tooling and tests; in
// production tokens come from the identity provider.
func (v *Verifier) Issue(userID, email string, ttl time.Duration) (string, error) {
	if !v.Verifies() {
		return "", errors.New("no signing secret configured")
	}

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    v.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
