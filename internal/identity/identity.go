// Package identity derives the caller's user id from request headers or an
// authenticated OIDC principal. Each extractor is a pure function; which one
// runs is decided by configuration.
package identity

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const (
	HeaderUserID        = "X-User-ID"
	HeaderAuthorization = "Authorization"

	bearerPrefix = "Bearer "
)

// Mode names an extraction strategy.
type Mode string

const (
	ModeHeader Mode = "header"
	ModeBearer Mode = "bearer"
)

var (
	ErrMissingIdentity        = errors.New("missing identity")
	ErrMalformedAuthorization = errors.New("malformed authorization header")
	ErrInvalidToken           = errors.New("invalid token")
	ErrUnauthenticated        = errors.New("authentication required")
)

// Identity is the resolved user attached to a request.
type Identity struct {
	UserID string
}

// Principal is the subset of an OIDC login kept by the BFF.
type Principal struct {
	Subject           string
	PreferredUsername string
	Email             string
	Name              string
	IDToken           string
	AccessToken       string
}

// Extractor resolves an identity from request headers.
type Extractor func(h http.Header) (Identity, error)

// ExtractorFor returns the extractor configured for mode. Unknown modes fall
// back to header trust.
func ExtractorFor(mode Mode) Extractor {
	switch mode {
	case ModeBearer:
		return func(h http.Header) (Identity, error) {
			id, _, err := FromBearer(h)
			return id, err
		}
	default:
		return FromHeader
	}
}

// FromHeader trusts X-User-ID verbatim. Any caller can claim any user.
func FromHeader(h http.Header) (Identity, error) {
	userID := strings.TrimSpace(h.Get(HeaderUserID))
	if userID == "" {
		return Identity{}, ErrMissingIdentity
	}
	return Identity{UserID: userID}, nil
}

// FromBearer decodes the bearer JWT without verifying its signature and
// returns the sub claim along with the raw token.
func FromBearer(h http.Header) (Identity, string, error) {
	token, err := BearerToken(h)
	if err != nil {
		return Identity{}, "", err
	}
	sub, err := SubjectFromToken(token)
	if err != nil {
		return Identity{}, "", err
	}
	return Identity{UserID: sub}, token, nil
}

// FromPrincipal reads the sub attribute of an authenticated principal.
func FromPrincipal(p *Principal) (Identity, error) {
	if p == nil {
		return Identity{}, ErrUnauthenticated
	}
	sub := strings.TrimSpace(p.Subject)
	if sub == "" {
		return Identity{}, ErrUnauthenticated
	}
	return Identity{UserID: sub}, nil
}

// BearerToken returns the token part of the Authorization header.
func BearerToken(h http.Header) (string, error) {
	raw := strings.TrimSpace(h.Get(HeaderAuthorization))
	if raw == "" {
		return "", ErrMissingIdentity
	}
	if !strings.HasPrefix(raw, bearerPrefix) {
		return "", ErrMalformedAuthorization
	}
	token := strings.TrimSpace(strings.TrimPrefix(raw, bearerPrefix))
	if token == "" {
		return "", ErrMalformedAuthorization
	}
	return token, nil
}

// HasMalformedAuthorization reports whether an Authorization header is present
// but does not use the Bearer scheme.
func HasMalformedAuthorization(h http.Header) bool {
	if strings.TrimSpace(h.Get(HeaderAuthorization)) == "" {
		return false
	}
	_, err := BearerToken(h)
	return errors.Is(err, ErrMalformedAuthorization)
}

// SubjectFromToken decodes a JWT and returns its sub claim. The signature is
// not checked.
func SubjectFromToken(token string) (string, error) {
	claims, err := DecodeClaims(token)
	if err != nil {
		return "", err
	}
	sub, _ := claims["sub"].(string)
	sub = strings.TrimSpace(sub)
	if sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

// DecodeClaims parses a JWT payload without signature verification.
func DecodeClaims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// PrincipalFromIDToken builds a principal from the claims of an OIDC id token.
func PrincipalFromIDToken(idToken, accessToken string) (*Principal, error) {
	claims, err := DecodeClaims(idToken)
	if err != nil {
		return nil, err
	}
	p := &Principal{
		Subject:           stringClaim(claims, "sub"),
		PreferredUsername: stringClaim(claims, "preferred_username"),
		Email:             stringClaim(claims, "email"),
		Name:              stringClaim(claims, "name"),
		IDToken:           idToken,
		AccessToken:       accessToken,
	}
	if p.Subject == "" {
		return nil, ErrInvalidToken
	}
	return p, nil
}

// StatusFor maps extraction errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrMalformedAuthorization):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidToken), errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	default:
		return http.StatusBadRequest
	}
}

// StatusForMode refines StatusFor: a missing bearer token is an
// authentication failure while a missing trusted header is a bad request.
func StatusForMode(mode Mode, err error) int {
	if mode == ModeBearer && errors.Is(err, ErrMissingIdentity) {
		return http.StatusUnauthorized
	}
	return StatusFor(err)
}

func stringClaim(claims jwt.MapClaims, key string) string {
	if v, ok := claims[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
