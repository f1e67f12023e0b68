package identity

import (
	"net/http"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return tok
}

func TestFromHeader(t *testing.T) {
	h := http.Header{}
	_, err := FromHeader(h)
	assert.ErrorIs(t, err, ErrMissingIdentity)
	assert.Equal(t, http.StatusBadRequest, StatusForMode(ModeHeader, err))

	h.Set(HeaderUserID, "  u1 ")
	id, err := FromHeader(h)
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
}

func TestFromBearerDecodesSubWithoutVerifying(t *testing.T) {
	h := http.Header{}
	tok := signedToken(t, jwt.MapClaims{"sub": "kc-123", "email": "a@example.com"})
	h.Set(HeaderAuthorization, "Bearer "+tok)

	id, raw, err := FromBearer(h)
	require.NoError(t, err)
	assert.Equal(t, "kc-123", id.UserID)
	assert.Equal(t, tok, raw)
}

func TestFromBearerErrors(t *testing.T) {
	cases := []struct {
		name   string
		header string
		err    error
		status int
	}{
		{"missing", "", ErrMissingIdentity, http.StatusUnauthorized},
		{"no bearer prefix", "Token abc", ErrMalformedAuthorization, http.StatusBadRequest},
		{"empty token", "Bearer   ", ErrMalformedAuthorization, http.StatusBadRequest},
		{"garbage token", "Bearer not-a-jwt", ErrInvalidToken, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := http.Header{}
			if tc.header != "" {
				h.Set(HeaderAuthorization, tc.header)
			}
			_, _, err := FromBearer(h)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, tc.status, StatusForMode(ModeBearer, err))
		})
	}
}

func TestFromBearerRejectsTokenWithoutSub(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderAuthorization, "Bearer "+signedToken(t, jwt.MapClaims{"name": "nobody"}))
	_, _, err := FromBearer(h)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestFromPrincipal(t *testing.T) {
	_, err := FromPrincipal(nil)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = FromPrincipal(&Principal{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	id, err := FromPrincipal(&Principal{Subject: "sub-1"})
	require.NoError(t, err)
	assert.Equal(t, "sub-1", id.UserID)
}

func TestExtractorFor(t *testing.T) {
	h := http.Header{}
	h.Set(HeaderUserID, "header-user")
	h.Set(HeaderAuthorization, "Bearer "+signedToken(t, jwt.MapClaims{"sub": "token-user"}))

	id, err := ExtractorFor(ModeHeader)(h)
	require.NoError(t, err)
	assert.Equal(t, "header-user", id.UserID)

	id, err = ExtractorFor(ModeBearer)(h)
	require.NoError(t, err)
	assert.Equal(t, "token-user", id.UserID)
}

func TestPrincipalFromIDToken(t *testing.T) {
	tok := signedToken(t, jwt.MapClaims{
		"sub":                "kc-1",
		"preferred_username": "alice",
		"email":              "alice@example.com",
		"name":               "Alice",
	})
	p, err := PrincipalFromIDToken(tok, "access")
	require.NoError(t, err)
	assert.Equal(t, "kc-1", p.Subject)
	assert.Equal(t, "alice", p.PreferredUsername)
	assert.Equal(t, tok, p.IDToken)
	assert.Equal(t, "access", p.AccessToken)
}

func TestHasMalformedAuthorization(t *testing.T) {
	h := http.Header{}
	assert.False(t, HasMalformedAuthorization(h))
	h.Set(HeaderAuthorization, "Basic abc")
	assert.True(t, HasMalformedAuthorization(h))
	h.Set(HeaderAuthorization, "Bearer abc")
	assert.False(t, HasMalformedAuthorization(h))
}
