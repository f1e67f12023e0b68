package session

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultCookieName = "JSESSIONID"
	HeaderSessionID   = "X-Session-ID"
)

// IDFromHeaders reads the session id from the named cookie, then from
// X-Session-ID.
func IDFromHeaders(h http.Header, cookieName string) string {
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	req := http.Request{Header: h}
	if c, err := req.Cookie(cookieName); err == nil && strings.TrimSpace(c.Value) != "" {
		return strings.TrimSpace(c.Value)
	}
	return strings.TrimSpace(h.Get(HeaderSessionID))
}

// NewID returns session-<unix millis>. Two logins in the same millisecond
// collide.
func NewID(now time.Time) string {
	return "session-" + strconv.FormatInt(now.UnixMilli(), 10)
}

// CookieHeader renders the Set-Cookie value for a session id.
func CookieHeader(name, id string) string {
	if name == "" {
		name = DefaultCookieName
	}
	return name + "=" + id + "; Path=/; HttpOnly; SameSite=Lax"
}

// ClearCookieHeader renders a Set-Cookie value that expires the cookie.
func ClearCookieHeader(name string) string {
	if name == "" {
		name = DefaultCookieName
	}
	return name + "=; Path=/; Max-Age=0; HttpOnly; SameSite=Lax"
}
