package bff

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"training-app/internal/identity"
)

var (
	ErrOIDCNotConfigured = errors.New("oidc client not configured")
	ErrInvalidState      = errors.New("invalid or expired state")
)

// OIDCConfig locates a Keycloak realm and the BFF's client registration.
type OIDCConfig struct {
	BaseURL      string
	Realm        string
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// OIDC runs the authorization code flow against Keycloak.
type OIDC struct {
	oauthConfig *oauth2.Config
	stateTTL    time.Duration
	states      *stateStore
}

// NewOIDC builds an OIDC client for cfg.
func NewOIDC(cfg OIDCConfig) *OIDC {
	return &OIDC{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "profile", "email"},
			Endpoint:     KeycloakEndpoint(cfg.BaseURL, cfg.Realm),
		},
		stateTTL: 5 * time.Minute,
		states:   newStateStore(),
	}
}

// KeycloakEndpoint derives the realm's auth and token endpoints.
func KeycloakEndpoint(baseURL, realm string) oauth2.Endpoint {
	prefix := realmPrefix(baseURL, realm)
	return oauth2.Endpoint{
		AuthURL:   prefix + "/protocol/openid-connect/auth",
		TokenURL:  prefix + "/protocol/openid-connect/token",
		AuthStyle: oauth2.AuthStyleInParams,
	}
}

// LogoutURL builds the RP-initiated logout URL. The id token hint is omitted
// when idToken is empty.
func LogoutURL(baseURL, realm, idToken, postLogoutRedirect string) string {
	q := url.Values{}
	if idToken != "" {
		q.Set("id_token_hint", idToken)
	}
	q.Set("post_logout_redirect_uri", postLogoutRedirect)
	return realmPrefix(baseURL, realm) + "/protocol/openid-connect/logout?" + q.Encode()
}

func realmPrefix(baseURL, realm string) string {
	return strings.TrimRight(baseURL, "/") + "/realms/" + url.PathEscape(realm)
}

// Configured reports whether the client registration is usable.
func (o *OIDC) Configured() bool {
	return o != nil && o.oauthConfig.ClientID != "" && o.oauthConfig.RedirectURL != ""
}

// AuthCodeURL issues a fresh state and returns the IdP redirect target.
func (o *OIDC) AuthCodeURL() (string, error) {
	if !o.Configured() {
		return "", ErrOIDCNotConfigured
	}
	state := uuid.NewString()
	o.states.put(state, time.Now().Add(o.stateTTL))
	return o.oauthConfig.AuthCodeURL(state), nil
}

// Exchange validates state, redeems code and decodes the id token.
func (o *OIDC) Exchange(ctx context.Context, state, code string) (*identity.Principal, error) {
	if !o.Configured() {
		return nil, ErrOIDCNotConfigured
	}
	if state == "" || code == "" {
		return nil, ErrInvalidState
	}
	if !o.states.consume(state) {
		return nil, ErrInvalidState
	}

	token, err := o.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange code: %w", err)
	}
	idToken, _ := token.Extra("id_token").(string)
	if idToken == "" {
		return nil, fmt.Errorf("token response without id_token: %w", identity.ErrInvalidToken)
	}
	return identity.PrincipalFromIDToken(idToken, token.AccessToken)
}

type stateStore struct {
	items map[string]time.Time
	mu    sync.Mutex
}

func newStateStore() *stateStore {
	return &stateStore{items: make(map[string]time.Time)}
}

func (s *stateStore) put(state string, exp time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for k, v := range s.items {
		if now.After(v) {
			delete(s.items, k)
		}
	}
	s.items[state] = exp
}

func (s *stateStore) consume(state string) bool {
	s.mu.Lock()
	exp, ok := s.items[state]
	if ok {
		delete(s.items, state)
	}
	s.mu.Unlock()
	return ok && !time.Now().After(exp)
}
