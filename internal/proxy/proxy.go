// Package proxy forwards JSON requests to a downstream service and relays the
// response unchanged.
package proxy

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"training-app/internal/identity"
	"training-app/internal/shared/metrics"
	"training-app/internal/shared/query"
	"training-app/internal/shared/telemetry"
)

// Scheme selects how the caller's identity is presented downstream.
type Scheme string

const (
	SchemeHeader      Scheme = "header"
	SchemeBearer      Scheme = "bearer"
	SchemePassthrough Scheme = "passthrough"
)

// Request is one call to forward.
type Request struct {
	Method    string
	Path      string
	RawQuery  string
	Body      []byte
	UserID    string
	Token     string
	RequestID string
	// Inbound holds the original headers, read by the passthrough scheme.
	Inbound http.Header
	// Extra headers are added as-is, e.g. X-Username.
	Extra http.Header
}

// Response is the downstream answer, relayed verbatim.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Forwarder sends requests to BaseURL.
type Forwarder struct {
	BaseURL string
	Scheme  Scheme
	Client  *http.Client
	// Target labels metrics and logs ("backend", "gateway").
	Target  string
	Metrics metrics.Recorder
}

// New builds a Forwarder with its own client. A timeout of zero or less keeps
// the client default of no overall timeout.
func New(target, baseURL string, scheme Scheme, timeout time.Duration, rec metrics.Recorder) *Forwarder {
	client := &http.Client{}
	if timeout > 0 {
		client.Timeout = timeout
	}
	return &Forwarder{
		BaseURL: baseURL,
		Scheme:  scheme,
		Client:  client,
		Target:  target,
		Metrics: rec,
	}
}

// Forward performs the downstream call. A non-nil error means no response
// was received.
func (f *Forwarder) Forward(ctx context.Context, req Request) (Response, error) {
	target := BuildURL(f.BaseURL, req.Path, req.RawQuery)

	var body io.Reader
	if HasBody(req.Method) {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		f.record(metrics.OutcomeError)
		return Response{}, err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.RequestID != "" {
		httpReq.Header.Set("X-Request-Id", req.RequestID)
	}
	f.applyIdentity(httpReq.Header, req)
	for key, values := range req.Extra {
		for _, v := range values {
			httpReq.Header.Add(key, v)
		}
	}

	resp, err := f.client().Do(httpReq)
	if err != nil {
		f.record(metrics.OutcomeError)
		telemetry.Error("proxy.forward.failed", map[string]any{
			"target":     f.Target,
			"url":        target,
			"method":     req.Method,
			"request_id": req.RequestID,
			"error":      err.Error(),
		})
		return Response{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		f.record(metrics.OutcomeError)
		return Response{}, fmt.Errorf("read downstream body: %w", err)
	}
	f.record(metrics.OutcomeOK)
	return Response{
		Status:      resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        payload,
	}, nil
}

func (f *Forwarder) applyIdentity(h http.Header, req Request) {
	switch f.Scheme {
	case SchemeBearer:
		if req.Token != "" {
			h.Set(identity.HeaderAuthorization, "Bearer "+req.Token)
		}
	case SchemePassthrough:
		if req.Inbound == nil {
			return
		}
		for _, key := range []string{identity.HeaderUserID, identity.HeaderAuthorization} {
			if v := req.Inbound.Get(key); v != "" {
				h.Set(key, v)
			}
		}
	default:
		if req.UserID != "" {
			h.Set(identity.HeaderUserID, req.UserID)
		}
	}
}

func (f *Forwarder) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

func (f *Forwarder) record(outcome string) {
	if f.Metrics != nil {
		f.Metrics.RecordForward(f.Target, outcome)
	}
}

// BuildURL joins base, path and an optional raw query.
func BuildURL(base, path, rawQuery string) string {
	base = strings.TrimRight(base, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := base + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// FilterQuery keeps only the list filter keys and re-encodes them.
func FilterQuery(values url.Values) string {
	kept := url.Values{}
	for _, key := range query.Keys {
		if v, ok := values[key]; ok {
			kept[key] = v
		}
	}
	return kept.Encode()
}

// HasBody reports whether method carries a request body downstream.
func HasBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// TransportErrorMessage is the error text returned when no response arrived.
func TransportErrorMessage(err error) string {
	return "proxy request failed: " + err.Error()
}
