package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"training-app/internal/identity"
	"training-app/internal/shared/metrics"
	"training-app/internal/shared/server/middleware"
	"training-app/internal/shared/telemetry"
)

func newTestRouter(t *testing.T) *httptest.Server {
	t.Helper()
	telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	r := NewRouter(RouterOptions{Service: "test", Metrics: metrics.NewCollector("test")})
	RegisterMeRoutes(r.Group("/api"), middleware.Identity(identity.ModeHeader))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestHealth(t *testing.T) {
	srv := newTestRouter(t)
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" || body["service"] != "test" {
		t.Fatalf("unexpected body %v", body)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestMetricsExposeRequests(t *testing.T) {
	srv := newTestRouter(t)
	if _, err := http.Get(srv.URL + "/health"); err != nil {
		t.Fatalf("get: %v", err)
	}
	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(raw), "training_http_requests_total") {
		t.Fatalf("expected request counter in metrics output")
	}
}

func TestMeEchoesIdentity(t *testing.T) {
	srv := newTestRouter(t)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/me", nil)
	req.Header.Set("X-User-ID", "u1")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]string
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != http.StatusOK || body["userId"] != "u1" {
		t.Fatalf("expected u1, got %d %v", resp.StatusCode, body)
	}

	resp2, err := http.Get(srv.URL + "/api/me")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without identity, got %d", resp2.StatusCode)
	}
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestRouter(t)
	resp, err := http.Get(srv.URL + "/nope")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", ":9000": ":9000", "8081": ":8081"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
