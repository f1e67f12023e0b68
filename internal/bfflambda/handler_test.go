package bfflambda

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"training-app/internal/session"
	"training-app/internal/shared/auth"
	"training-app/internal/shared/telemetry"
)

const testSecret = "test-secret"

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type captured struct {
	method  string
	path    string
	query   string
	headers http.Header
	body    string
}

func newTestHandler(t *testing.T, target string, downstream http.Handler) (*Handler, *captured) {
	t.Helper()
	telemetry.SetOutput(io.Discard)
	t.Cleanup(func() { telemetry.SetOutput(os.Stdout) })

	got := &captured{}
	if downstream == nil {
		downstream = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, _ := io.ReadAll(r.Body)
			got.method = r.Method
			got.path = r.URL.Path
			got.query = r.URL.RawQuery
			got.headers = r.Header.Clone()
			got.body = string(raw)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = io.WriteString(w, `{"id":7}`)
		})
	}
	srv := httptest.NewServer(downstream)
	t.Cleanup(srv.Close)

	mr := miniredis.RunT(t)
	client, err := session.NewRedisClient(context.Background(), session.RedisOptions{Addr: mr.Addr()})
	require.NoError(t, err)
	store := session.NewRedisStore(client)
	t.Cleanup(func() { _ = store.Close() })

	cfg := Config{
		BackendURL:    srv.URL,
		GatewayURL:    srv.URL,
		ForwardTarget: target,
		JWTSecret:     testSecret,
		Environment:   "test-fn",
	}
	h := NewHandler(cfg, session.NewManager(store, time.Minute, nil), NewForwarder(cfg, time.Second, nil))
	h.Now = func() time.Time { return fixedNow }
	return h, got
}

func call(t *testing.T, h *Handler, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, map[string]any) {
	t.Helper()
	resp, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	var body map[string]any
	if resp.Body != "" {
		require.NoError(t, json.Unmarshal([]byte(resp.Body), &body))
	}
	return resp, body
}

func login(t *testing.T, h *Handler, user string) string {
	t.Helper()
	resp, body := call(t, h, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/api/auth/mock-login",
		QueryStringParameters: map[string]string{"userId": user},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sid, _ := body["sessionId"].(string)
	require.NotEmpty(t, sid)
	return sid
}

func TestHealthReportsConfiguration(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	resp, body := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/health"})

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "bff-lambda", body["service"])
	assert.Equal(t, float64(fixedNow.UnixMilli()), body["timestamp"])
	assert.Equal(t, "test-fn", body["environment"])
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
}

func TestOptionsAlwaysOK(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions, Path: "/api/proxy/trainings"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", resp.Headers["Access-Control-Allow-Methods"])
}

func TestMockLoginSetsCookieAndStatus(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	resp, body := call(t, h, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/api/auth/mock-login",
		QueryStringParameters: map[string]string{"userId": "u1"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sid := body["sessionId"].(string)
	assert.Equal(t, session.NewID(fixedNow), sid)
	assert.Equal(t, true, body["success"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "u1", user["userId"])
	assert.Equal(t, "u1@example.com", user["email"])
	assert.Equal(t, "JSESSIONID="+sid+"; Path=/; HttpOnly; SameSite=Lax", resp.Headers["Set-Cookie"])

	_, status := call(t, h, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/auth/status",
		Headers:    map[string]string{"cookie": "JSESSIONID=" + sid},
	})
	assert.Equal(t, true, status["authenticated"])
	assert.Equal(t, "u1", status["user"].(map[string]any)["username"])
}

func TestMockLoginReusesExistingSession(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	_, body := call(t, h, events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/api/auth/mock-login",
		Headers:               map[string]string{"X-Session-ID": "existing"},
		QueryStringParameters: map[string]string{"userId": "u2"},
	})
	assert.Equal(t, "existing", body["sessionId"])
}

func TestMockLoginRequiresUserUnlessDefault(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	resp, _ := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/api/auth/mock-login"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	h.Config.DefaultUser = "fallback"
	resp, body := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/api/auth/mock-login"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fallback", body["user"].(map[string]any)["userId"])
}

func TestStatusWithoutSession(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	resp, body := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/auth/status"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"authenticated": false}, body)
}

func TestLogoutEndsSession(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	sid := login(t, h, "u1")
	headers := map[string]string{"X-Session-ID": sid}

	resp, body := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Path: "/api/auth/logout", Headers: headers})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out", body["message"])

	_, status := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/auth/status", Headers: headers})
	assert.Equal(t, false, status["authenticated"])
}

func TestUnknownRoutes(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)

	resp, body := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/auth/nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Auth endpoint not found", body["error"])

	resp, body = call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/elsewhere"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Not found", body["error"])
	assert.Equal(t, "/api/proxy/*", body["availableEndpoints"].(map[string]any)["proxy"])
}

func TestProxyRequiresSession(t *testing.T) {
	h, got := newTestHandler(t, "gateway", nil)

	resp, body := call(t, h, events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet, Path: "/api/proxy/trainings"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Session required", body["error"])

	resp, body = call(t, h, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/proxy/trainings",
		Headers:    map[string]string{"X-Session-ID": "unknown"},
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication required", body["error"])
	assert.Empty(t, got.method)
}

func TestProxyToGatewaySendsMockBearer(t *testing.T) {
	h, got := newTestHandler(t, "gateway", nil)
	sid := login(t, h, "u1")

	resp, err := h.Handle(context.Background(), events.APIGatewayProxyRequest{
		HTTPMethod:            http.MethodPost,
		Path:                  "/api/proxy/trainings",
		Headers:               map[string]string{"Cookie": "JSESSIONID=" + sid},
		QueryStringParameters: map[string]string{"type": "Cardio"},
		Body:                  `{"title":"Run"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"id":7}`, resp.Body)
	assert.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])

	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/api/trainings", got.path)
	assert.Equal(t, "type=Cardio", got.query)
	assert.Equal(t, `{"title":"Run"}`, got.body)
	assert.Equal(t, "u1", got.headers.Get("X-User-ID"))
	assert.Equal(t, "u1", got.headers.Get("X-Username"))

	bearer := strings.TrimPrefix(got.headers.Get("Authorization"), "Bearer ")
	claims, err := auth.VerifyJWT(testSecret, bearer)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, "Test User u1", claims.Name)
}

func TestProxyToBackendSendsUserHeadersOnly(t *testing.T) {
	h, got := newTestHandler(t, "backend", nil)
	sid := login(t, h, "u9")

	resp, _ := call(t, h, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/proxy/training-plans/3",
		Headers:    map[string]string{"X-Session-ID": sid},
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "/api/training-plans/3", got.path)
	assert.Equal(t, []string{"u9"}, got.headers.Values("X-User-ID"))
	assert.Equal(t, "u9", got.headers.Get("X-Username"))
	assert.Empty(t, got.headers.Get("Authorization"))
}

func TestProxyTransportFailure(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	sid := login(t, h, "u1")
	h.Forward.BaseURL = "http://127.0.0.1:1"

	resp, body := call(t, h, events.APIGatewayProxyRequest{
		HTTPMethod: http.MethodGet,
		Path:       "/api/proxy/trainings",
		Headers:    map[string]string{"X-Session-ID": sid},
	})
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Proxy request failed", body["error"])
	assert.Equal(t, "http://127.0.0.1:1/api/trainings", body["targetUrl"])
	assert.NotEmpty(t, body["message"])
}

func TestLocalHandlerRoundTrip(t *testing.T) {
	h, _ := newTestHandler(t, "gateway", nil)
	srv := httptest.NewServer(LocalHandler(h))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/auth/mock-login?userId=local", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "JSESSIONID=")
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
