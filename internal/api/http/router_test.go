package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/complaint-service/internal/api/http"
	"github.com/spec-kit/complaint-service/internal/api/http/handlers"
	"github.com/spec-kit/complaint-service/internal/auth"
	"github.com/spec-kit/complaint-service/internal/config"
	"github.com/spec-kit/complaint-service/internal/domain"
	"github.com/spec-kit/complaint-service/internal/events"
	"github.com/spec-kit/complaint-service/internal/observability"
	"github.com/spec-kit/complaint-service/internal/ratelimit"
	"github.com/spec-kit/complaint-service/internal/repository"
	"github.com/spec-kit/complaint-service/internal/service"
	"github.com/spec-kit/complaint-service/internal/testutil"
)

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time { return c.now }

type testServer struct {
	app     *fiber.App
	users   repository.UserRepository
	codec   *auth.TokenCodec
	clock   *testClock
	metrics *observability.Metrics
}

func newTestServer(t *testing.T, limiter *ratelimit.IPLimiter) *testServer {
	t.Helper()
	return newTestServerWithApp(t, limiter, config.AppConfig{Name: "complaint-service"})
}

func newTestServerWithApp(t *testing.T, limiter *ratelimit.IPLimiter, appCfg config.AppConfig) *testServer {
	t.Helper()
	logger := zap.NewNop()
	clock := &testClock{now: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)}
	codec := auth.NewTokenCodec(testutil.TestSecret, auth.DefaultTokenTTL, auth.WithClock(clock.Now))
	users := testutil.NewUserRepository(t)
	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(config.AuthConfig{BcryptCost: 4}, service.AuthDependencies{
		UserRepo:   users,
		Tokens:     codec,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	userService := service.NewUserService(users, dispatcher, logger)

	app := httptransport.NewApp(appCfg, logger, metrics)
	httptransport.RegisterMiddlewares(app, logger, metrics, time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("complaint-service", "test", nil),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Users:          handlers.NewUsersHandler(userService),
		AuthMiddleware: auth.NewAuthMiddleware(codec, auth.NewUserLoader(users), logger),
		RateLimiter:    limiter,
	})

	return &testServer{app: app, users: users, codec: codec, clock: clock, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any, http.Header) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}
	return resp.StatusCode, decoded, resp.Header
}

func (s *testServer) doList(t *testing.T, path, token string) (int, []map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded []map[string]any
	if resp.StatusCode == http.StatusOK {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	}
	return resp.StatusCode, decoded
}

func (s *testServer) tokenFor(t *testing.T, user *domain.User) string {
	t.Helper()
	token, _, err := s.codec.Encode(user)
	require.NoError(t, err)
	return token
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body, _ := srv.do(t, http.MethodPost, "/register", "", fiber.Map{
		"email":    "jane@example.com",
		"password": "secret123",
		"phone":    "+359888000111",
	})
	require.Equal(t, http.StatusCreated, status, body)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	subject, err := srv.codec.Decode(token)
	require.NoError(t, err)
	user, err := srv.users.GetByID(context.Background(), subject)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleComplainer, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	status, body, _ = srv.do(t, http.MethodPost, "/register", "", fiber.Map{
		"email":    "jane@example.com",
		"password": "another1",
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already registered", body["detail"])

	status, body, _ = srv.do(t, http.MethodPost, "/login", "", fiber.Map{
		"email":    "jane@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body["token"])

	status, body, _ = srv.do(t, http.MethodPost, "/login", "", fiber.Map{
		"email":    "jane@example.com",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Wrong email or password", body["detail"])

	status, body, _ = srv.do(t, http.MethodPost, "/login", "", fiber.Map{
		"email":    "nobody@example.com",
		"password": "secret123",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Wrong email or password", body["detail"])
}

func TestRegister_Validation(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body, _ := srv.do(t, http.MethodPost, "/register", "", fiber.Map{
		"email":    "not-an-email",
		"password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	fields, ok := body["errors"].(map[string]any)
	require.True(t, ok, body)
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegister_PasswordLimitCountsBytes(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body, _ := srv.do(t, http.MethodPost, "/register", "", fiber.Map{
		"email":    "multi@example.com",
		"password": strings.Repeat("é", 40),
	})
	assert.Equal(t, http.StatusBadRequest, status)
	fields, ok := body["errors"].(map[string]any)
	require.True(t, ok, body)
	assert.Equal(t, "password must be at most 72 bytes", fields["password"])

	status, _, _ = srv.do(t, http.MethodPost, "/register", "", fiber.Map{
		"email":    "multi@example.com",
		"password": strings.Repeat("é", 36),
	})
	assert.Equal(t, http.StatusCreated, status)
}

func TestAuthFailures(t *testing.T) {
	srv := newTestServer(t, nil)
	testutil.SeedUser(t, srv.users, "admin@example.com", "secret", domain.RoleAdmin)
	complainer := testutil.SeedUser(t, srv.users, "c@example.com", "secret", domain.RoleComplainer)
	require.Equal(t, int64(2), complainer.ID)

	t.Run("missing credential", func(t *testing.T) {
		status, body, header := srv.do(t, http.MethodGet, "/users", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, map[string]any{"detail": "Not authenticated"}, body)
		assert.Equal(t, "Bearer", header.Get("WWW-Authenticate"))
	})

	t.Run("invalid token", func(t *testing.T) {
		status, body, _ := srv.do(t, http.MethodGet, "/users", "abc.def.ghi", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, map[string]any{"detail": "Invalid Token"}, body)
	})

	t.Run("complainer forbidden on admin route", func(t *testing.T) {
		status, body, _ := srv.do(t, http.MethodGet, "/users", srv.tokenFor(t, complainer), nil)
		assert.Equal(t, http.StatusForbidden, status)
		assert.Equal(t, map[string]any{"detail": "Forbidden"}, body)
	})

	t.Run("subject without user", func(t *testing.T) {
		ghost := srv.tokenFor(t, &domain.User{ID: 404, Role: domain.RoleAdmin})
		status, body, _ := srv.do(t, http.MethodGet, "/users", ghost, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, map[string]any{"detail": "Invalid Token"}, body)
	})

	t.Run("expired after 121 minutes", func(t *testing.T) {
		token := srv.tokenFor(t, complainer)
		srv.clock.now = srv.clock.now.Add(121 * time.Minute)
		defer func() { srv.clock.now = srv.clock.now.Add(-121 * time.Minute) }()

		status, body, _ := srv.do(t, http.MethodGet, "/users/me", token, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, map[string]any{"detail": "Token has expired"}, body)
	})

	t.Run("complainer sees self", func(t *testing.T) {
		status, body, _ := srv.do(t, http.MethodGet, "/users/me", srv.tokenFor(t, complainer), nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "c@example.com", body["email"])
		assert.Equal(t, "complainer", body["role"])
		assert.NotContains(t, body, "password_hash")
	})

	snap := srv.metrics.Snapshot()
	assert.Positive(t, snap.AuthRejections["INVALID_TOKEN"])
	assert.Positive(t, snap.AuthRejections["FORBIDDEN"])
}

func TestAdminEndpoints(t *testing.T) {
	srv := newTestServer(t, nil)
	admin := testutil.SeedUser(t, srv.users, "admin@example.com", "secret", domain.RoleAdmin)
	complainer := testutil.SeedUser(t, srv.users, "c@example.com", "secret", domain.RoleComplainer)
	adminToken := srv.tokenFor(t, admin)

	status, list := srv.doList(t, "/users", adminToken)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, list, 2)

	status, list = srv.doList(t, "/users?email=c@example.com", adminToken)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list, 1)
	assert.Equal(t, "c@example.com", list[0]["email"])

	status, body, _ := srv.do(t, http.MethodGet, "/user?email=c@example.com", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(complainer.ID), body["id"])

	status, body, _ = srv.do(t, http.MethodGet, "/user?email=ghost@example.com", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "user not found", body["detail"])

	status, _, _ = srv.do(t, http.MethodPut, "/users/2/make-approver", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, status)
	updated, err := srv.users.GetByID(context.Background(), complainer.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleApprover, updated.Role)

	status, _, _ = srv.do(t, http.MethodPut, "/users/2/make-admin", adminToken, nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _, _ = srv.do(t, http.MethodPut, "/users/999/make-admin", adminToken, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _, _ = srv.do(t, http.MethodPut, "/users/abc/make-admin", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, body, _ = srv.do(t, http.MethodGet, "/metrics", adminToken, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "requests")
}

func TestApproverCannotPromote(t *testing.T) {
	srv := newTestServer(t, nil)
	approver := testutil.SeedUser(t, srv.users, "approver@example.com", "secret", domain.RoleApprover)

	status, body, _ := srv.do(t, http.MethodPut, "/users/1/make-admin", srv.tokenFor(t, approver), nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Forbidden", body["detail"])

	reloaded, err := srv.users.GetByID(context.Background(), approver.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleApprover, reloaded.Role)
}

func TestRateLimitedLogin(t *testing.T) {
	srv := newTestServer(t, ratelimit.NewIPLimiter(0.001, 1))
	creds := fiber.Map{"email": "x@example.com", "password": "secret123"}

	status, _, _ := srv.do(t, http.MethodPost, "/login", "", creds)
	assert.Equal(t, http.StatusUnauthorized, status)

	status, body, _ := srv.do(t, http.MethodPost, "/login", "", creds)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, "Too many requests", body["detail"])
}

func TestRateLimit_ClientIPFromProxyHeader(t *testing.T) {
	login := func(srv *testServer, forwardedFor string) int {
		raw, err := json.Marshal(fiber.Map{"email": "x@example.com", "password": "secret123"})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(fiber.HeaderXForwardedFor, forwardedFor)
		resp, err := srv.app.Test(req, -1)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	t.Run("separate buckets per forwarded client", func(t *testing.T) {
		srv := newTestServerWithApp(t, ratelimit.NewIPLimiter(0.001, 1), config.AppConfig{
			ProxyHeader: fiber.HeaderXForwardedFor,
		})
		assert.Equal(t, http.StatusUnauthorized, login(srv, "203.0.113.1"))
		assert.Equal(t, http.StatusUnauthorized, login(srv, "203.0.113.2"))
		assert.Equal(t, http.StatusTooManyRequests, login(srv, "203.0.113.1"))
	})

	t.Run("header ignored from untrusted peer", func(t *testing.T) {
		srv := newTestServerWithApp(t, ratelimit.NewIPLimiter(0.001, 1), config.AppConfig{
			ProxyHeader:    fiber.HeaderXForwardedFor,
			TrustedProxies: []string{"10.0.0.1"},
		})
		assert.Equal(t, http.StatusUnauthorized, login(srv, "203.0.113.1"))
		assert.Equal(t, http.StatusTooManyRequests, login(srv, "203.0.113.2"))
	})
}

func TestHealthAndUnknownRoute(t *testing.T) {
	srv := newTestServer(t, nil)

	status, body, header := srv.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", body["status"])
	assert.NotEmpty(t, header.Get(observability.RequestIDHeader))

	status, body, _ = srv.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	status, body, _ = srv.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.NotEmpty(t, body["detail"])
}
