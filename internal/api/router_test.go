package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rrens/trip-planner/internal/api"
	"github.com/Rrens/trip-planner/internal/api/handler"
	"github.com/Rrens/trip-planner/internal/config"
	"github.com/Rrens/trip-planner/internal/generator"
	"github.com/Rrens/trip-planner/internal/repository/memory"
	"github.com/Rrens/trip-planner/internal/security"
	"github.com/Rrens/trip-planner/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (f *fakeLimiter) Allow(ctx context.Context, key string) (bool, int, time.Time, error) {
	f.keys = append(f.keys, key)
	return f.allowed, 0, time.Now().Add(time.Minute), f.err
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	handler http.Handler
	jwt     *security.JWTManager
}

func newTestServer(t *testing.T, limiter *fakeLimiter, ready map[string]handler.Pinger) *testServer {
	t.Helper()

	jwtManager := security.NewJWTManager("test-secret", time.Minute, time.Hour)
	deps := api.Dependencies{
		Config:     &config.Config{},
		JWTManager: jwtManager,
		Auth:       service.NewAuthService(memory.NewUserRepository(), memory.NewRevocations(), jwtManager),
		Planner:    service.NewPlannerService(memory.NewItineraryRepository(), generator.NewRouter("local"), nil, 0),
		Ready:      ready,
	}
	if limiter != nil {
		deps.Limiter = limiter
	}
	return &testServer{handler: api.NewRouter(deps), jwt: jwtManager}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(t *testing.T) (access, refresh string) {
	t.Helper()

	rec := s.do(t, http.MethodPost, "/api/accounts/register/", "", map[string]string{
		"email": "ana@example.com", "password": "correct-horse", "full_name": "Ana",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/accounts/login/", "", map[string]string{
		"email": "ana@example.com", "password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tokens map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	return tokens["access"], tokens["refresh"]
}

var preferences = map[string]any{
	"start":       nil,
	"destination": "Paris",
	"Days":        3,
	"budget":      "standard",
	"travelWith":  "solo",
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestReadyCheck(t *testing.T) {
	s := newTestServer(t, nil, map[string]handler.Pinger{
		"database": pingFunc(func(ctx context.Context) error { return errors.New("down") }),
	})

	rec := s.do(t, http.MethodGet, "/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"detail":"database not ready"}`, rec.Body.String())
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodPost, "/api/accounts/register/", "", map[string]string{"email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.login(t)

	rec := s.do(t, http.MethodPost, "/api/accounts/register/", "", map[string]string{
		"email": "ana@example.com", "password": "another-pass",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestLoginWrongPassword(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.login(t)

	rec := s.do(t, http.MethodPost, "/api/accounts/login/", "", map[string]string{
		"email": "ana@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "detail")
}

func TestGenerateAnonymous(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodPost, "/api/planner/generate/", "", map[string]any{"preferences": preferences})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
		Itinerary struct {
			Meta    map[string]any   `json:"meta"`
			DayPlan []map[string]any `json:"day_plan"`
		} `json:"itinerary"`
		EmailSent bool `json:"email_sent"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Paris", body.Itinerary.Meta["destination"])
	assert.Len(t, body.Itinerary.DayPlan, 3)
	assert.False(t, body.EmailSent)
}

func TestGenerateRejectsInvalidToken(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodPost, "/api/planner/generate/", "not-a-jwt", map[string]any{"preferences": preferences})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGenerateMissingDays(t *testing.T) {
	s := newTestServer(t, nil, nil)

	prefs := map[string]any{"destination": "Paris", "budget": "standard", "travelWith": "solo"}
	rec := s.do(t, http.MethodPost, "/api/planner/generate/", "", map[string]any{"preferences": prefs})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Days")
}

func TestGenerateRateLimited(t *testing.T) {
	limiter := &fakeLimiter{allowed: false}
	s := newTestServer(t, limiter, nil)

	rec := s.do(t, http.MethodPost, "/api/planner/generate/", "", map[string]any{"preferences": preferences})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Len(t, limiter.keys, 1)
	assert.Contains(t, limiter.keys[0], "ip:")
}

func TestGenerateLimiterFailsOpen(t *testing.T) {
	limiter := &fakeLimiter{err: errors.New("redis down")}
	s := newTestServer(t, limiter, nil)
	access, _ := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/planner/generate/", access, map[string]any{"preferences": preferences})
	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, limiter.keys, 1)
	assert.Contains(t, limiter.keys[0], "user:")
}

func TestPlannerLifecycle(t *testing.T) {
	s := newTestServer(t, nil, nil)
	access, _ := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/planner/save/", "", map[string]any{
		"preferences": preferences, "itinerary": map[string]any{"meta": map[string]any{}},
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/planner/save/", access, map[string]any{
		"preferences": preferences, "itinerary": map[string]any{"meta": map[string]any{"destination": "Paris"}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var saved struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &saved))
	assert.Equal(t, "SAVED", saved.Status)

	approve := map[string]any{"itinerary_id": saved.ID, "new_status": "APPROVED"}
	rec = s.do(t, http.MethodPost, "/api/planner/approve/", access, approve)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"status":"APPROVED"}`, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/api/planner/approve/", access, approve)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/planner/history/", access, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
	require.Len(t, history, 1)
	assert.Equal(t, "APPROVED", history[0]["status"])

	rec = s.do(t, http.MethodDelete, "/api/planner/history/1/", access, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodDelete, "/api/planner/history/1/", access, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/planner/history/", access, nil)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRefreshAndLogout(t *testing.T) {
	s := newTestServer(t, nil, nil)
	_, refresh := s.login(t)

	rec := s.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": refresh})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var tokens map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tokens))
	assert.NotEmpty(t, tokens["access"])
	require.NotEmpty(t, tokens["refresh"])

	rec = s.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": refresh})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/accounts/logout/", "", map[string]string{"refresh": tokens["refresh"]})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/token/refresh/", "", map[string]string{"refresh": tokens["refresh"]})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
