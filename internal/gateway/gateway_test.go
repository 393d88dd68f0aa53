package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Rrens/trip-planner/internal/credstore"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/Rrens/trip-planner/internal/gateway"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is a scripted planner server. Protected requests succeed only with
// the currently valid access token.
type backend struct {
	mu           sync.Mutex
	validAccess  string
	validRefresh string
	nextAccess   string
	nextRefresh  string
	refreshDelay time.Duration
	rejectAll    bool

	refreshCalls atomic.Int32
	historyCalls atomic.Int32
	authHeaders  []string
	requestIDs   []string
	bodies       []string
}

func (b *backend) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/token/refresh/", func(w http.ResponseWriter, r *http.Request) {
		b.refreshCalls.Add(1)
		if b.refreshDelay > 0 {
			time.Sleep(b.refreshDelay)
		}
		var req domain.RefreshRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		b.mu.Lock()
		defer b.mu.Unlock()
		if req.Refresh == "" || req.Refresh != b.validRefresh {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired"}`))
			return
		}
		b.validAccess = b.nextAccess
		resp := domain.RefreshResponse{Access: b.nextAccess}
		if b.nextRefresh != "" {
			b.validRefresh = b.nextRefresh
			resp.Refresh = b.nextRefresh
		}
		_ = json.NewEncoder(w).Encode(resp)
	})
	mux.HandleFunc("/api/planner/history/", func(w http.ResponseWriter, r *http.Request) {
		b.historyCalls.Add(1)
		body, _ := io.ReadAll(r.Body)

		b.mu.Lock()
		b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))
		b.requestIDs = append(b.requestIDs, r.Header.Get("X-Request-ID"))
		b.bodies = append(b.bodies, string(body))
		ok := !b.rejectAll && r.Header.Get("Authorization") == "Bearer "+b.validAccess
		b.mu.Unlock()

		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Given token not valid for any token type"}`))
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})
	return mux
}

func setup(t *testing.T, b *backend, creds domain.Credentials) (*gateway.Gateway, *credstore.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(b.handler())
	t.Cleanup(srv.Close)

	store := credstore.NewMemoryStore()
	require.NoError(t, store.Save(context.Background(), creds))

	return gateway.New(srv.URL, store, gateway.WithLogger(zerolog.Nop())), store
}

var history = gateway.Request{Method: http.MethodGet, Path: "/api/planner/history/", Auth: gateway.AuthRequired}

func TestGateway_AttachesAccessToken(t *testing.T) {
	b := &backend{validAccess: "a1"}
	gw, _ := setup(t, b, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	resp, err := gw.Call(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Bearer a1"}, b.authHeaders)
	assert.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestGateway_AnonymousFailsFastWhenAuthRequired(t *testing.T) {
	b := &backend{}
	gw, _ := setup(t, b, domain.Credentials{})

	_, err := gw.Call(context.Background(), history)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, int32(0), b.historyCalls.Load())
}

func TestGateway_AnonymousOptionalSendsNoHeader(t *testing.T) {
	b := &backend{validAccess: "a1"}
	gw, _ := setup(t, b, domain.Credentials{})

	req := history
	req.Auth = gateway.AuthOptional
	_, err := gw.Call(context.Background(), req)

	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, []string{""}, b.authHeaders)
	assert.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestGateway_AuthNoneNeverAttachesToken(t *testing.T) {
	b := &backend{validAccess: "a1"}
	gw, _ := setup(t, b, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	req := history
	req.Auth = gateway.AuthNone
	_, err := gw.Call(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, &domain.Error{Kind: domain.KindServerRejected, Code: http.StatusUnauthorized})
	assert.Equal(t, []string{""}, b.authHeaders)
	assert.Equal(t, int32(0), b.refreshCalls.Load())
}

func TestGateway_RefreshesOnceAndRetries(t *testing.T) {
	b := &backend{validAccess: "a2", validRefresh: "r1", nextAccess: "a2"}
	gw, store := setup(t, b, domain.Credentials{
		AccessToken:  "a1",
		RefreshToken: "r1",
		Profile:      domain.Profile{Email: "ada@example.com"},
	})

	resp, err := gw.Call(context.Background(), history)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, []string{"Bearer a1", "Bearer a2"}, b.authHeaders)
	require.Len(t, b.requestIDs, 2)
	assert.NotEmpty(t, b.requestIDs[0])
	assert.Equal(t, b.requestIDs[0], b.requestIDs[1])

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a2", creds.AccessToken)
	assert.Equal(t, "r1", creds.RefreshToken)
	assert.Equal(t, "ada@example.com", creds.Profile.Email)
}

func TestGateway_StoresRotatedRefreshToken(t *testing.T) {
	b := &backend{validAccess: "a2", validRefresh: "r1", nextAccess: "a2", nextRefresh: "r2"}
	gw, store := setup(t, b, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	_, err := gw.Call(context.Background(), history)
	require.NoError(t, err)

	creds, _ := store.Load(context.Background())
	assert.Equal(t, "a2", creds.AccessToken)
	assert.Equal(t, "r2", creds.RefreshToken)
}

func TestGateway_RefreshFailureExpiresSession(t *testing.T) {
	b := &backend{validAccess: "a2", validRefresh: "other"}
	gw, store := setup(t, b, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	_, err := gw.Call(context.Background(), history)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.True(t, domain.NeedsReauth(err))
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(1), b.historyCalls.Load())

	creds, _ := store.Load(context.Background())
	assert.True(t, creds.Anonymous())
	assert.Empty(t, creds.RefreshToken)

	// subsequent calls fail locally
	_, err = gw.Call(context.Background(), history)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Equal(t, int32(1), b.historyCalls.Load())
}

func TestGateway_CancelledRefreshKeepsSession(t *testing.T) {
	b := &backend{validAccess: "a2", validRefresh: "r1", nextAccess: "a2", refreshDelay: 300 * time.Millisecond}
	gw, store := setup(t, b, domain.Credentials{AccessToken: "stale", RefreshToken: "r1"})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := gw.Call(ctx, history)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, domain.ErrSessionExpired)
	assert.False(t, domain.NeedsReauth(err))

	creds, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "stale", creds.AccessToken)
	assert.Equal(t, "r1", creds.RefreshToken)
}

// brokenStore fails every operation
type brokenStore struct{ err error }

func (s brokenStore) Load(context.Context) (domain.Credentials, error) {
	return domain.Credentials{}, s.err
}
func (s brokenStore) Save(context.Context, domain.Credentials) error     { return s.err }
func (s brokenStore) UpdateTokens(context.Context, string, string) error { return s.err }
func (s brokenStore) Clear(context.Context) error                        { return s.err }

func TestGateway_StoreFailureIsLocal(t *testing.T) {
	cause := errors.New("database is locked")
	gw := gateway.New("http://127.0.0.1:0", brokenStore{err: cause}, gateway.WithLogger(zerolog.Nop()))

	_, err := gw.Call(context.Background(), history)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCredentialStore)
	assert.ErrorIs(t, err, cause)
	assert.True(t, domain.IsLocalFailure(err))
	assert.False(t, domain.IsRetryable(err))
}

func TestGateway_SecondUnauthorizedDoesNotRefreshAgain(t *testing.T) {
	b := &backend{validRefresh: "r1", nextAccess: "a2", rejectAll: true}
	gw, store := setup(t, b, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	_, err := gw.Call(context.Background(), history)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, int32(1), b.refreshCalls.Load())
	assert.Equal(t, int32(2), b.historyCalls.Load())

	creds, _ := store.Load(context.Background())
	assert.True(t, creds.Anonymous())
}

func TestGateway_MissingRefreshTokenExpiresSession(t *testing.T) {
	b := &backend{validAccess: "a2"}
	gw, store := setup(t, b, domain.Credentials{AccessToken: "a1"})

	_, err := gw.Call(context.Background(), history)
	assert.ErrorIs(t, err, domain.ErrSessionExpired)
	assert.Equal(t, int32(0), b.refreshCalls.Load())

	creds, _ := store.Load(context.Background())
	assert.True(t, creds.Anonymous())
}

func TestGateway_ConcurrentFailuresShareOneRefresh(t *testing.T) {
	b := &backend{
		validAccess:  "a2",
		validRefresh: "r1",
		nextAccess:   "a2",
		refreshDelay: 20 * time.Millisecond,
	}
	gw, _ := setup(t, b, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := gw.Call(context.Background(), history)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, int32(1), b.refreshCalls.Load())
}

func TestGateway_ResendsBodyOnRetry(t *testing.T) {
	b := &backend{validAccess: "a2", validRefresh: "r1", nextAccess: "a2"}
	gw, _ := setup(t, b, domain.Credentials{AccessToken: "a1", RefreshToken: "r1"})

	req := history
	req.Method = http.MethodPost
	req.Body = map[string]string{"destination": "Lisbon"}

	_, err := gw.Call(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, b.bodies, 2)
	assert.JSONEq(t, `{"destination":"Lisbon"}`, b.bodies[0])
	assert.Equal(t, b.bodies[0], b.bodies[1])
}

func TestGateway_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    error
		message string
	}{
		{"bad request", http.StatusBadRequest, `{"detail":"Days must be positive"}`, domain.ErrServerRejected, "Days must be positive"},
		{"forbidden", http.StatusForbidden, `{"message":"not yours"}`, domain.ErrServerRejected, "not yours"},
		{"field errors", http.StatusBadRequest, `{"email":["already taken"]}`, domain.ErrServerRejected, "email: already taken"},
		{"plain text", http.StatusConflict, `conflict`, domain.ErrServerRejected, "conflict"},
		{"server fault", http.StatusInternalServerError, `{"detail":"boom"}`, domain.ErrServerFault, "boom"},
		{"bad gateway", http.StatusBadGateway, `<html>`, domain.ErrServerFault, "<html>"},
		{"redirect", http.StatusNotModified, ``, domain.ErrMalformedResponse, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			gw := gateway.New(srv.URL, credstore.NewMemoryStore(), gateway.WithLogger(zerolog.Nop()))
			_, err := gw.Call(context.Background(), gateway.Request{Method: http.MethodGet, Path: "/x"})

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, int32(1), calls.Load(), "must not retry")

			var derr *domain.Error
			require.ErrorAs(t, err, &derr)
			assert.Equal(t, tt.status, derr.Code)
			if tt.message != "" {
				assert.Equal(t, tt.message, derr.Message)
			}
		})
	}
}

func TestGateway_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := gateway.New(url, credstore.NewMemoryStore(), gateway.WithLogger(zerolog.Nop()))
	_, err := gw.Call(context.Background(), gateway.Request{Method: http.MethodGet, Path: "/health"})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
	assert.True(t, domain.IsRetryable(err))
}

func TestGateway_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	gw := gateway.New(srv.URL, credstore.NewMemoryStore(), gateway.WithLogger(zerolog.Nop()))
	_, err := gw.Call(ctx, gateway.Request{Method: http.MethodGet, Path: "/slow"})

	assert.ErrorIs(t, err, domain.ErrNetworkFailure)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestResponse_Decode(t *testing.T) {
	resp := &gateway.Response{StatusCode: http.StatusOK, Body: []byte(`{"status":`)}

	var out map[string]any
	err := resp.Decode(&out)
	assert.ErrorIs(t, err, domain.ErrMalformedResponse)

	resp.Body = []byte(`{"status":"SAVED"}`)
	require.NoError(t, resp.Decode(&out))
	assert.Equal(t, "SAVED", out["status"])
}
