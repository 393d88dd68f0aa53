// Package gateway is the single chokepoint for calls to the planner backend.
// It attaches the access credential and recovers from an expired one by
// refreshing it once and replaying the original request.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rrens/trip-planner/internal/credstore"
	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultRefreshPath is the token refresh endpoint of the backend
	DefaultRefreshPath = "/api/token/refresh/"

	// retryBudget is how many times one request may be replayed after a refresh
	retryBudget = 1

	maxBodyBytes = 10 << 20
)

// AuthMode tells the gateway how to treat the access credential for a call
type AuthMode int

const (
	// AuthOptional attaches the access token when one is stored
	AuthOptional AuthMode = iota
	// AuthRequired fails fast with Unauthenticated when no access token is stored
	AuthRequired
	// AuthNone never attaches a token (sign-in, registration, refresh)
	AuthNone
)

// Request describes one backend call
type Request struct {
	Method string
	Path   string
	Body   any
	Auth   AuthMode
}

// Response is a fully read backend response
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Decode unmarshals the JSON body into v
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return domain.NewError(domain.KindMalformedResponse, "failed to decode response body", err)
	}
	return nil
}

// Gateway wraps every outbound call to the backend
type Gateway struct {
	baseURL     string
	refreshPath string
	client      *http.Client
	store       credstore.Store
	logger      zerolog.Logger

	// refreshSem serializes refreshes; a buffered channel so waiting honours ctx
	refreshSem chan struct{}
}

// Option configures a Gateway
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gateway) {
		g.client = client
	}
}

// WithTimeout sets the per-attempt timeout of the default HTTP client
func WithTimeout(timeout time.Duration) Option {
	return func(g *Gateway) {
		g.client.Timeout = timeout
	}
}

// WithLogger sets the logger used for call tracing
func WithLogger(logger zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

// WithRefreshPath overrides the token refresh endpoint
func WithRefreshPath(path string) Option {
	return func(g *Gateway) {
		g.refreshPath = path
	}
}

// New creates a gateway for the backend at baseURL
func New(baseURL string, store credstore.Store, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:     strings.TrimRight(baseURL, "/"),
		refreshPath: DefaultRefreshPath,
		client:      &http.Client{Timeout: 120 * time.Second},
		store:       store,
		logger:      log.Logger,
		refreshSem:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Call sends req and returns the response of a 2xx reply. Any other outcome
// is returned as a *domain.Error.
func (g *Gateway) Call(ctx context.Context, req Request) (*Response, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, domain.NewError(domain.KindInvalidInput, "failed to encode request body", err)
	}

	token := ""
	if req.Auth != AuthNone {
		creds, err := g.store.Load(ctx)
		if err != nil {
			return nil, domain.NewError(domain.KindCredentialStore, "failed to load credentials", err)
		}
		token = creds.AccessToken
		if token == "" && req.Auth == AuthRequired {
			return nil, domain.NewError(domain.KindUnauthenticated, "sign in required", nil)
		}
	}

	return g.call(ctx, req, body, token, uuid.NewString(), retryBudget)
}

func (g *Gateway) call(ctx context.Context, req Request, body []byte, token, requestID string, retries int) (*Response, error) {
	resp, err := g.send(ctx, req.Method, req.Path, body, token, requestID)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || req.Auth == AuthNone {
		if err := classify(resp); err != nil {
			return nil, err
		}
		return resp, nil
	}

	if token == "" {
		return nil, domain.NewError(domain.KindUnauthenticated, serverMessage(resp), nil)
	}

	if retries <= 0 {
		g.logger.Warn().
			Str("request_id", requestID).
			Str("path", req.Path).
			Msg("Refreshed credential rejected, clearing session")
		g.expire(ctx)
		return nil, domain.NewError(domain.KindSessionExpired, "credential rejected after refresh", nil)
	}

	fresh, err := g.renew(ctx, token)
	if err != nil {
		return nil, err
	}

	return g.call(ctx, req, body, fresh, requestID, retries-1)
}

// renew returns a usable access token after stale was rejected. Concurrent
// callers holding the same stale token share one refresh call.
func (g *Gateway) renew(ctx context.Context, stale string) (string, error) {
	select {
	case g.refreshSem <- struct{}{}:
	case <-ctx.Done():
		return "", domain.NewError(domain.KindNetworkFailure, "waiting for token refresh", ctx.Err())
	}
	defer func() { <-g.refreshSem }()

	creds, err := g.store.Load(ctx)
	if err != nil {
		return "", domain.NewError(domain.KindCredentialStore, "failed to load credentials", err)
	}

	if creds.AccessToken != "" && creds.AccessToken != stale {
		return creds.AccessToken, nil
	}

	if creds.RefreshToken == "" {
		g.expire(ctx)
		return "", domain.NewError(domain.KindSessionExpired, "no refresh credential", nil)
	}

	g.logger.Info().Msg("Access token rejected, refreshing")

	tokens, err := g.refresh(ctx, creds.RefreshToken)
	if err != nil && ctx.Err() != nil {
		// the caller gave up; the refresh credential may still be good
		return "", domain.NewError(domain.KindNetworkFailure, "token refresh cancelled", ctx.Err())
	}
	if err != nil {
		g.logger.Warn().Err(err).Msg("Token refresh failed, clearing session")
		g.expire(ctx)
		return "", domain.NewError(domain.KindSessionExpired, "token refresh failed", err)
	}

	if err := g.store.UpdateTokens(ctx, tokens.Access, tokens.Refresh); err != nil {
		return "", domain.NewError(domain.KindCredentialStore, "failed to store refreshed token", err)
	}

	return tokens.Access, nil
}

func (g *Gateway) refresh(ctx context.Context, refreshToken string) (*domain.RefreshResponse, error) {
	body, err := json.Marshal(domain.RefreshRequest{Refresh: refreshToken})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal refresh request: %w", err)
	}

	resp, err := g.send(ctx, http.MethodPost, g.refreshPath, body, "", uuid.NewString())
	if err != nil {
		return nil, err
	}
	if err := classify(resp); err != nil {
		return nil, err
	}

	var tokens domain.RefreshResponse
	if err := resp.Decode(&tokens); err != nil {
		return nil, err
	}
	if tokens.Access == "" {
		return nil, domain.NewError(domain.KindMalformedResponse, "refresh response has no access token", nil)
	}

	return &tokens, nil
}

// expire wipes the credential store; it runs even when ctx is already done
func (g *Gateway) expire(ctx context.Context) {
	if err := g.store.Clear(context.WithoutCancel(ctx)); err != nil {
		g.logger.Error().Err(err).Msg("Failed to clear credentials")
	}
}

func (g *Gateway) send(ctx context.Context, method, path string, body []byte, token, requestID string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-Request-ID", requestID)
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := g.client.Do(httpReq)
	if err != nil {
		g.logger.Debug().
			Err(err).
			Str("request_id", requestID).
			Str("method", method).
			Str("path", path).
			Msg("Gateway call failed")
		return nil, domain.NewError(domain.KindNetworkFailure, method+" "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, domain.NewError(domain.KindNetworkFailure, "failed to read response", err)
	}

	g.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("Gateway call")

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
	}, nil
}

func encodeBody(body any) ([]byte, error) {
	if body == nil {
		return nil, nil
	}
	return json.Marshal(body)
}
