package planner

import (
	"context"
	"net/http"

	"github.com/Rrens/trip-planner/internal/gateway"
	"github.com/stretchr/testify/mock"
)

// MockCaller is a mock implementation of Caller
type MockCaller struct {
	mock.Mock
}

func (m *MockCaller) Call(ctx context.Context, req gateway.Request) (*gateway.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Response), args.Error(1)
}

func path(method, p string) any {
	return mock.MatchedBy(func(req gateway.Request) bool {
		return req.Method == method && req.Path == p
	})
}

func jsonResponse(body string) *gateway.Response {
	return &gateway.Response{StatusCode: http.StatusOK, Header: http.Header{}, Body: []byte(body)}
}
