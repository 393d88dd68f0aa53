package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Rrens/trip-planner/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("save failed: %w", domain.Rejected(400, "bad preferences"))

	assert.True(t, errors.Is(err, domain.ErrServerRejected))
	assert.True(t, errors.Is(err, &domain.Error{Kind: domain.KindServerRejected, Code: 400}))
	assert.False(t, errors.Is(err, &domain.Error{Kind: domain.KindServerRejected, Code: 409}))
	assert.False(t, errors.Is(err, domain.ErrServerFault))
	assert.Equal(t, domain.KindServerRejected, domain.KindOf(err))
}

func TestError_UnwrapKeepsCause(t *testing.T) {
	err := domain.NewError(domain.KindNetworkFailure, "request failed", context.Canceled)

	assert.True(t, errors.Is(err, context.Canceled))
	assert.True(t, errors.Is(err, domain.ErrNetworkFailure))
	assert.Contains(t, err.Error(), "network_failure")
	assert.Contains(t, err.Error(), "context canceled")
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
		reauth    bool
		local     bool
	}{
		{"network", domain.NewError(domain.KindNetworkFailure, "", nil), true, false, false},
		{"fault", domain.Fault(502, "bad gateway"), true, false, false},
		{"rejected", domain.Rejected(400, ""), false, false, false},
		{"expired", domain.NewError(domain.KindSessionExpired, "", nil), false, true, false},
		{"anonymous", domain.NewError(domain.KindUnauthenticated, "", nil), false, true, false},
		{"transition", domain.InvalidTransition("approve from %s", domain.StatusGenerated), false, false, false},
		{"store", domain.NewError(domain.KindCredentialStore, "failed to load credentials", errors.New("disk I/O error")), false, false, true},
		{"plain", errors.New("boom"), false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retryable, domain.IsRetryable(tt.err))
			assert.Equal(t, tt.reauth, domain.NeedsReauth(tt.err))
			assert.Equal(t, tt.local, domain.IsLocalFailure(tt.err))
		})
	}
}
