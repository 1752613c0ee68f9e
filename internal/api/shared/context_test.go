package shared

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mnemohq/mnemo-api/internal/domain"
)

func TestTraceIDRoundTrip(t *testing.T) {
	ctx := SetTraceID(context.Background())
	traceID := GetTraceID(ctx)
	assert.Len(t, traceID, TraceIDLength*2)

	// Each context gets its own ID.
	other := GetTraceID(SetTraceID(context.Background()))
	assert.NotEqual(t, traceID, other)
}

func TestGetTraceIDMissing(t *testing.T) {
	assert.Equal(t, "", GetTraceID(context.Background()))
}

func TestIdentityRoundTrip(t *testing.T) {
	identity := domain.UserIdentity(uuid.New())
	ctx := WithIdentity(context.Background(), identity)

	got, ok := IdentityFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, identity, got)

	_, ok = IdentityFrom(context.Background())
	assert.False(t, ok)
}
