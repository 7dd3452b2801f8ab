package requesttrace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := IntoContext(context.Background(), ForUser("user-1", "req-1"))

	audit, ok := FromContext(ctx)
	require.True(t, ok)
	require.Equal(t, ActorKindUser, audit.ActorKind)
	require.NotNil(t, audit.UserID)
	require.Equal(t, "user-1", *audit.UserID)
	require.Equal(t, "req-1", audit.RequestID)
}

func TestFromContextAbsent(t *testing.T) {
	t.Parallel()

	_, ok := FromContext(context.Background())
	require.False(t, ok)

	_, ok = FromContext(nil) //nolint:staticcheck
	require.False(t, ok)
}

func TestAnonymousAndSystem(t *testing.T) {
	t.Parallel()

	a := Anonymous("req-2")
	require.Equal(t, ActorKindAnonymous, a.ActorKind)
	require.Nil(t, a.UserID)

	s := System("req-3")
	require.Equal(t, ActorKindSystem, s.ActorKind)
}
