package identity

import (
	"testing"

	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/require"
)

func TestNewFirebaseProviderRequiresClient(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		NewFirebaseProvider(nil, nil)
	})
}

func TestNewFirebaseProviderDefaultsLogger(t *testing.T) {
	t.Parallel()

	p := NewFirebaseProvider(&firebaseauth.Client{}, nil)
	require.NotNil(t, p.logger)
}
