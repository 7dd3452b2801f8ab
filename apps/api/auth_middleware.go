package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/gcp"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/identity"

	platformauth "github.com/nimbusdesk/nimbusdesk-saas/platform/go/auth"
)

// buildAuth constructs the JWT middleware and the identity provider from the
// configured backend. Firebase shares one Auth client between token
// verification and signup user creation.
func buildAuth(ctx context.Context, cfg config, logger *zap.Logger) (func(http.Handler) http.Handler, identity.Provider) {
	switch cfg.AuthProvider {
	case "firebase":
		_, fbAuth, err := gcp.InitFirebaseAuth(ctx)
		if err != nil {
			logger.Fatal("init firebase auth", zap.Error(err))
		}
		return platformauth.JWT(platformauth.FirebaseTokenVerifier(fbAuth), nil),
			identity.NewFirebaseProvider(fbAuth, logger)
	case "dev":
		logger.Warn("using dev auth provider; do not use in production")
		return platformauth.JWT(platformauth.UnsignedTokenVerifier(), nil),
			identity.NewMemoryProvider()
	default:
		logger.Fatal("unsupported auth provider", zap.String("provider", cfg.AuthProvider))
		return nil, nil
	}
}
