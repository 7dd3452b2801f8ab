package identity

import (
	"context"
	"fmt"

	firebaseauth "firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
)

// FirebaseProvider implements Provider on top of Firebase Auth.
type FirebaseProvider struct {
	client *firebaseauth.Client
	logger *zap.Logger
}

// NewFirebaseProvider wraps an initialized Firebase Auth client (see
// gcp.InitFirebaseAuth). The API shares one client between token verification
// and user creation. A nil logger is replaced with a no-op logger.
func NewFirebaseProvider(client *firebaseauth.Client, logger *zap.Logger) *FirebaseProvider {
	if client == nil {
		panic("firebase auth client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FirebaseProvider{client: client, logger: logger}
}

// SignUp creates a Firebase user with email/password credentials.
func (p *FirebaseProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (User, error) {
	params := (&firebaseauth.UserToCreate{}).
		Email(email).
		Password(password)
	if meta.DisplayName != "" {
		params = params.DisplayName(meta.DisplayName)
	}

	record, err := p.client.CreateUser(ctx, params)
	if err != nil {
		if firebaseauth.IsEmailAlreadyExists(err) {
			return User{}, ErrEmailExists
		}
		return User{}, fmt.Errorf("create firebase user: %w", err)
	}

	if meta.CompanyName != "" {
		claims := map[string]interface{}{"company": meta.CompanyName}
		if err := p.client.SetCustomUserClaims(ctx, record.UID, claims); err != nil {
			// Claims are a profile hint, not a provisioning dependency.
			p.logger.Warn("set custom user claims failed",
				zap.String("uid", record.UID),
				zap.Error(err))
			return User{ID: record.UID, Email: email}, nil
		}
	}

	return User{ID: record.UID, Email: email}, nil
}

var _ Provider = (*FirebaseProvider)(nil)
