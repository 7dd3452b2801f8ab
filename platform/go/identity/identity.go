// Package identity abstracts the external identity provider the provisioning
// pipeline creates accounts with. The control plane never sees password
// storage or session mechanics; it only asks the provider to sign a user up.
package identity

import (
	"context"
	"errors"
)

// ErrEmailExists is returned when the provider rejects a duplicate email.
// This is the only guard against double-provisioning the same signup.
var ErrEmailExists = errors.New("identity: email already registered")

// User is the provider-side account created for a signup.
type User struct {
	ID    string
	Email string
}

// Metadata carries optional profile hints attached at account creation.
type Metadata struct {
	DisplayName string
	CompanyName string
}

// Provider creates identities with the external auth collaborator.
type Provider interface {
	SignUp(ctx context.Context, email, password string, meta Metadata) (User, error)
}
