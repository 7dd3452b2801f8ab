package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// MemoryProvider is an in-process Provider for tests and local development.
// Like the real provider it rejects duplicate emails.
type MemoryProvider struct {
	mu      sync.Mutex
	byEmail map[string]User

	// SignUpErr, when set, is returned by every SignUp call. Tests use it to
	// force the identity-creation step of the pipeline to fail.
	SignUpErr error
}

// NewMemoryProvider constructs an empty MemoryProvider.
func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{byEmail: make(map[string]User)}
}

func (p *MemoryProvider) SignUp(ctx context.Context, email, password string, meta Metadata) (User, error) {
	if p.SignUpErr != nil {
		return User{}, p.SignUpErr
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return User{}, fmt.Errorf("identity: email and password are required")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, exists := p.byEmail[email]; exists {
		return User{}, ErrEmailExists
	}

	u := User{ID: uuid.NewString(), Email: email}
	p.byEmail[email] = u
	return u, nil
}

var _ Provider = (*MemoryProvider)(nil)
