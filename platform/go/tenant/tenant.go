// Package tenant defines the tenant domain types shared across the control
// plane: the tenant record, the outcome of resolving a request to a tenant
// context, and the context plumbing middleware uses to hand the outcome to
// handlers.
package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a tenant. Only active tenants are
// resolvable as usable contexts; the other states exist but are surfaced as
// ReasonInactive rather than "not found".
type Status string

const (
	StatusTrial     Status = "trial"
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusCancelled Status = "cancelled"
)

// DatabaseType selects where a tenant's application data lives.
type DatabaseType string

const (
	DatabaseManaged DatabaseType = "managed"
	DatabaseBYOD    DatabaseType = "byod"
)

// Info is the tenant record as seen by the resolution and provisioning paths.
type Info struct {
	ID           uuid.UUID
	Slug         string
	Name         string
	Status       Status
	DatabaseType DatabaseType
	TrialEndsAt  *time.Time
	ContactEmail string
	SelfService  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reason classifies why a resolution or provisioning step did not produce a
// usable tenant. Reasons travel in result structs, never as panics, so callers
// can render a dedicated surface for each.
type Reason string

const (
	ReasonNone             Reason = ""
	ReasonInvalidSubdomain Reason = "invalid_subdomain"
	ReasonNotFound         Reason = "not_found"
	ReasonInactive         Reason = "inactive"
	ReasonReservedOrTaken  Reason = "reserved_or_taken"
	ReasonInvalidSlug      Reason = "invalid_slug"
	ReasonInvalidSettings  Reason = "invalid_settings"
	ReasonIdentityFailed   Reason = "identity_creation_failed"
	ReasonTenantFailed     Reason = "tenant_creation_failed"
	ReasonDependentFailed  Reason = "dependent_resource_failed"
)

// Resolution is the outcome of mapping an inbound request's host and query
// parameters to a tenant context. Exactly one of the following holds: the
// request belongs to the platform-admin surface, to a specific tenant, to no
// tenant (public/marketing context), or it failed with a Reason.
type Resolution struct {
	Tenant          *Info
	IsPlatformAdmin bool
	Subdomain       *string
	Reason          Reason
}

type ctxKey struct{}

// WithResolution returns a derived context carrying the resolution outcome.
func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, ctxKey{}, res)
}

// ResolutionFromContext extracts the resolution outcome placed on the context
// by the resolution middleware, with a boolean indicating presence.
func ResolutionFromContext(ctx context.Context) (Resolution, bool) {
	v := ctx.Value(ctxKey{})
	if v == nil {
		return Resolution{}, false
	}
	res, ok := v.(Resolution)
	return res, ok
}
