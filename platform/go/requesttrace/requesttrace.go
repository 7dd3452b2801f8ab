// Package requesttrace carries request-scoped audit metadata: who initiated
// an operation and under which request id. Signup requests persist the id so
// a provisioning attempt can be correlated with its HTTP request in the logs.
package requesttrace

import (
	"context"
)

type contextKey struct{}

// ActorKind represents who initiated a request.
type ActorKind string

const (
	ActorKindUser      ActorKind = "user"
	ActorKindAnonymous ActorKind = "anonymous"
	ActorKindSystem    ActorKind = "system"
)

// AuditInfo captures request-scoped metadata needed for traceability.
// UserID is set only when ActorKind is user; RequestID is optional but encouraged.
type AuditInfo struct {
	ActorKind ActorKind
	UserID    *string
	RequestID string
}

// IntoContext stores the AuditInfo in the provided context.
func IntoContext(ctx context.Context, audit AuditInfo) context.Context {
	return context.WithValue(ctx, contextKey{}, audit)
}

// FromContext extracts the AuditInfo from context, returning false when not present.
func FromContext(ctx context.Context) (AuditInfo, bool) {
	if ctx == nil {
		return AuditInfo{}, false
	}
	audit, ok := ctx.Value(contextKey{}).(AuditInfo)
	return audit, ok
}

// Anonymous builds an AuditInfo for unauthenticated requests (e.g., signup)
// where no user id exists yet.
func Anonymous(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindAnonymous, RequestID: requestID}
}

// ForUser builds an AuditInfo for an authenticated actor.
func ForUser(userID, requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindUser, UserID: &userID, RequestID: requestID}
}

// System builds an AuditInfo for background/system operations.
func System(requestID string) AuditInfo {
	return AuditInfo{ActorKind: ActorKindSystem, RequestID: requestID}
}
