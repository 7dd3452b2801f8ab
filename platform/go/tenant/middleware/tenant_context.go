// Package middleware attaches the tenant resolution outcome to every request
// so downstream handlers can read it from the context instead of re-resolving.
package middleware

import (
	"net/http"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/httpapi"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// TenantContext resolves the request's host once and stores the outcome on
// the context. Resolution never fails the request here; gating is left to
// RequireActiveTenant so public endpoints stay reachable from any host.
func TenantContext(resolve func(r *http.Request) tenant.Resolution) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := resolve(r)
			ctx := tenant.WithResolution(r.Context(), res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireActiveTenant rejects requests whose context did not resolve to an
// active tenant. Mount it on tenant-scoped route groups.
func RequireActiveTenant(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		res, ok := tenant.ResolutionFromContext(r.Context())
		if !ok || res.Tenant == nil {
			status, title, problemType := http.StatusNotFound, "Tenant not found", httpapi.ProblemTypeNotFound
			if ok && res.Reason == tenant.ReasonInactive {
				status, title, problemType = http.StatusForbidden, "Tenant unavailable", httpapi.ProblemTypeForbidden
			}
			httpapi.WriteProblem(w, httpapi.NewProblem(
				title, status, problemType,
				"this endpoint requires an active workspace context", string(res.Reason)))
			return
		}
		next.ServeHTTP(w, r)
	})
}
