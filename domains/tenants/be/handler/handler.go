// Package handler exposes tenant resolution over HTTP: the resolve endpoint
// the frontends call on page load, the slug-availability pre-check for signup
// forms, and the admin-only cache invalidation hook.
package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/auth"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/httpapi"
	platformlogging "github.com/nimbusdesk/nimbusdesk-saas/platform/go/logging"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/slug"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// Handler wires the tenants service to HTTP.
type Handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New constructs a Handler instance.
func New(svc *service.Service, logger *zap.Logger) *Handler {
	if svc == nil {
		panic("tenants service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, logger: logger}
}

// Register adds the public resolution endpoints to the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/resolve", h.Resolve)
	r.Get("/slug-availability", h.SlugAvailability)
}

// Routes mounts the public resolution endpoints on a fresh router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	h.Register(r)
	return r
}

// AdminRoutes mounts the platform-operator endpoints behind the admin gate.
func (h *Handler) AdminRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(auth.RequireAdmin)
	r.Post("/resolver-cache/clear", h.ClearCache)
	return r
}

// TenantView is the tenant object the resolution endpoint exposes. Internal
// fields like the database type never leave the API.
type TenantView struct {
	ID          string     `json:"id"`
	Slug        string     `json:"slug"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	TrialEndsAt *time.Time `json:"trial_ends_at,omitempty"`
}

// ResolveResponse is the body of a successful resolution.
type ResolveResponse struct {
	Context   string      `json:"context"` // "platform_admin", "tenant", or "public"
	Tenant    *TenantView `json:"tenant,omitempty"`
	Subdomain *string     `json:"subdomain,omitempty"`
}

// Resolve maps the request's Host header (plus ?tenant= on loopback hosts) to
// a tenant context. Failed resolutions surface as problem+json with the
// resolution reason so frontends can render the matching surface.
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	res := h.svc.Resolve(r.Context(), r.Host, r.URL.Query())

	switch res.Reason {
	case tenant.ReasonNone:
	case tenant.ReasonInvalidSubdomain:
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Invalid subdomain", http.StatusBadRequest, httpapi.ProblemTypeValidation,
			"the subdomain is not a valid tenant identifier", string(res.Reason)))
		return
	case tenant.ReasonInactive:
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Tenant unavailable", http.StatusForbidden, httpapi.ProblemTypeForbidden,
			"this workspace is not currently active", string(res.Reason)))
		return
	default:
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Tenant not found", http.StatusNotFound, httpapi.ProblemTypeNotFound,
			"no workspace matches this address", string(tenant.ReasonNotFound)))
		return
	}

	resp := ResolveResponse{Context: "public", Subdomain: res.Subdomain}
	switch {
	case res.IsPlatformAdmin:
		resp.Context = "platform_admin"
	case res.Tenant != nil:
		resp.Context = "tenant"
		resp.Tenant = &TenantView{
			ID:          res.Tenant.ID.String(),
			Slug:        res.Tenant.Slug,
			Name:        res.Tenant.Name,
			Status:      string(res.Tenant.Status),
			TrialEndsAt: res.Tenant.TrialEndsAt,
		}
	}

	httpapi.WriteJSON(w, http.StatusOK, resp)
}

// SlugAvailabilityResponse reports the outcome of the signup-form pre-check.
type SlugAvailabilityResponse struct {
	Slug      string  `json:"slug"`
	Available bool    `json:"available"`
	Reason    *string `json:"reason,omitempty"`
}

// SlugAvailability answers the signup form's live pre-check. Format failures
// return 200 with available=false and the first violated rule; only a missing
// parameter is a client error. Results are intentionally uncacheable.
func (h *Handler) SlugAvailability(w http.ResponseWriter, r *http.Request) {
	candidate := r.URL.Query().Get("slug")
	if candidate == "" {
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Missing parameter", http.StatusBadRequest, httpapi.ProblemTypeValidation,
			"query parameter 'slug' is required", ""))
		return
	}

	available, err := h.svc.CheckSlugAvailability(r.Context(), candidate)
	if err != nil {
		var rule *slug.RuleError
		if errors.As(err, &rule) {
			reason := rule.Error()
			httpapi.WriteJSON(w, http.StatusOK, SlugAvailabilityResponse{
				Slug: candidate, Available: false, Reason: &reason,
			})
			return
		}
		platformlogging.FromRequest(r, h.logger).Error("slug availability check failed", zap.Error(err))
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Internal server error", http.StatusInternalServerError, httpapi.ProblemTypeInternal,
			"an unexpected error occurred", ""))
		return
	}

	resp := SlugAvailabilityResponse{Slug: candidate, Available: available}
	if !available {
		reason := "slug is reserved or already taken"
		resp.Reason = &reason
	}
	httpapi.WriteJSON(w, http.StatusOK, resp)
}

// Workspace returns the tenant the request's host resolved to. It expects the
// tenant-context middleware (plus RequireActiveTenant) to have run, so the
// resolution is read from the context instead of being recomputed.
func (h *Handler) Workspace(w http.ResponseWriter, r *http.Request) {
	res, ok := tenant.ResolutionFromContext(r.Context())
	if !ok || res.Tenant == nil {
		httpapi.WriteProblem(w, httpapi.NewProblem(
			"Tenant not found", http.StatusNotFound, httpapi.ProblemTypeNotFound,
			"no workspace context on this request", string(tenant.ReasonNotFound)))
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, TenantView{
		ID:          res.Tenant.ID.String(),
		Slug:        res.Tenant.Slug,
		Name:        res.Tenant.Name,
		Status:      string(res.Tenant.Status),
		TrialEndsAt: res.Tenant.TrialEndsAt,
	})
}

// ClearCache force-evicts the resolver cache. Admin only.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCache()
	platformlogging.FromRequest(r, h.logger).Info("resolver cache cleared by operator")
	w.WriteHeader(http.StatusNoContent)
}
