// Package service implements tenant resolution: mapping an inbound request's
// host and query parameters to a tenant context, with a process-local TTL
// cache in front of the store.
package service

import (
	"context"
	"errors"
	"net/url"

	"go.uber.org/zap"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/slug"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// ErrNotFound is returned by repositories when no tenant matches a lookup.
var ErrNotFound = errors.New("tenant not found")

// Repository abstracts the store lookups resolution needs. CheckSlugAvailable
// must run against a privileged path that sees every tenant's slug, never one
// scoped to the calling identity's row visibility.
type Repository interface {
	FindBySlug(ctx context.Context, s string) (tenant.Info, error)
	FindByVerifiedDomain(ctx context.Context, host string) (tenant.Info, error)
	CheckSlugAvailable(ctx context.Context, s string) (bool, error)
}

// Service resolves hosts to tenant contexts and arbitrates slug availability.
type Service struct {
	repo   Repository
	cache  *tenant.Cache
	logger *zap.Logger
}

// New constructs a Service. The cache is required: resolution runs on every
// page load and must not repeat store queries within the TTL window.
func New(repo Repository, cache *tenant.Cache, logger *zap.Logger) *Service {
	if repo == nil {
		panic("tenants repo is required")
	}
	if cache == nil {
		panic("tenant cache is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, cache: cache, logger: logger}
}

// Resolve maps host + query parameters to a tenant context. The decision
// ladder is evaluated top-down and the first match wins:
//
//  1. admin.<domain> with >=3 labels is the platform-admin surface.
//  2. On loopback hosts a ?tenant= parameter names the slug directly, so
//     local development can simulate tenants without DNS subdomains.
//  3. A verified custom-domain mapping binds the full host to a tenant.
//  4. Otherwise the first label of a >=3-label host (except "www") is treated
//     as the tenant slug.
//  5. Anything left is the public/marketing context: no tenant, no error.
//
// Resolution failures travel in the result, never as panics or errors, so
// callers can render a dedicated surface per Reason.
func (s *Service) Resolve(ctx context.Context, host string, query url.Values) tenant.Resolution {
	host = tenant.NormalizeHost(host)
	labels := tenant.HostLabels(host)

	if len(labels) >= 3 && labels[0] == "admin" {
		return tenant.Resolution{IsPlatformAdmin: true}
	}

	if tenant.IsLoopbackHost(host) {
		if q := query.Get("tenant"); q != "" {
			return s.resolveSlug(ctx, q)
		}
	}

	if res, done := s.resolveCustomDomain(ctx, host); done {
		return res
	}

	if len(labels) >= 3 && labels[0] != "www" {
		return s.resolveSlug(ctx, labels[0])
	}

	return tenant.Resolution{}
}

// resolveCustomDomain looks the full host up against verified custom-domain
// mappings. done=false means the host has no mapping and resolution should
// fall through to the subdomain path; a cached negative entry short-circuits
// the store query but still falls through.
func (s *Service) resolveCustomDomain(ctx context.Context, host string) (tenant.Resolution, bool) {
	key := tenant.DomainKey(host)

	if entry := s.cache.Get(key); entry != nil {
		switch entry.Reason {
		case tenant.ReasonNotFound:
			return tenant.Resolution{}, false
		case tenant.ReasonNone:
			return tenant.Resolution{Tenant: entry.Tenant}, true
		default:
			return tenant.Resolution{Reason: entry.Reason}, true
		}
	}

	info, err := s.repo.FindByVerifiedDomain(ctx, host)
	switch {
	case errors.Is(err, ErrNotFound):
		s.cache.Set(key, nil, tenant.ReasonNotFound)
		return tenant.Resolution{}, false
	case err != nil:
		// Store failures are not cached and not definitive; surface as a
		// not-found context rather than leaking an internal error upward.
		s.logger.Error("custom domain lookup failed", zap.String("host", host), zap.Error(err))
		return tenant.Resolution{Reason: tenant.ReasonNotFound}, true
	}

	if info.Status != tenant.StatusActive {
		// Do not leak non-active tenant objects to callers.
		s.cache.Set(key, nil, tenant.ReasonInactive)
		return tenant.Resolution{Reason: tenant.ReasonInactive}, true
	}

	s.cache.Set(key, &info, tenant.ReasonNone)
	return tenant.Resolution{Tenant: &info}, true
}

// resolveSlug resolves a candidate slug from a subdomain label or a ?tenant=
// parameter. Negative outcomes (invalid format, not found, inactive) are
// memoized like positive ones so poison lookups do not hammer the store.
func (s *Service) resolveSlug(ctx context.Context, candidate string) tenant.Resolution {
	sub := candidate
	key := tenant.SlugKey(sub)

	if entry := s.cache.Get(key); entry != nil {
		return tenant.Resolution{Tenant: entry.Tenant, Subdomain: &sub, Reason: entry.Reason}
	}

	if err := slug.Validate(sub); err != nil {
		s.cache.Set(key, nil, tenant.ReasonInvalidSubdomain)
		return tenant.Resolution{Subdomain: &sub, Reason: tenant.ReasonInvalidSubdomain}
	}

	info, err := s.repo.FindBySlug(ctx, sub)
	switch {
	case errors.Is(err, ErrNotFound):
		s.cache.Set(key, nil, tenant.ReasonNotFound)
		return tenant.Resolution{Subdomain: &sub, Reason: tenant.ReasonNotFound}
	case err != nil:
		s.logger.Error("slug lookup failed", zap.String("slug", sub), zap.Error(err))
		return tenant.Resolution{Subdomain: &sub, Reason: tenant.ReasonNotFound}
	}

	if info.Status != tenant.StatusActive {
		s.cache.Set(key, nil, tenant.ReasonInactive)
		return tenant.Resolution{Subdomain: &sub, Reason: tenant.ReasonInactive}
	}

	s.cache.Set(key, &info, tenant.ReasonNone)
	return tenant.Resolution{Tenant: &info, Subdomain: &sub}
}

// CheckSlugAvailability runs the full validator contract: format rules first
// (first failure wins, returned as the error), then the privileged
// availability check. Results are never cached; freshness matters for
// uniqueness. The check is a best-effort pre-check only: the store's unique
// constraint remains the final arbiter under concurrent writers.
func (s *Service) CheckSlugAvailability(ctx context.Context, candidate string) (bool, error) {
	if err := slug.Validate(candidate); err != nil {
		return false, err
	}
	return s.repo.CheckSlugAvailable(ctx, candidate)
}

// ClearCache force-evicts all memoized resolution results before their TTL.
func (s *Service) ClearCache() {
	s.cache.Clear()
	s.logger.Info("resolver cache cleared")
}
