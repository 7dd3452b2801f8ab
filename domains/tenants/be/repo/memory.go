package repo

import (
	"context"
	"strings"
	"sync"

	"github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/slug"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// MemoryRepository is an in-memory tenant directory suitable for tests and
// local development without Postgres.
type MemoryRepository struct {
	mu      sync.RWMutex
	bySlug  map[string]tenant.Info
	domains map[string]domainMapping
}

type domainMapping struct {
	slug     string
	verified bool
}

// NewMemoryRepository constructs an empty MemoryRepository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		bySlug:  make(map[string]tenant.Info),
		domains: make(map[string]domainMapping),
	}
}

// AddTenant registers or replaces a tenant. It also lets the signups memory
// repository publish freshly provisioned tenants into the resolution path.
func (r *MemoryRepository) AddTenant(info tenant.Info) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bySlug[info.Slug] = info
}

// AddDomainMapping binds an externally-owned domain to a tenant slug.
func (r *MemoryRepository) AddDomainMapping(domain, tenantSlug string, verified bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[strings.ToLower(domain)] = domainMapping{slug: tenantSlug, verified: verified}
}

// SetStatus updates a tenant's lifecycle status.
func (r *MemoryRepository) SetStatus(tenantSlug string, status tenant.Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.bySlug[tenantSlug]; ok {
		info.Status = status
		r.bySlug[tenantSlug] = info
	}
}

func (r *MemoryRepository) FindBySlug(ctx context.Context, s string) (tenant.Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, ok := r.bySlug[s]
	if !ok {
		return tenant.Info{}, service.ErrNotFound
	}
	return info, nil
}

func (r *MemoryRepository) FindByVerifiedDomain(ctx context.Context, host string) (tenant.Info, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	mapping, ok := r.domains[host]
	if !ok || !mapping.verified {
		return tenant.Info{}, service.ErrNotFound
	}
	info, ok := r.bySlug[mapping.slug]
	if !ok {
		return tenant.Info{}, service.ErrNotFound
	}
	return info, nil
}

func (r *MemoryRepository) CheckSlugAvailable(ctx context.Context, s string) (bool, error) {
	if slug.IsReserved(s) {
		return false, nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	_, taken := r.bySlug[s]
	return !taken, nil
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
