// Package repo provides the signup pipeline's repositories: a Postgres-backed
// one for production and an in-memory one for tests and local development.
package repo

import (
	"context"

	"github.com/google/uuid"

	"github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/persistence"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// PostgresRepository implements the pipeline's store operations on the shared
// persistence layer. Tenant creation goes through the atomic provision_tenant
// procedure, so a failed run never leaves a partial tenant behind.
type PostgresRepository struct {
	tenants *persistence.TenantStore
	signups *persistence.SignupStore
	plans   *persistence.PlanStore
}

// NewPostgresRepository wires the three stores into one repository.
func NewPostgresRepository(tenants *persistence.TenantStore, signups *persistence.SignupStore, plans *persistence.PlanStore) *PostgresRepository {
	if tenants == nil || signups == nil || plans == nil {
		panic("all stores are required")
	}
	return &PostgresRepository{tenants: tenants, signups: signups, plans: plans}
}

func (r *PostgresRepository) CheckSlugAvailable(ctx context.Context, s string) (bool, error) {
	return r.tenants.CheckSlugAvailable(ctx, s)
}

func (r *PostgresRepository) CreateSignupRequest(ctx context.Context, req service.SignupRequest) (uuid.UUID, error) {
	rec, err := r.signups.Create(ctx, persistence.SignupRecord{
		RequestedSlug:   req.RequestedSlug,
		CompanyName:     req.CompanyName,
		Email:           req.Email,
		ContactPhoneEnc: req.ContactPhoneEnc,
		RequestID:       req.RequestID,
	})
	if err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

func (r *PostgresRepository) MarkSignupFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.signups.MarkFailed(ctx, id, reason)
}

func (r *PostgresRepository) MarkSignupCompleted(ctx context.Context, id, tenantID uuid.UUID) error {
	return r.signups.MarkCompleted(ctx, id, tenantID)
}

func (r *PostgresRepository) ProvisionTenant(ctx context.Context, params service.ProvisionParams) (uuid.UUID, error) {
	id, err := r.tenants.Provision(ctx, persistence.ProvisionParams{
		UserID:          params.UserID,
		CompanyName:     params.CompanyName,
		Slug:            params.Slug,
		ContactEmail:    params.ContactEmail,
		ContactPhoneEnc: params.ContactPhoneEnc,
		Branding:        params.Settings,
	})
	if err != nil {
		if persistence.IsUniqueViolation(err) {
			return uuid.Nil, service.ErrSlugTaken
		}
		return uuid.Nil, err
	}
	return id, nil
}

func (r *PostgresRepository) ListActivePlans(ctx context.Context) ([]service.Plan, error) {
	recs, err := r.plans.ListActive(ctx)
	if err != nil {
		return nil, err
	}
	plans := make([]service.Plan, 0, len(recs))
	for _, rec := range recs {
		plans = append(plans, service.Plan{
			ID:                rec.ID,
			Code:              rec.Code,
			Name:              rec.Name,
			DatabaseType:      tenant.DatabaseType(rec.DatabaseType),
			MonthlyPriceCents: rec.MonthlyPriceCents,
		})
	}
	return plans, nil
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
