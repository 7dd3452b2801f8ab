package repo

import (
	"context"
	"errors"

	"github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/persistence"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// PostgresRepository implements the tenant resolution lookups on top of the
// shared persistence layer.
type PostgresRepository struct {
	store *persistence.TenantStore
}

// NewPostgresRepository constructs a repository backed by TenantStore.
func NewPostgresRepository(store *persistence.TenantStore) *PostgresRepository {
	if store == nil {
		panic("tenant store is required")
	}
	return &PostgresRepository{store: store}
}

func (r *PostgresRepository) FindBySlug(ctx context.Context, s string) (tenant.Info, error) {
	rec, err := r.store.GetBySlug(ctx, s)
	if err != nil {
		return tenant.Info{}, mapNotFound(err)
	}
	return toInfo(rec), nil
}

func (r *PostgresRepository) FindByVerifiedDomain(ctx context.Context, host string) (tenant.Info, error) {
	rec, err := r.store.GetByVerifiedDomain(ctx, host)
	if err != nil {
		return tenant.Info{}, mapNotFound(err)
	}
	return toInfo(rec), nil
}

func (r *PostgresRepository) CheckSlugAvailable(ctx context.Context, s string) (bool, error) {
	return r.store.CheckSlugAvailable(ctx, s)
}

func mapNotFound(err error) error {
	if errors.Is(err, persistence.ErrNoRows) {
		return service.ErrNotFound
	}
	return err
}

func toInfo(rec persistence.TenantRecord) tenant.Info {
	return tenant.Info{
		ID:           rec.ID,
		Slug:         rec.Slug,
		Name:         rec.Name,
		Status:       tenant.Status(rec.Status),
		DatabaseType: tenant.DatabaseType(rec.DatabaseType),
		TrialEndsAt:  rec.TrialEndsAt,
		ContactEmail: rec.ContactEmail,
		SelfService:  rec.SelfService,
		CreatedAt:    rec.CreatedAt,
		UpdatedAt:    rec.UpdatedAt,
	}
}

// Ensure interface compliance.
var _ service.Repository = (*PostgresRepository)(nil)
