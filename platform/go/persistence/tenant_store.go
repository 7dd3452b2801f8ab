package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Fully-qualified control-plane tables.
const (
	TenantsTable        = "platform.tenants"
	DomainMappingsTable = "platform.custom_domain_mappings"
)

// ErrNoRows is the store-level "no matching row" sentinel; repositories map it
// to their domain not-found errors.
var ErrNoRows = pgx.ErrNoRows

// TenantRecord is a row of platform.tenants.
type TenantRecord struct {
	ID           uuid.UUID  `db:"id"`
	Slug         string     `db:"slug"`
	Name         string     `db:"name"`
	Status       string     `db:"status"`
	DatabaseType string     `db:"database_type"`
	TrialEndsAt  *time.Time `db:"trial_ends_at"`
	ContactEmail string     `db:"contact_email"`
	SelfService  bool       `db:"self_service"`
	CreatedAt    time.Time  `db:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"`
}

// TenantStore provides typed access to the tenants table and the two
// control-plane remote procedures.
type TenantStore struct {
	pool *pgxpool.Pool
}

// NewTenantStore creates a store; assumes the bootstrap DDL already ran.
func NewTenantStore(ctx context.Context, pool *pgxpool.Pool) (*TenantStore, error) {
	if pool == nil {
		return nil, errors.New("pool is required")
	}
	return &TenantStore{pool: pool}, nil
}

const tenantColumns = `id, slug, name, status, database_type, trial_ends_at,
        contact_email, self_service, created_at, updated_at`

// GetBySlug returns the tenant with the given slug, regardless of status.
func (s *TenantStore) GetBySlug(ctx context.Context, slug string) (TenantRecord, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT `+tenantColumns+`
        FROM `+TenantsTable+`
        WHERE slug = $1
    `, slug)
	return scanTenantRecord(row)
}

// GetByVerifiedDomain returns the tenant bound to host through a verified
// custom-domain mapping. Unverified mappings do not participate in resolution.
func (s *TenantStore) GetByVerifiedDomain(ctx context.Context, host string) (TenantRecord, error) {
	row := s.pool.QueryRow(ctx, `
        SELECT t.id, t.slug, t.name, t.status, t.database_type, t.trial_ends_at,
               t.contact_email, t.self_service, t.created_at, t.updated_at
        FROM `+DomainMappingsTable+` m
        JOIN `+TenantsTable+` t ON t.id = m.tenant_id
        WHERE m.domain = $1 AND m.verified
    `, host)
	return scanTenantRecord(row)
}

// CheckSlugAvailable calls the privileged check_slug_available procedure,
// which sees every tenant's slug regardless of the caller's row visibility.
func (s *TenantStore) CheckSlugAvailable(ctx context.Context, slug string) (bool, error) {
	var available bool
	err := s.pool.QueryRow(ctx, `SELECT platform.check_slug_available($1)`, slug).Scan(&available)
	if err != nil {
		return false, err
	}
	return available, nil
}

// ProvisionParams carries the inputs of the provision_tenant procedure.
type ProvisionParams struct {
	UserID          string
	CompanyName     string
	Slug            string
	ContactEmail    string
	ContactPhoneEnc *string
	Branding        []byte // JSON object or nil
}

// Provision executes the atomic provision_tenant procedure: tenant row,
// default subscription, settings, and owning membership in one transaction.
// Returns the new tenant id; a slug collision surfaces as a unique violation.
func (s *TenantStore) Provision(ctx context.Context, p ProvisionParams) (uuid.UUID, error) {
	var branding any
	if len(p.Branding) > 0 {
		branding = p.Branding
	}

	var tenantID uuid.UUID
	err := s.pool.QueryRow(ctx, `
        SELECT platform.provision_tenant($1, $2, $3, $4, $5, $6)
    `, p.UserID, p.CompanyName, p.Slug, p.ContactEmail, p.ContactPhoneEnc, branding).Scan(&tenantID)
	if err != nil {
		return uuid.Nil, err
	}
	return tenantID, nil
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (the store-enforced final authority on slug uniqueness).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanTenantRecord(row pgx.Row) (TenantRecord, error) {
	var rec TenantRecord
	err := row.Scan(
		&rec.ID, &rec.Slug, &rec.Name, &rec.Status, &rec.DatabaseType,
		&rec.TrialEndsAt, &rec.ContactEmail, &rec.SelfService,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return TenantRecord{}, err
	}
	return rec, nil
}
