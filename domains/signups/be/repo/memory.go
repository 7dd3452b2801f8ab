package repo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/service"
	tenantsrepo "github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/repo"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// TrialPeriod mirrors the trial the provision_tenant procedure grants.
const TrialPeriod = 30 * 24 * time.Hour

// SignupState is an in-memory counterpart of a signup_requests row.
type SignupState struct {
	ID            uuid.UUID
	RequestedSlug string
	CompanyName   string
	Email         string
	Status        string
	Error         *string
	TenantID      *uuid.UUID
}

// MemoryRepository implements the pipeline's store operations without
// Postgres. Unlike the Postgres repository, tenant creation here is a
// client-side sequence: the tenant record is inserted first and the dependent
// resources (subscription, settings) are attached afterwards, so a dependent
// failure leaves the tenant in place and is only logged. Provisioned tenants
// are published into the tenants MemoryRepository so the resolution path can
// find them immediately.
type MemoryRepository struct {
	mu       sync.Mutex
	tenants  *tenantsrepo.MemoryRepository
	signups  map[uuid.UUID]*SignupState
	bySlug   map[string]uuid.UUID
	clk      clock.Clock
	logger   *zap.Logger
	plans    []service.Plan

	// DependentErr, when set, makes the dependent-resource step of the next
	// ProvisionTenant call fail. Test hook.
	DependentErr error
}

// NewMemoryRepository constructs a repository publishing into the given tenant
// directory. clk and logger may be nil.
func NewMemoryRepository(tenants *tenantsrepo.MemoryRepository, clk clock.Clock, logger *zap.Logger) *MemoryRepository {
	if tenants == nil {
		panic("tenant directory is required")
	}
	if clk == nil {
		clk = clock.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryRepository{
		tenants: tenants,
		signups: make(map[uuid.UUID]*SignupState),
		bySlug:  make(map[string]uuid.UUID),
		clk:     clk,
		logger:  logger,
		plans: []service.Plan{
			{ID: uuid.New(), Code: "starter-managed", Name: "Starter", DatabaseType: tenant.DatabaseManaged, MonthlyPriceCents: 2900},
			{ID: uuid.New(), Code: "growth-managed", Name: "Growth", DatabaseType: tenant.DatabaseManaged, MonthlyPriceCents: 9900},
			{ID: uuid.New(), Code: "enterprise-byod", Name: "Enterprise BYOD", DatabaseType: tenant.DatabaseBYOD, MonthlyPriceCents: 49900},
		},
	}
}

func (r *MemoryRepository) CheckSlugAvailable(ctx context.Context, s string) (bool, error) {
	return r.tenants.CheckSlugAvailable(ctx, s)
}

func (r *MemoryRepository) CreateSignupRequest(ctx context.Context, req service.SignupRequest) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	r.signups[id] = &SignupState{
		ID:            id,
		RequestedSlug: req.RequestedSlug,
		CompanyName:   req.CompanyName,
		Email:         req.Email,
		Status:        "processing",
	}
	return id, nil
}

func (r *MemoryRepository) MarkSignupFailed(ctx context.Context, id uuid.UUID, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.signups[id]
	if !ok {
		return errors.New("signup request not found")
	}
	state.Status = "failed"
	state.Error = &reason
	return nil
}

func (r *MemoryRepository) MarkSignupCompleted(ctx context.Context, id, tenantID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	state, ok := r.signups[id]
	if !ok {
		return errors.New("signup request not found")
	}
	state.Status = "completed"
	state.TenantID = &tenantID
	return nil
}

// ProvisionTenant creates the tenant record, claims the slug, then attaches
// the dependent resources. A slug already claimed returns ErrSlugTaken. A
// dependent-resource failure is logged and swallowed: the tenant survives it.
func (r *MemoryRepository) ProvisionTenant(ctx context.Context, params service.ProvisionParams) (uuid.UUID, error) {
	r.mu.Lock()
	if _, claimed := r.bySlug[params.Slug]; claimed {
		r.mu.Unlock()
		return uuid.Nil, service.ErrSlugTaken
	}
	available, err := r.tenants.CheckSlugAvailable(ctx, params.Slug)
	if err != nil || !available {
		r.mu.Unlock()
		return uuid.Nil, service.ErrSlugTaken
	}

	now := r.clk.Now()
	trialEnds := now.Add(TrialPeriod)
	id := uuid.New()
	info := tenant.Info{
		ID:           id,
		Slug:         params.Slug,
		Name:         params.CompanyName,
		Status:       tenant.StatusTrial,
		DatabaseType: tenant.DatabaseManaged,
		TrialEndsAt:  &trialEnds,
		ContactEmail: params.ContactEmail,
		SelfService:  true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.bySlug[params.Slug] = id
	dependentErr := r.DependentErr
	r.DependentErr = nil
	r.mu.Unlock()

	r.tenants.AddTenant(info)

	if dependentErr != nil {
		r.logger.Warn("dependent resources incomplete, tenant kept",
			zap.String("tenant_id", id.String()),
			zap.String("slug", params.Slug),
			zap.Error(dependentErr),
		)
	}

	return id, nil
}

func (r *MemoryRepository) ListActivePlans(ctx context.Context) ([]service.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]service.Plan, len(r.plans))
	copy(out, r.plans)
	return out, nil
}

// Signup returns the recorded state of a signup request. Test helper.
func (r *MemoryRepository) Signup(id uuid.UUID) (SignupState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.signups[id]
	if !ok {
		return SignupState{}, false
	}
	return *state, true
}

// Ensure interface compliance.
var _ service.Repository = (*MemoryRepository)(nil)
