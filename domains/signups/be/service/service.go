// Package service implements the provisioning pipeline: turning a self-service
// signup into a new tenant, its dependent resources, and an identity, while
// tracking the attempt as a signup request record.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/crypto"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/identity"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/requesttrace"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/slug"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// ErrSlugTaken is returned by repositories when the store's uniqueness
// constraint rejects a slug. The store is the final arbiter: the availability
// pre-check is best-effort and two concurrent signups can both pass it.
var ErrSlugTaken = errors.New("slug is reserved or already taken")

// Error is a typed pipeline failure. The Reason selects the surface the
// caller renders; Message is safe to show to the end user.
type Error struct {
	Reason  tenant.Reason
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Reason, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// SignupData is the signup form as submitted.
type SignupData struct {
	CompanyName string
	Slug        string // optional; derived from CompanyName when empty
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Phone       string
	Settings    json.RawMessage // optional branding/feature-flag payload
}

// Result is the successful outcome of one provisioning run.
type Result struct {
	SignupID  uuid.UUID
	TenantID  uuid.UUID
	Slug      string
	PortalURL string
}

// SignupRequest is the workflow record inserted at the start of a run.
type SignupRequest struct {
	RequestedSlug   string
	CompanyName     string
	Email           string
	ContactPhoneEnc *string
	RequestID       *string
}

// ProvisionParams feeds the tenant-creation step. With the Postgres
// repository this maps 1:1 onto the atomic provision_tenant procedure.
type ProvisionParams struct {
	UserID          string
	CompanyName     string
	Slug            string
	ContactEmail    string
	ContactPhoneEnc *string
	Settings        []byte
}

// Repository abstracts the store writes of the pipeline. ProvisionTenant
// creates the tenant and its dependent resources; the Postgres implementation
// does so atomically server-side, so a failure leaves no tenant row.
type Repository interface {
	CheckSlugAvailable(ctx context.Context, s string) (bool, error)
	CreateSignupRequest(ctx context.Context, req SignupRequest) (uuid.UUID, error)
	MarkSignupFailed(ctx context.Context, id uuid.UUID, reason string) error
	MarkSignupCompleted(ctx context.Context, id, tenantID uuid.UUID) error
	ProvisionTenant(ctx context.Context, params ProvisionParams) (uuid.UUID, error)
	ListActivePlans(ctx context.Context) ([]Plan, error)
}

// Plan is a purchasable subscription plan, cheapest-first from the store.
type Plan struct {
	ID                uuid.UUID
	Code              string
	Name              string
	DatabaseType      tenant.DatabaseType
	MonthlyPriceCents int
}

// SettingsValidator checks the optional settings payload before provisioning.
type SettingsValidator interface {
	Validate(payload []byte) error
}

// Service orchestrates the provisioning pipeline.
type Service struct {
	repo       Repository
	identities identity.Provider
	settings   SettingsValidator
	keys       *crypto.KeyRing
	baseDomain string
	logger     *zap.Logger
}

// New constructs a Service. keys may be nil, in which case contact phone
// numbers are not stored at all rather than stored in the clear.
func New(repo Repository, identities identity.Provider, settings SettingsValidator, keys *crypto.KeyRing, baseDomain string, logger *zap.Logger) *Service {
	if repo == nil {
		panic("signups repo is required")
	}
	if identities == nil {
		panic("identity provider is required")
	}
	if settings == nil {
		panic("settings validator is required")
	}
	if baseDomain == "" {
		panic("base domain is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		identities: identities,
		settings:   settings,
		keys:       keys,
		baseDomain: baseDomain,
		logger:     logger,
	}
}

// Provision runs the pipeline:
//
//  1. Resolve the effective slug and validate format + availability. Failures
//     return immediately with no side effects recorded anywhere.
//  2. Insert the signup request in status "processing". A failure here aborts
//     with nothing created.
//  3. Create the identity with the auth collaborator. On failure the signup
//     request is marked failed; no tenant exists. A created identity is never
//     rolled back by later failures (known gap; observable in the logs).
//  4. Create the tenant and its dependent resources (subscription, settings,
//     membership) through the repository. On failure the signup request is
//     marked failed.
//  5. Mark the signup request completed, link the tenant, and compute the
//     tenant's public portal URL.
//
// The pipeline is not idempotent: a second run with the same input creates a
// second identity unless the provider rejects the duplicate email, and a
// second tenant unless the store's slug constraint rejects it.
func (s *Service) Provision(ctx context.Context, data SignupData) (Result, error) {
	effective := data.Slug
	if effective == "" {
		effective = slug.Slugify(data.CompanyName)
	}
	if err := slug.Validate(effective); err != nil {
		return Result{}, &Error{Reason: tenant.ReasonInvalidSlug, Message: err.Error()}
	}

	available, err := s.repo.CheckSlugAvailable(ctx, effective)
	if err != nil {
		return Result{}, fmt.Errorf("check slug availability: %w", err)
	}
	if !available {
		return Result{}, &Error{
			Reason:  tenant.ReasonReservedOrTaken,
			Message: fmt.Sprintf("%q is reserved or already taken", effective),
		}
	}

	if len(data.Settings) > 0 {
		if err := s.settings.Validate(data.Settings); err != nil {
			return Result{}, &Error{Reason: tenant.ReasonInvalidSettings, Message: err.Error()}
		}
	}

	var phoneEnc *string
	if data.Phone != "" && s.keys != nil {
		env, err := s.keys.Encrypt([]byte(data.Phone))
		if err != nil {
			return Result{}, fmt.Errorf("encrypt contact phone: %w", err)
		}
		encoded := env.Encode()
		phoneEnc = &encoded
	}

	var requestID *string
	if audit, ok := requesttrace.FromContext(ctx); ok && audit.RequestID != "" {
		requestID = &audit.RequestID
	}

	signupID, err := s.repo.CreateSignupRequest(ctx, SignupRequest{
		RequestedSlug:   effective,
		CompanyName:     data.CompanyName,
		Email:           data.Email,
		ContactPhoneEnc: phoneEnc,
		RequestID:       requestID,
	})
	if err != nil {
		return Result{}, fmt.Errorf("record signup request: %w", err)
	}

	logger := s.logger.With(zap.String("signup_id", signupID.String()), zap.String("slug", effective))

	displayName := data.FirstName
	if data.LastName != "" {
		if displayName != "" {
			displayName += " "
		}
		displayName += data.LastName
	}

	user, err := s.identities.SignUp(ctx, data.Email, data.Password, identity.Metadata{
		DisplayName: displayName,
		CompanyName: data.CompanyName,
	})
	if err != nil {
		s.markFailed(ctx, logger, signupID, tenant.ReasonIdentityFailed)
		logger.Warn("identity creation failed", zap.Error(err))
		return Result{}, &Error{Reason: tenant.ReasonIdentityFailed, Message: "could not create account", Err: err}
	}

	tenantID, err := s.repo.ProvisionTenant(ctx, ProvisionParams{
		UserID:          user.ID,
		CompanyName:     data.CompanyName,
		Slug:            effective,
		ContactEmail:    data.Email,
		ContactPhoneEnc: phoneEnc,
		Settings:        data.Settings,
	})
	if err != nil {
		// The identity from the previous step is left in place.
		if errors.Is(err, ErrSlugTaken) {
			s.markFailed(ctx, logger, signupID, tenant.ReasonReservedOrTaken)
			logger.Warn("slug lost to a concurrent signup", zap.Error(err))
			return Result{}, &Error{
				Reason:  tenant.ReasonReservedOrTaken,
				Message: fmt.Sprintf("%q is reserved or already taken", effective),
				Err:     err,
			}
		}
		s.markFailed(ctx, logger, signupID, tenant.ReasonTenantFailed)
		logger.Error("tenant creation failed", zap.String("user_id", user.ID), zap.Error(err))
		return Result{}, &Error{Reason: tenant.ReasonTenantFailed, Message: "could not create workspace", Err: err}
	}

	if err := s.repo.MarkSignupCompleted(ctx, signupID, tenantID); err != nil {
		// The tenant exists and is usable; only the workflow record is stale.
		logger.Warn("mark signup completed failed", zap.Error(err))
	}

	logger.Info("tenant provisioned", zap.String("tenant_id", tenantID.String()))

	return Result{
		SignupID:  signupID,
		TenantID:  tenantID,
		Slug:      effective,
		PortalURL: s.PortalURL(effective),
	}, nil
}

// PortalURL computes the public URL for a tenant's portal: a real subdomain
// in production, the ?tenant= form when the platform runs on a loopback host.
func (s *Service) PortalURL(tenantSlug string) string {
	if tenant.IsLoopbackHost(s.baseDomain) {
		return fmt.Sprintf("http://%s/?tenant=%s", s.baseDomain, tenantSlug)
	}
	return fmt.Sprintf("https://%s.%s", tenantSlug, s.baseDomain)
}

// ListPlans returns the active plans, cheapest first.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	return s.repo.ListActivePlans(ctx)
}

func (s *Service) markFailed(ctx context.Context, logger *zap.Logger, id uuid.UUID, reason tenant.Reason) {
	if err := s.repo.MarkSignupFailed(ctx, id, string(reason)); err != nil {
		logger.Error("mark signup failed errored", zap.Error(err))
	}
}
