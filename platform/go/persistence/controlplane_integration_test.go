package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestControlPlaneIntegration(t *testing.T) {
	t.Parallel()

	if testing.Short() {
		t.Skip("skipping persistence integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("nimbusdesk"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp").WithStartupTimeout(2*time.Minute)),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connString, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, PoolConfig{ConnString: connString})
	require.NoError(t, err)
	t.Cleanup(func() {
		ClosePool(pool)
	})

	require.NoError(t, BootstrapControlPlane(ctx, pool))
	// Bootstrap is idempotent; a second run must not fail.
	require.NoError(t, BootstrapControlPlane(ctx, pool))

	tenants, err := NewTenantStore(ctx, pool)
	require.NoError(t, err)
	signups, err := NewSignupStore(ctx, pool)
	require.NoError(t, err)
	plans, err := NewPlanStore(ctx, pool)
	require.NoError(t, err)

	t.Run("slug availability", func(t *testing.T) {
		available, err := tenants.CheckSlugAvailable(ctx, "acme-rockets")
		require.NoError(t, err)
		require.True(t, available)

		// Seeded reserved slug.
		available, err = tenants.CheckSlugAvailable(ctx, "admin")
		require.NoError(t, err)
		require.False(t, available)
	})

	t.Run("provision flow", func(t *testing.T) {
		rec, err := signups.Create(ctx, SignupRecord{
			RequestedSlug: "acme-rockets",
			CompanyName:   "Acme Rockets",
			Email:         "founder@acme.test",
		})
		require.NoError(t, err)
		require.Equal(t, "processing", rec.Status)
		require.Nil(t, rec.CompletedAt)

		tenantID, err := tenants.Provision(ctx, ProvisionParams{
			UserID:       "firebase-uid-1",
			CompanyName:  "Acme Rockets",
			Slug:         "acme-rockets",
			ContactEmail: "founder@acme.test",
			Branding:     []byte(`{"primary_color": "#336699"}`),
		})
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, tenantID)

		require.NoError(t, signups.MarkCompleted(ctx, rec.ID, tenantID))

		got, err := signups.Get(ctx, rec.ID)
		require.NoError(t, err)
		require.Equal(t, "completed", got.Status)
		require.NotNil(t, got.TenantID)
		require.Equal(t, tenantID, *got.TenantID)
		require.NotNil(t, got.CompletedAt)

		tenantRec, err := tenants.GetBySlug(ctx, "acme-rockets")
		require.NoError(t, err)
		require.Equal(t, tenantID, tenantRec.ID)
		require.Equal(t, "trial", tenantRec.Status)
		require.Equal(t, "managed", tenantRec.DatabaseType)
		require.True(t, tenantRec.SelfService)
		require.NotNil(t, tenantRec.TrialEndsAt)

		// Dependent resources landed in the same transaction.
		var subs int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT count(*) FROM platform.tenant_subscriptions WHERE tenant_id = $1`, tenantID).Scan(&subs))
		require.Equal(t, 1, subs)

		var members int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT count(*) FROM platform.tenant_memberships WHERE tenant_id = $1 AND role = 'admin'`, tenantID).Scan(&members))
		require.Equal(t, 1, members)

		var settings int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT count(*) FROM platform.tenant_settings WHERE tenant_id = $1`, tenantID).Scan(&settings))
		require.Equal(t, 1, settings)

		// The slug is now taken.
		available, err := tenants.CheckSlugAvailable(ctx, "acme-rockets")
		require.NoError(t, err)
		require.False(t, available)
	})

	t.Run("duplicate slug is a unique violation", func(t *testing.T) {
		_, err := tenants.Provision(ctx, ProvisionParams{
			UserID:       "firebase-uid-2",
			CompanyName:  "Acme Impostor",
			Slug:         "acme-rockets",
			ContactEmail: "impostor@acme.test",
		})
		require.Error(t, err)
		require.True(t, IsUniqueViolation(err))

		// The atomic procedure left no partial rows behind.
		var count int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT count(*) FROM platform.tenants WHERE contact_email = 'impostor@acme.test'`).Scan(&count))
		require.Equal(t, 0, count)
	})

	t.Run("reserved slug is a unique violation", func(t *testing.T) {
		_, err := tenants.Provision(ctx, ProvisionParams{
			UserID:       "firebase-uid-3",
			CompanyName:  "Admin Co",
			Slug:         "admin",
			ContactEmail: "admin@acme.test",
		})
		require.Error(t, err)
		require.True(t, IsUniqueViolation(err))
	})

	t.Run("mid-procedure failure leaves no tenant row", func(t *testing.T) {
		// With every plan deactivated, provision_tenant fails after the
		// tenant insert. The whole transaction must roll back.
		_, err := pool.Exec(ctx, `UPDATE platform.subscription_plans SET active = FALSE`)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, err := pool.Exec(ctx, `UPDATE platform.subscription_plans SET active = TRUE`)
			require.NoError(t, err)
		})

		_, err = tenants.Provision(ctx, ProvisionParams{
			UserID:       "firebase-uid-4",
			CompanyName:  "Planless Co",
			Slug:         "planless-co",
			ContactEmail: "ceo@planless.test",
		})
		require.Error(t, err)
		require.Contains(t, err.Error(), "no active plan")

		var count int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT count(*) FROM platform.tenants WHERE slug = 'planless-co'`).Scan(&count))
		require.Equal(t, 0, count)
	})

	t.Run("verified domain lookup", func(t *testing.T) {
		tenantRec, err := tenants.GetBySlug(ctx, "acme-rockets")
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `
            INSERT INTO platform.custom_domain_mappings (id, tenant_id, domain, verified)
            VALUES ($1, $2, 'portal.acme-corp.com', FALSE)
        `, uuid.New(), tenantRec.ID)
		require.NoError(t, err)

		// Unverified mappings do not resolve.
		_, err = tenants.GetByVerifiedDomain(ctx, "portal.acme-corp.com")
		require.ErrorIs(t, err, ErrNoRows)

		_, err = pool.Exec(ctx, `
            UPDATE platform.custom_domain_mappings SET verified = TRUE WHERE domain = 'portal.acme-corp.com'
        `)
		require.NoError(t, err)

		got, err := tenants.GetByVerifiedDomain(ctx, "portal.acme-corp.com")
		require.NoError(t, err)
		require.Equal(t, tenantRec.ID, got.ID)
	})

	t.Run("failed signup transition", func(t *testing.T) {
		rec, err := signups.Create(ctx, SignupRecord{
			RequestedSlug: "doomed-co",
			CompanyName:   "Doomed Co",
			Email:         "ceo@doomed.test",
		})
		require.NoError(t, err)

		require.NoError(t, signups.MarkFailed(ctx, rec.ID, "identity_creation_failed"))

		got, err := signups.Get(ctx, rec.ID)
		require.NoError(t, err)
		require.Equal(t, "failed", got.Status)
		require.NotNil(t, got.Error)
		require.Equal(t, "identity_creation_failed", *got.Error)

		require.ErrorIs(t, signups.MarkFailed(ctx, uuid.New(), "whatever"), ErrNoRows)
	})

	t.Run("plans are seeded cheapest first", func(t *testing.T) {
		active, err := plans.ListActive(ctx)
		require.NoError(t, err)
		require.NotEmpty(t, active)
		require.Equal(t, "starter-managed", active[0].Code)
		for i := 1; i < len(active); i++ {
			require.LessOrEqual(t, active[i-1].MonthlyPriceCents, active[i].MonthlyPriceCents)
		}
	})
}
