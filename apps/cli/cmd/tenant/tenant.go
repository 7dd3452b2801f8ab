// Package tenant provides resolution and slug checks against a live database.
package tenant

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/benbjohnson/clock"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	tenantsrepo "github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/repo"
	tenantsservice "github.com/nimbusdesk/nimbusdesk-saas/domains/tenants/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/persistence"
	platformtenant "github.com/nimbusdesk/nimbusdesk-saas/platform/go/tenant"
)

// Command groups tenant utilities.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tenant",
		Short: "Tenant resolution and slug utilities",
	}

	cmd.AddCommand(resolveCommand())
	cmd.AddCommand(slugCheckCommand())
	return cmd
}

func newService(ctx context.Context, databaseURL string) (*tenantsservice.Service, func(), error) {
	pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
	if err != nil {
		return nil, nil, fmt.Errorf("init pool: %w", err)
	}

	store, err := persistence.NewTenantStore(ctx, pool)
	if err != nil {
		persistence.ClosePool(pool)
		return nil, nil, fmt.Errorf("init tenant store: %w", err)
	}

	repo := tenantsrepo.NewPostgresRepository(store)
	cache := platformtenant.NewCache(platformtenant.DefaultCacheTTL, clock.New())
	svc := tenantsservice.New(repo, cache, zap.NewNop())

	return svc, func() { persistence.ClosePool(pool) }, nil
}

func resolveCommand() *cobra.Command {
	var (
		databaseURL string
		host        string
		tenantParam string
	)

	c := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a host to a tenant context",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			svc, closeFn, err := newService(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer closeFn()

			query := url.Values{}
			if tenantParam != "" {
				query.Set("tenant", tenantParam)
			}

			res := svc.Resolve(ctx, host, query)

			out := map[string]any{"context": "public"}
			switch {
			case res.IsPlatformAdmin:
				out["context"] = "platform_admin"
			case res.Tenant != nil:
				out["context"] = "tenant"
				out["tenant"] = map[string]any{
					"id":     res.Tenant.ID.String(),
					"slug":   res.Tenant.Slug,
					"name":   res.Tenant.Name,
					"status": string(res.Tenant.Status),
				}
			case res.Reason != platformtenant.ReasonNone:
				out["context"] = "error"
				out["reason"] = string(res.Reason)
			}
			if res.Subdomain != nil {
				out["subdomain"] = *res.Subdomain
			}

			return printJSON(cmd, out)
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&host, "host", "", "Host header to resolve (e.g. acme.nimbusdesk.com)")
	c.Flags().StringVar(&tenantParam, "tenant-param", "", "?tenant= override, honored on loopback hosts")
	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("host")

	return c
}

func slugCheckCommand() *cobra.Command {
	var (
		databaseURL string
		slugValue   string
	)

	c := &cobra.Command{
		Use:   "slug-check",
		Short: "Validate a slug and check its availability",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			svc, closeFn, err := newService(ctx, databaseURL)
			if err != nil {
				return err
			}
			defer closeFn()

			available, err := svc.CheckSlugAvailability(ctx, slugValue)
			if err != nil {
				return printJSON(cmd, map[string]any{
					"slug": slugValue, "available": false, "reason": err.Error(),
				})
			}

			return printJSON(cmd, map[string]any{"slug": slugValue, "available": available})
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&slugValue, "slug", "", "Candidate slug")
	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("slug")

	return c
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
