// Package signup runs the provisioning pipeline from the command line, for
// operator-driven tenant creation and for smoke-testing a fresh environment.
package signup

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	signupsrepo "github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/repo"
	signupsservice "github.com/nimbusdesk/nimbusdesk-saas/domains/signups/be/service"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/gcp"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/identity"
	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/persistence"
)

// Command groups signup utilities.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Run the provisioning pipeline",
	}

	cmd.AddCommand(provisionCommand())
	return cmd
}

func provisionCommand() *cobra.Command {
	var (
		databaseURL  string
		authProvider string
		baseDomain   string
		companyName  string
		slug         string
		email        string
		password     string
		firstName    string
		lastName     string
		phone        string
	)

	c := &cobra.Command{
		Use:   "provision",
		Short: "Provision a tenant from signup data",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			tenantStore, err := persistence.NewTenantStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init tenant store: %w", err)
			}
			signupStore, err := persistence.NewSignupStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init signup store: %w", err)
			}
			planStore, err := persistence.NewPlanStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init plan store: %w", err)
			}

			var identities identity.Provider
			switch authProvider {
			case "firebase":
				_, fbAuth, err := gcp.InitFirebaseAuth(ctx)
				if err != nil {
					return fmt.Errorf("init firebase auth: %w", err)
				}
				identities = identity.NewFirebaseProvider(fbAuth, nil)
			case "dev":
				identities = identity.NewMemoryProvider()
			default:
				return fmt.Errorf("unsupported auth provider %q (use firebase or dev)", authProvider)
			}

			validator, err := persistence.NewSettingsValidator()
			if err != nil {
				return fmt.Errorf("init settings validator: %w", err)
			}

			repo := signupsrepo.NewPostgresRepository(tenantStore, signupStore, planStore)
			// No key ring in the CLI: phone numbers are not stored from here.
			svc := signupsservice.New(repo, identities, validator, nil, baseDomain, zap.NewNop())

			result, err := svc.Provision(ctx, signupsservice.SignupData{
				CompanyName: companyName,
				Slug:        slug,
				Email:       email,
				Password:    password,
				FirstName:   firstName,
				LastName:    lastName,
				Phone:       phone,
			})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(map[string]string{
				"signup_id":  result.SignupID.String(),
				"tenant_id":  result.TenantID.String(),
				"slug":       result.Slug,
				"portal_url": result.PortalURL,
			})
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	c.Flags().StringVar(&authProvider, "auth", "firebase", "Identity backend: firebase | dev")
	c.Flags().StringVar(&baseDomain, "base-domain", "nimbusdesk.com", "Base domain for portal URLs")
	c.Flags().StringVar(&companyName, "company", "", "Company name")
	c.Flags().StringVar(&slug, "slug", "", "Requested slug (derived from company when empty)")
	c.Flags().StringVar(&email, "email", "", "Account email")
	c.Flags().StringVar(&password, "password", "", "Account password")
	c.Flags().StringVar(&firstName, "first-name", "", "Contact first name")
	c.Flags().StringVar(&lastName, "last-name", "", "Contact last name")
	c.Flags().StringVar(&phone, "phone", "", "Contact phone (not stored by the CLI)")
	_ = c.MarkFlagRequired("database-url")
	_ = c.MarkFlagRequired("company")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")

	return c
}
