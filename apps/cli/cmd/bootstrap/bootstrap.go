// Package bootstrap applies the embedded control-plane DDL, seed data, and
// stored procedures to a fresh database.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/persistence"
)

// Command groups bootstrap helpers.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Bootstrap control-plane resources",
	}

	cmd.AddCommand(schemaCommand())
	return cmd
}

func schemaCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "schema",
		Short: "Apply the control-plane schema, seed data, and procedures",
		Long:  "Creates the platform schema with its tables, seeds reserved slugs and subscription plans, and installs the check_slug_available and provision_tenant procedures. Statements are idempotent; re-running is safe.",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			if err := persistence.BootstrapControlPlane(ctx, pool); err != nil {
				return fmt.Errorf("bootstrap control plane: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Control-plane schema bootstrapped.")
			return nil
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	_ = c.MarkFlagRequired("database-url")

	return c
}
