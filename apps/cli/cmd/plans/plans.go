// Package plans lists subscription plans from a live database.
package plans

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/persistence"
)

// Command groups plan utilities.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Subscription plan utilities",
	}

	cmd.AddCommand(listCommand())
	return cmd
}

func listCommand() *cobra.Command {
	var databaseURL string

	c := &cobra.Command{
		Use:   "list",
		Short: "List active plans, cheapest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := persistence.NewPool(ctx, persistence.PoolConfig{ConnString: databaseURL})
			if err != nil {
				return fmt.Errorf("init pool: %w", err)
			}
			defer persistence.ClosePool(pool)

			store, err := persistence.NewPlanStore(ctx, pool)
			if err != nil {
				return fmt.Errorf("init plan store: %w", err)
			}

			plans, err := store.ListActive(ctx)
			if err != nil {
				return fmt.Errorf("list plans: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(plans)
		},
	}

	c.Flags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection string")
	_ = c.MarkFlagRequired("database-url")

	return c
}
