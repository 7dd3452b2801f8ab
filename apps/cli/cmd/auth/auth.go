// Package auth mints unsigned development tokens for local API calls against
// admin-gated endpoints (AUTH_PROVIDER=dev only).
package auth

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nimbusdesk/nimbusdesk-saas/platform/go/auth/devtoken"
)

// Command groups auth utilities.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication utilities",
	}

	cmd.AddCommand(devtokenCommand())
	return cmd
}

func devtokenCommand() *cobra.Command {
	var (
		projectID string
		userID    string
		email     string
		name      string
		isAdmin   bool
		expiresIn time.Duration
	)

	c := &cobra.Command{
		Use:   "devtoken",
		Short: "Mint an unsigned JWT for local development",
		Long:  "Mints an unsigned JWT (alg none) that flows through the API's auth middleware when it runs with AUTH_PROVIDER=dev. Never accepted in production.",
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := devtoken.BuildUnsignedToken(devtoken.Params{
				ProjectID:     projectID,
				UserID:        userID,
				Email:         email,
				Name:          name,
				EmailVerified: true,
				IsAdmin:       isAdmin,
				ExpiresIn:     expiresIn,
			}, time.Now())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	c.Flags().StringVar(&projectID, "project", "control-plane-dev", "Project id used for aud/iss")
	c.Flags().StringVar(&userID, "user-id", "", "Subject user id")
	c.Flags().StringVar(&email, "email", "", "Email claim")
	c.Flags().StringVar(&name, "name", "", "Display name claim")
	c.Flags().BoolVar(&isAdmin, "admin", false, "Set the isAdmin claim")
	c.Flags().DurationVar(&expiresIn, "expires-in", time.Hour, "Token lifetime")
	_ = c.MarkFlagRequired("user-id")
	_ = c.MarkFlagRequired("email")

	return c
}
