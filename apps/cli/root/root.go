package root

import (
	"github.com/spf13/cobra"
)

// rootCmd is the base command for the NimbusDesk admin CLI. Subcommands
// (bootstrap, tenant, signup, etc.) are attached here.
var rootCmd = &cobra.Command{
	Use:           "nimbusdesk",
	Short:         "NimbusDesk control-plane CLI",
	Long:          "Administrative utilities for the NimbusDesk control plane (schema bootstrap, tenant resolution checks, manual provisioning, dev tokens).",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the mutable root command for wiring from subpackages.
func Root() *cobra.Command {
	return rootCmd
}
