// Package cli holds the cobra commands of the charterd binary.
package cli

import (
	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X".
var (
	Version   = "dev"
	CommitSHA = "none"
	BuildDate = "unknown"
)

// NewRoot returns the root command with every subcommand attached.
func NewRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "charterd",
		Short:         "Day-charter booking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newSweepCmd())
	cmd.AddCommand(newTokenCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}
