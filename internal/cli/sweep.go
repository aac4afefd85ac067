package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSweepCmd runs the expiry sweeper once, for deployments that schedule
// it with an external cron instead of the in-process scheduler.
func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Reclaim expired holds once and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			res, err := a.sweeper.Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reclaimed=%d failed=%d\n", res.Reclaimed, res.Failed)
			return nil
		},
	}
}
