package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iliyamo/charter-booking/internal/utils"
)

// newTokenCmd issues an access token for an existing active user.  Login
// flows live outside this service; the command exists for operators and
// local development.
func newTokenCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()
			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
			defer cancel()
			u, err := a.users.GetByEmail(ctx, email)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", email, err)
			}
			if !u.IsActive {
				return fmt.Errorf("user %s is inactive", email)
			}
			tok, err := utils.NewAccessToken(a.cfg.JWTSecret, u.ID, u.Role, a.cfg.AccessTTLMin)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok.Token)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email of the user to issue the token for")
	return cmd
}
