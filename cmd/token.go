package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pixeldesk/api"
	"pixeldesk/config"
)

var (
	tokenUser  string
	tokenAdmin bool
	tokenTTL   time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a session token for a user",
	Long: `Signs an HS256 session token with JWT_SECRET. Useful for operators calling
the admin endpoints and for local testing.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if tokenUser == "" {
			return fmt.Errorf("--user is required")
		}

		cfg := config.Get()
		token, err := api.IssueToken([]byte(cfg.JWTSecret), tokenUser, tokenAdmin, tokenTTL, time.Now())
		if err != nil {
			return fmt.Errorf("failed to sign token: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "User ID to put in the token subject")
	tokenCmd.Flags().BoolVar(&tokenAdmin, "admin", false, "Grant admin access")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "Token lifetime")
}
