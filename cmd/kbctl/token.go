package main

import (
	"fmt"
	"time"

	"github.com/shuoxuer/shuoxuer-website/internal/security"
	"github.com/spf13/cobra"
)

var tokenTTL string

var tokenCmd = &cobra.Command{
	Use:   "issue-token [reviewer]",
	Short: "Issue a reviewer token for the moderation endpoints",
	Args:  cobra.ExactArgs(1),
	RunE:  runIssueToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenTTL, "ttl", "", "token lifetime, e.g. 24h (default auth.reviewer_ttl)")
	rootCmd.AddCommand(tokenCmd)
}

func runIssueToken(cmd *cobra.Command, args []string) error {
	manager := security.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.ReviewerTTL)
	if !manager.Enabled() {
		return fmt.Errorf("auth.jwt_secret (JWT_SECRET) is not set")
	}

	ttl, err := parseTTL(tokenTTL)
	if err != nil {
		return err
	}

	token, err := manager.Issue(args[0], ttl)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	cmd.Println(token)
	return nil
}

// parseTTL accepts a Go duration; empty means the configured default
func parseTTL(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid ttl %q: %w", s, err)
	}
	return d, nil
}
