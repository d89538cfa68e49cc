package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/outbackwarning/outbackwarning/internal/auth"
	"github.com/outbackwarning/outbackwarning/internal/config"
)

// issueTokenCommand mints an operator token with OPERATOR_SIGNING_KEY and
// prints it to stdout.
func issueTokenCommand() *cobra.Command {
	var (
		operator string
		ttl      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Mint an operator token for the admin API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if operator == "" {
				return errors.New("--operator is required")
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			tokens := auth.NewTokenService(auth.TokenConfig{SigningKey: cfg.OperatorSigningKey})
			token, expiresAt, err := tokens.Issue(operator, ttl)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&operator, "operator", "", "operator name recorded in audit logs")
	cmd.Flags().DurationVar(&ttl, "ttl", auth.DefaultTokenTTL, "token lifetime")
	return cmd
}
