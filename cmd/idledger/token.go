package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"idledger/internal/platform/auth"
	"idledger/internal/platform/config"
	"idledger/pkg/domain"
)

func tokenCommand() *cobra.Command {
	var (
		address string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a caller token for local development",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())
			if cfg == nil {
				return fmt.Errorf("no config found in context")
			}
			caller, err := domain.ParseAddress(address)
			if err != nil {
				return fmt.Errorf("invalid --address: %w", err)
			}
			if ttl <= 0 {
				ttl = cfg.Auth.TokenTTL
			}
			token, err := auth.NewJWTService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.Audience).
				IssueToken(caller, ttl)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
	cmd.Flags().StringVar(&address, "address", "", "caller address the token asserts")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.tokenTTL)")
	_ = cmd.MarkFlagRequired("address")
	return cmd
}
