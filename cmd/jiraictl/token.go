package main

import (
	"errors"
	"fmt"
	"time"

	"jirai-backend/pkg/auth"

	"github.com/spf13/cobra"
)

func newTokenCmd(flags *globalFlags) *cobra.Command {
	var (
		user  string
		email string
		role  string
		ttl   time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a development token accepted by the jwt verifier",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if user == "" {
				return errors.New("--user is required")
			}
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			if cfg.IsProduction() {
				return errors.New("refusing to sign tokens for production")
			}
			token, err := auth.NewIssuer(cfg.Security.JWTSecret, cfg.Security.JWTIssuer, cfg.Security.JWTAudience, ttl).
				Sign(auth.Principal{UserID: user, Email: email, Role: role})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "subject of the token")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", "authenticated", "role claim")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	return cmd
}
