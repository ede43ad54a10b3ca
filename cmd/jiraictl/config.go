package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

func newConfigCmd(flags *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the layered configuration",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Load and validate the configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "configuration for %s is valid\n", cfg.Environment)
			fmt.Fprintf(out, "sources: %s\n", strings.Join(cfg.LoadedFrom, ", "))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := flags.load()
			if err != nil {
				return err
			}
			masked := *cfg
			mask(&masked.Security.JWTSecret)
			mask(&masked.Supabase.ServiceKey)
			mask(&masked.Redis.Password)
			mask(&masked.Search.APIKey)
			mask(&masked.Attachments.SecretKey)
			mask(&masked.Postgres.DSN)

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(masked)
		},
	})
	return cmd
}

func mask(s *string) {
	if *s != "" {
		*s = redacted
	}
}
