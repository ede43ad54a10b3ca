package main

import (
	"jirai-backend/internal/config"

	"github.com/spf13/cobra"
)

type globalFlags struct {
	configDir   string
	environment string
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:           "jiraictl",
		Short:         "Operate a Jirai backend",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "config", "directory holding base.yaml and the environment files")
	root.PersistentFlags().StringVar(&flags.environment, "env", string(config.Development), "environment to load")

	root.AddCommand(
		newConfigCmd(flags),
		newTokenCmd(flags),
		newTimelineCmd(flags),
	)
	return root
}

func (f *globalFlags) load() (*config.Config, error) {
	return config.NewLoader(f.configDir, config.Environment(f.environment)).Load()
}
