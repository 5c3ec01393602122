package main

import (
	"github.com/spf13/cobra"

	"github.com/mohammadpnp/member-import/internal/config"
)

type rootOptions struct {
	envFiles []string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "memberimport",
		Short:         "Import fishing club members from a spreadsheet",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", nil, "env files to load (default .env, .env.local)")

	cmd.AddCommand(newImportCmd(opts))
	cmd.AddCommand(newTemplateCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	return cmd
}

func (o *rootOptions) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(o.envFiles...)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
