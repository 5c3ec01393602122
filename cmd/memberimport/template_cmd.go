package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mohammadpnp/member-import/internal/application/ingest"
	"github.com/mohammadpnp/member-import/internal/infrastructure/file"
)

func newTemplateCmd(root *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the member import CSV template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := file.NewLocalSource(".", 0).Write(cmd.Context(), out, ingest.GenerateTemplate())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Template written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", ingest.TemplateFileName, "output path")
	return cmd
}
