package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/t184256/autosync-voice/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export OUT IN",
	Short: "Export a single recording",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return export.New().Export(context.Background(), args[0], args[1])
	},
}

var exportAllCmd = &cobra.Command{
	Use:   "export-all",
	Short: "Export all recordings that were not exported yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline().ExportAll(context.Background())
	},
}
