package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/t184256/autosync-voice/internal/enhance"
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance OUT IN",
	Short: "Improve a single recording (de-noise, etc)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return enhance.New().Enhance(context.Background(), args[0], args[1])
	},
}

var enhanceAllCmd = &cobra.Command{
	Use:   "enhance-all",
	Short: "Improve all recordings that were not enhanced yet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline().EnhanceAll(context.Background())
	},
}
