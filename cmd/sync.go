package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/t184256/autosync-voice/internal/syncer"
)

// defaultWindowSeconds is used when syncing explicit files without a config.
const defaultWindowSeconds = 30

var syncCmd = &cobra.Command{
	Use:   "sync OUT LEFT RIGHT",
	Short: "Sync together and merge a single pair of recordings",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return syncer.New(defaultWindowSeconds).Sync(context.Background(), args[0], args[1], args[2])
	},
}

var syncAllCmd = &cobra.Command{
	Use:   "sync-all",
	Short: "Sync together and merge all eligible pairs of recordings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return newPipeline().SyncAll(context.Background())
	},
}
