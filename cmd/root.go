// Package cmd implements the autosync-voice command-line interface.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/t184256/autosync-voice/internal/config"
	"github.com/t184256/autosync-voice/internal/pipeline"
)

var (
	cfg          *config.Config
	cfgFile      string
	verboseLevel int
)

// Commands operating on explicitly given files run without a config.
var configlessCommands = map[string]bool{
	"sync":    true,
	"export":  true,
	"enhance": true,
	"help":    true,
}

var rootCmd = &cobra.Command{
	Use:   "autosync-voice",
	Short: "Sync, merge and clean up multi-device voice recordings",
	Long: `autosync-voice imports recordings from plugged-in recorders, finds
recordings of the same session captured by different devices, aligns them by
cross-correlating their leading audio and merges each pair into one stereo
file, then exports and de-noises everything that has not been handled yet.

Running it with no arguments does all of the above once.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(verboseLevel)

		if configlessCommands[cmd.Name()] {
			return nil
		}

		if cfgFile == "" {
			cfgFile = os.Getenv("AUTOSYNC_VOICE_CONFIG")
		}
		if cfgFile == "" {
			cfgFile = os.ExpandEnv("$HOME/.config/autosync-voice.yaml")
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Bare invocation does everything once.
		return runCmd.RunE(cmd, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $AUTOSYNC_VOICE_CONFIG or $HOME/.config/autosync-voice.yaml)")
	rootCmd.PersistentFlags().IntVarP(&verboseLevel, "verbose", "v", 0,
		"verbose level: 0=info, 1=debug, 2=external tool output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(devicesCmd)
	rootCmd.AddCommand(matchmakeCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(syncAllCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(exportAllCmd)
	rootCmd.AddCommand(enhanceCmd)
	rootCmd.AddCommand(enhanceAllCmd)
}

func newPipeline() *pipeline.Pipeline {
	return pipeline.New(cfg)
}

// setupLogging configures slog based on the verbose level.
func setupLogging(level int) {
	slogLevel := slog.LevelInfo
	if level >= 1 {
		slogLevel = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: slogLevel,
	}
	handler := slog.NewTextHandler(os.Stderr, opts)
	slog.SetDefault(slog.New(handler))

	if level >= 2 {
		os.Setenv("FFMPEG_LOGLEVEL", "debug")
	}
}
