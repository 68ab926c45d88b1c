package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/t184256/autosync-voice/internal/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "Detect configured recorders among attached drives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		found, err := device.Detect(context.Background(), cfg.Devices)
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fmt.Println("no configured devices attached")
			return nil
		}
		for _, d := range found {
			fmt.Printf("%s: %s (detected %s)\n", d.Name, d.Node, d.Detected.Format("2006-01-02 15:04:05"))
		}
		return nil
	},
}
