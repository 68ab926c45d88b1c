package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var matchmakeCmd = &cobra.Command{
	Use:   "matchmake",
	Short: "Report which recordings would be merged together",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, err := newPipeline().MatchmakeAll()
		if err != nil {
			return err
		}
		for day, matches := range all {
			for out, pair := range matches {
				rel, err := filepath.Rel(day, out)
				if err != nil {
					rel = out
				}
				fmt.Printf("%s = %s + %s\n", rel, stem(pair.Left.Path), stem(pair.Right.Path))
			}
		}
		return nil
	},
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
