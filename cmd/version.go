package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show backend and engine versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, _, err := newBackend()
		if err != nil {
			return err
		}
		fmt.Printf("backend: %s\n", b.Name())
		fmt.Printf("engine:  %s\n", b.VersionText())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
