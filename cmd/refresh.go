package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// refreshCmd recomputes the hot index once.
var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Recompute every hot score from the current time",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		n, err := engine.RefreshHotness(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "refreshed %d videos\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(refreshCmd)
}
