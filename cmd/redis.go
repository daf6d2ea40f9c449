package cmd

import "github.com/spf13/cobra"

// redisCmd groups backend diagnostics.
var redisCmd = &cobra.Command{
	Use:   "redis",
	Short: "Inspect the Redis backend holding the catalog",
}

func init() {
	rootCmd.AddCommand(redisCmd)
}
