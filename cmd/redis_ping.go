package cmd

import (
	"context"
	"fmt"
	"time"

	"videorank/internal/redisclient"

	"github.com/spf13/cobra"
)

// pingCmd pings the configured Redis server.
var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Ping Redis and print PONG with the round trip time",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		rdb := redisclient.New(cfg.Redis)
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Second)
		defer cancel()

		start := time.Now()
		res, err := rdb.Ping(ctx).Result()
		if err != nil {
			return redisclient.Classify(err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s from %s in %s\n", res, cfg.Redis.Addr, time.Since(start).Round(time.Microsecond))
		return nil
	},
}

func init() {
	redisCmd.AddCommand(pingCmd)
}
