package cmd

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"videorank/internal/config"
	"videorank/worker"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the hotness refresher and the metrics endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		engine, rdb := newEngine(cfg)
		defer rdb.Close()

		if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
			cfg.Metrics.Addr = addr
		}

		ws := []worker.Worker{&worker.DecayRefresher{
			Engine:   engine,
			Interval: config.Duration(cfg.Ranking.RefreshInterval, 15*time.Minute),
		}}
		if cfg.Metrics.Addr != "" {
			slog.Info("serving metrics", "addr", cfg.Metrics.Addr)
			ws = append(ws, &worker.MetricsServer{Addr: cfg.Metrics.Addr})
		}

		// Signal handling for systemd
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return worker.NewManager(ws...).Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("metrics-addr", "", "listen address for /metrics (default: metrics.addr)")
	rootCmd.AddCommand(serveCmd)
}
