package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"videorank/internal/config"
	"videorank/internal/logging"
	"videorank/internal/ranking"
	"videorank/internal/redisclient"
	"videorank/internal/storage"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	output  string
	appCfg  config.Config
)

// rootCmd is the base command called without any subcommands.
var rootCmd = &cobra.Command{
	Use:          "videorank",
	Short:        "Ranked video catalog on Redis",
	Long:         "CLI for a video catalog ranked by votes, creation time and time-decayed hotness.",
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "table", "output format: table or yaml")
}

// envKeys are the settings that may be overridden with VIDEORANK_* variables,
// e.g. VIDEORANK_REDIS_ADDR.
var envKeys = []string{
	"app.log_level", "app.log_format",
	"redis.addr", "redis.username", "redis.password", "redis.db", "redis.dial_timeout",
	"redis.breaker.max_failures", "redis.breaker.open_timeout",
	"ranking.key_prefix", "ranking.transitions", "ranking.hot_gravity",
	"ranking.require_known_users", "ranking.max_per_page",
	"ranking.refresh_interval", "ranking.refresh_batch",
	"fixture.seed", "fixture.users", "fixture.videos", "fixture.votes",
	"fixture.max_age", "fixture.concurrency",
	"metrics.addr",
}

func initConfig() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	v := viper.GetViper()
	v.SetEnvPrefix("videorank")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, k := range envKeys {
		_ = v.BindEnv(k)
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/videorank")
		v.AddConfigPath("configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if !errors.As(err, &nf) {
			fmt.Fprintf(os.Stderr, "error reading config: %v\n", err)
			os.Exit(1)
		}
	} else {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", v.ConfigFileUsed())
	}

	if err := v.Unmarshal(&appCfg); err != nil {
		fmt.Fprintf(os.Stderr, "error parsing config: %v\n", err)
		os.Exit(1)
	}

	appCfg.FillDefaults()
	if err := appCfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}
	logging.Init(appCfg.App.LogLevel, appCfg.App.LogFormat)
}

// GetConfig exposes the loaded configuration to subcommands.
func GetConfig() config.Config {
	return appCfg
}

// newEngine wires the configured Redis client into a ranking engine.
// The caller closes the returned client.
func newEngine(cfg config.Config) (*ranking.Engine, *redis.Client) {
	rdb := redisclient.New(cfg.Redis)
	store := storage.NewRedisStore(rdb, cfg.Ranking.KeyPrefix)
	return ranking.NewEngine(store, ranking.OptionsFromConfig(cfg.Ranking)), rdb
}
