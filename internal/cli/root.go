// Package cli implements the mdcache command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"mdcache/internal/client"
	"mdcache/internal/config"
	"mdcache/internal/util"
	"mdcache/pkg/mdcache"
)

// Global flags
var (
	configPath string
	cacheRoot  string
	logLevel   string
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "mdcache",
	Short: "Disk-backed read-through cache for market data",
	Long: `mdcache downloads time-series bars and options chains from the market-data
provider, persisting everything it fetches so repeated requests only hit the
network for the gaps.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config file (default: $MDCACHE_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&cacheRoot, "cache-root", "", "Override the cache root directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// setup loads .env and the config file, installs the logger, and builds
// a client. Called by every subcommand.
func setup() (*client.Client, *config.Config, error) {
	_ = godotenv.Load()

	path := configPath
	if path == "" {
		path = os.Getenv("MDCACHE_CONFIG")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if cacheRoot != "" {
		cfg.Cache.Root = cacheRoot
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}

	util.SetDefault(util.NewLogger(cfg.Logging.Level))

	c, err := mdcache.NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	return c, cfg, nil
}
