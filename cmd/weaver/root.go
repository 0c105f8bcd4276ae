package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/alvmarrod/graph-weaver/internal/config"
	"github.com/alvmarrod/graph-weaver/internal/extract"
	"github.com/alvmarrod/graph-weaver/internal/fetch"
	"github.com/alvmarrod/graph-weaver/internal/storage"
	"github.com/alvmarrod/graph-weaver/internal/version"
	"github.com/alvmarrod/graph-weaver/internal/weaver"
)

const defaultConfigPath = "config.json"

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weaver",
		Short: "Crawl the web into a ranked entity graph",
		Long: `graph-weaver crawls from seed URLs, extracts links and email addresses
into a weighted graph, and ranks the most relevant entities per domain.

Configuration is read from --config (JSON or YAML), falling back to
config.json when present, and WEAVER_* environment variables (a .env file
in the working directory is loaded first).`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringP("config", "c", "", "Path to a JSON or YAML config file")
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewRankCmd())
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewSnapshotsCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig resolves the configuration for a command and configures logging from it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		if _, err := os.Stat(defaultConfigPath); err == nil {
			path = defaultConfigPath
		}
	}

	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadConfig(path)
	} else {
		cfg, err = config.FromEnv()
	}
	if err != nil {
		return nil, err
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	setupLogging(cfg.LogLevel, verbose)

	if path != "" {
		logrus.Infof("Configuration loaded from %s", path)
	}
	return cfg, nil
}

func setupLogging(level string, verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", level)
		lvl = logrus.InfoLevel
	}
	if verbose {
		lvl = logrus.DebugLevel
	}
	logrus.SetLevel(lvl)
}

// newService opens the snapshot database and assembles the graph service.
// The caller closes the returned storage.
func newService(cfg *config.Config) (*weaver.Service, *storage.Storage, error) {
	db, err := storage.NewStorage(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}
	logrus.Infof("Database initialized: %s", cfg.DBPath)

	fetcher := fetch.NewCollyFetcher(fetch.Options{
		Timeout:           cfg.RequestTimeout(),
		UserAgent:         cfg.UserAgent,
		Headers:           cfg.Headers,
		MaxBodyBytes:      cfg.MaxBodyBytes,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})

	return weaver.NewService(cfg, fetcher, extract.DefaultRegistry(), db), db, nil
}
