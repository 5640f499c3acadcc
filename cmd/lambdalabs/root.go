package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmcwhorter/lambdalabs-cli/internal/api"
	"github.com/rmcwhorter/lambdalabs-cli/internal/config"
	"github.com/rmcwhorter/lambdalabs-cli/internal/crontab"
	"github.com/rmcwhorter/lambdalabs-cli/internal/logger"
	"github.com/rmcwhorter/lambdalabs-cli/internal/scheduler"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lambdalabs",
	Short: "Lambdalabs - Lambda Cloud GPU instance manager",
	Long: `Lambdalabs manages GPU instances, filesystems and SSH keys on Lambda
Cloud, and schedules lifecycle actions through the user's crontab.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(instancesCmd)
	rootCmd.AddCommand(filesystemsCmd)
	rootCmd.AddCommand(sshKeysCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(infoCmd)
}

// loadConfig reads the configuration file, creating it with defaults on
// first run.
func loadConfig() *config.Config {
	path, err := config.DefaultPath()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(cfg *config.Config) *logger.Logger {
	lc := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if lc.Level == "" {
		lc.Level = "warn"
	}
	if lc.Format == "" {
		lc.Format = "text"
	}
	if lc.Output == "" {
		lc.Output = "stderr"
	}
	log, err := logger.New(lc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return log
}

// newClient builds the API client, refusing to proceed without an API key.
func newClient(cfg *config.Config, log *logger.Logger) *api.Client {
	if cfg.APIKey == "" {
		fmt.Fprintln(os.Stderr, "Error: no API key configured")
		fmt.Fprintln(os.Stderr, "Run: lambdalabs config set-api-key <key>")
		os.Exit(1)
	}
	return api.New(cfg.APIKey, log)
}

// newRegistry wires the job registry over the user's crontab. The
// LAMBDALABS_CRONTAB environment variable redirects the store to a plain
// file for systems without a crontab binary.
func newRegistry(log *logger.Logger) *scheduler.Registry {
	var source crontab.Source = crontab.UserCrontab{}
	if path := os.Getenv("LAMBDALABS_CRONTAB"); path != "" {
		source = crontab.FileSource{Path: path}
	}

	entrypoint, err := os.Executable()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot resolve executable path: %v\n", err)
		os.Exit(1)
	}

	store := crontab.New(source, log)
	return scheduler.New(store, entrypoint, scheduler.WithLogger(log))
}
