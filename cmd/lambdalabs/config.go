package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmcwhorter/lambdalabs-cli/internal/render"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View and modify the Lambdalabs configuration file.`,
}

var configSetAPIKeyCmd = &cobra.Command{
	Use:   "set-api-key <key>",
	Short: "Store the Lambda Cloud API key",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		cfg.APIKey = args[0]
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("API key saved")
	},
}

var configGetAPIKeyCmd = &cobra.Command{
	Use:   "get-api-key",
	Short: "Print the stored API key (redacted)",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		if cfg.APIKey == "" {
			fmt.Println("No API key configured")
			return
		}
		fmt.Println(cfg.RedactedAPIKey())
	},
}

var configSetSSHDirCmd = &cobra.Command{
	Use:   "set-ssh-dir <path>",
	Short: "Set the directory scanned for SSH public keys",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		cfg.SSHDir = args[0]
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("SSH directory set to %s\n", cfg.SSHDir)
	},
}

var configShowFull bool

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()

		key := cfg.RedactedAPIKey()
		if configShowFull {
			key = cfg.APIKey
		}
		if cfg.APIKey == "" {
			key = "(not set)"
		}
		filesystem := cfg.DefaultFilesystem
		if filesystem == "" {
			filesystem = "(none)"
		}

		render.KeyValues(os.Stdout, [][2]string{
			{"API key", key},
			{"SSH directory", cfg.SSHDir},
			{"Default filesystem", filesystem},
		})

		for _, err := range cfg.Validate() {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	},
}

var configRotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the API key and store the replacement",
	Long: `Ask Lambda Cloud for a new API key, invalidating the current one,
and persist the replacement to the configuration file.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		log := newLogger(cfg)
		client := newClient(cfg, log)

		newKey, err := client.RotateAPIKey(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cfg.APIKey = newKey
		if err := cfg.Save(); err != nil {
			// The old key is already invalid at this point, so losing the
			// new one locks the user out. Print it before failing.
			fmt.Fprintf(os.Stderr, "Error: key rotated but could not be saved: %v\n", err)
			fmt.Fprintf(os.Stderr, "New key (store it manually): %s\n", newKey)
			os.Exit(1)
		}
		fmt.Println("API key rotated and saved")
	},
}

func init() {
	configShowCmd.Flags().BoolVar(&configShowFull, "full", false, "print the API key unredacted")

	configCmd.AddCommand(configSetAPIKeyCmd)
	configCmd.AddCommand(configGetAPIKeyCmd)
	configCmd.AddCommand(configSetSSHDirCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configRotateCmd)
}
