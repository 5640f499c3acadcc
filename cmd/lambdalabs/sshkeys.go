package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmcwhorter/lambdalabs-cli/internal/render"
)

// sshKeysCmd represents the ssh-keys command
var sshKeysCmd = &cobra.Command{
	Use:   "ssh-keys",
	Short: "Manage registered SSH keys",
}

var sshKeysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered SSH keys",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))

		keys, err := client.ListSSHKeys(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(keys) == 0 {
			fmt.Println("No SSH keys registered")
			return
		}

		columns := []render.Column{{Header: "ID"}, {Header: "NAME"}, {Header: "KEY"}}
		rows := make([][]string, 0, len(keys))
		for _, key := range keys {
			rows = append(rows, []string{key.ID, key.Name, truncateKey(key.PublicKey)})
		}
		render.Table(os.Stdout, columns, rows)
	},
}

func truncateKey(publicKey string) string {
	key := strings.TrimSpace(publicKey)
	if len(key) <= 48 {
		return key
	}
	return key[:48] + "..."
}

var (
	sshKeyName string
	sshKeyFile string
)

var sshKeysAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an SSH public key",
	Long: `Register an SSH public key with Lambda Cloud. Without --key-file the
key is discovered in the configured SSH directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))

		var publicKey string
		if sshKeyFile != "" {
			data, err := os.ReadFile(sshKeyFile)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			publicKey = strings.TrimSpace(string(data))
		} else {
			discovered, err := cfg.SSHPublicKey()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			if discovered == "" {
				fmt.Fprintf(os.Stderr, "Error: no public key found in %s\n", cfg.SSHDir)
				os.Exit(1)
			}
			publicKey = discovered
		}

		key, err := client.AddSSHKey(cmd.Context(), sshKeyName, publicKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Registered SSH key %s (%s)\n", key.Name, key.ID)
	},
}

func init() {
	sshKeysAddCmd.Flags().StringVar(&sshKeyName, "name", "default", "name for the key")
	sshKeysAddCmd.Flags().StringVar(&sshKeyFile, "key-file", "", "path to a public key file")

	sshKeysCmd.AddCommand(sshKeysListCmd)
	sshKeysCmd.AddCommand(sshKeysAddCmd)
}
