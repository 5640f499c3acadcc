package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmcwhorter/lambdalabs-cli/internal/render"
)

// filesystemsCmd represents the filesystems command
var filesystemsCmd = &cobra.Command{
	Use:   "filesystems",
	Short: "Manage persistent filesystems",
}

var filesystemsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List filesystems",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))

		filesystems, err := client.ListFilesystems(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(filesystems) == 0 {
			fmt.Println("No filesystems")
			return
		}

		columns := []render.Column{
			{Header: "ID"}, {Header: "NAME"}, {Header: "REGION"},
			{Header: "IN USE"}, {Header: "DEFAULT"},
		}
		rows := make([][]string, 0, len(filesystems))
		for _, fs := range filesystems {
			inUse := ""
			if fs.IsInUse {
				inUse = "yes"
			}
			isDefault := ""
			if fs.Name == cfg.DefaultFilesystem {
				isDefault = "*"
			}
			rows = append(rows, []string{fs.ID, fs.Name, fs.Region.Name, inUse, isDefault})
		}
		render.Table(os.Stdout, columns, rows)
	},
}

var filesystemRegion string

var filesystemsCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a filesystem",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))

		if filesystemRegion == "" {
			fmt.Fprintln(os.Stderr, "Error: --region is required")
			os.Exit(1)
		}
		fs, err := client.CreateFilesystem(cmd.Context(), args[0], filesystemRegion)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Created filesystem %s (%s)\n", fs.Name, fs.ID)
	},
}

var filesystemsDeleteCmd = &cobra.Command{
	Use:   "delete <name-or-id>",
	Short: "Delete a filesystem",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))
		ctx := cmd.Context()
		target := args[0]

		filesystems, err := client.ListFilesystems(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		id := ""
		for _, fs := range filesystems {
			if fs.ID == target || fs.Name == target {
				id = fs.ID
				break
			}
		}
		if id == "" {
			fmt.Fprintf(os.Stderr, "Error: no filesystem %q\n", target)
			os.Exit(1)
		}

		if err := client.DeleteFilesystem(ctx, id); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Deleted filesystem %s\n", target)
	},
}

var filesystemsSetDefaultCmd = &cobra.Command{
	Use:   "set-default <name>",
	Short: "Set the filesystem attached to new instances by default",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		cfg.DefaultFilesystem = args[0]
		if err := cfg.Save(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Default filesystem set to %s\n", args[0])
	},
}

func init() {
	filesystemsCreateCmd.Flags().StringVar(&filesystemRegion, "region", "", "region name")

	filesystemsCmd.AddCommand(filesystemsListCmd)
	filesystemsCmd.AddCommand(filesystemsCreateCmd)
	filesystemsCmd.AddCommand(filesystemsDeleteCmd)
	filesystemsCmd.AddCommand(filesystemsSetDefaultCmd)
}
