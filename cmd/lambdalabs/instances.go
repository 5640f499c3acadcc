package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmcwhorter/lambdalabs-cli/internal/api"
	"github.com/rmcwhorter/lambdalabs-cli/internal/config"
	"github.com/rmcwhorter/lambdalabs-cli/internal/render"
)

// instancesCmd represents the instances command
var instancesCmd = &cobra.Command{
	Use:   "instances",
	Short: "Manage GPU instances",
}

var instancesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List running instances",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))

		instances, err := client.ListInstances(context.Background())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(instances) == 0 {
			fmt.Println("No instances running")
			return
		}
		printInstances(instances)
	},
}

func printInstances(instances []api.Instance) {
	columns := []render.Column{
		{Header: "ID"}, {Header: "NAME"}, {Header: "TYPE"},
		{Header: "REGION"}, {Header: "STATUS"}, {Header: "IP"},
	}
	rows := make([][]string, 0, len(instances))
	for _, inst := range instances {
		rows = append(rows, []string{
			inst.ID, inst.Name, inst.InstanceType.Name,
			inst.Region.Name, inst.Status, inst.IP,
		})
	}
	render.Table(os.Stdout, columns, rows)
}

var (
	createType       string
	createRegion     string
	createName       string
	createFilesystem string
)

var instancesCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Launch a new instance",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))

		id := launchInstance(cmd.Context(), client, cfg)
		fmt.Printf("Launched instance %s\n", id)
	},
}

var instancesEnsureCmd = &cobra.Command{
	Use:   "ensure",
	Short: "Launch an instance unless one with the given name is running",
	Long: `Ensure launches an instance only when no instance with the given
name exists. Scheduled creation uses this form so a recurring entry
never produces duplicates.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))
		ctx := cmd.Context()

		if createName == "" {
			fmt.Fprintln(os.Stderr, "Error: --name is required")
			os.Exit(1)
		}

		existing, err := client.ListInstances(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, inst := range existing {
			if inst.Name == createName {
				fmt.Printf("Instance %s already exists (%s), nothing to do\n", createName, inst.ID)
				return
			}
		}

		id := launchInstance(ctx, client, cfg)
		fmt.Printf("Launched instance %s\n", id)
	},
}

// launchInstance performs a launch with the shared create flags, registering
// the local SSH key on first use.
func launchInstance(ctx context.Context, client *api.Client, cfg *config.Config) string {
	if createType == "" || createRegion == "" {
		fmt.Fprintln(os.Stderr, "Error: --type and --region are required")
		os.Exit(1)
	}

	keyNames, err := sshKeyNames(ctx, client, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	req := api.LaunchRequest{
		InstanceTypeName: createType,
		RegionName:       createRegion,
		SSHKeyNames:      keyNames,
		Name:             createName,
	}
	filesystem := createFilesystem
	if filesystem == "" {
		filesystem = cfg.DefaultFilesystem
	}
	if filesystem != "" {
		req.FilesystemNames = []string{filesystem}
	}

	ids, err := client.LaunchInstance(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Fprintln(os.Stderr, "Error: launch returned no instance IDs")
		os.Exit(1)
	}
	return ids[0]
}

// sshKeyNames returns the names of all registered SSH keys, registering the
// local public key as "default" when the account has none.
func sshKeyNames(ctx context.Context, client *api.Client, cfg *config.Config) ([]string, error) {
	keys, err := client.ListSSHKeys(ctx)
	if err != nil {
		return nil, err
	}
	if len(keys) > 0 {
		names := make([]string, 0, len(keys))
		for _, key := range keys {
			names = append(names, key.Name)
		}
		return names, nil
	}

	publicKey, err := cfg.SSHPublicKey()
	if err != nil {
		return nil, err
	}
	if publicKey == "" {
		return nil, fmt.Errorf("no SSH keys registered and none found in %s", cfg.SSHDir)
	}
	key, err := client.AddSSHKey(ctx, "default", publicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to register local SSH key: %w", err)
	}
	fmt.Printf("Registered local SSH key as %q\n", key.Name)
	return []string{key.Name}, nil
}

var instancesTerminateCmd = &cobra.Command{
	Use:   "terminate <instance-id>...",
	Short: "Terminate instances by ID",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))

		terminated, err := client.TerminateInstances(cmd.Context(), args...)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, inst := range terminated {
			fmt.Printf("Terminating %s\n", inst.ID)
		}
	},
}

var instancesTerminateByNameCmd = &cobra.Command{
	Use:   "terminate-by-name <name>",
	Short: "Terminate the instance with the given name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))
		ctx := cmd.Context()
		name := args[0]

		instances, err := client.ListInstances(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		var matches []api.Instance
		for _, inst := range instances {
			if inst.Name == name {
				matches = append(matches, inst)
			}
		}
		switch len(matches) {
		case 0:
			fmt.Fprintf(os.Stderr, "Error: no instance named %q\n", name)
			os.Exit(1)
		case 1:
			// fallthrough to terminate
		default:
			ids := make([]string, 0, len(matches))
			for _, inst := range matches {
				ids = append(ids, inst.ID)
			}
			fmt.Fprintf(os.Stderr, "Error: %d instances named %q: %s\n",
				len(matches), name, strings.Join(ids, ", "))
			fmt.Fprintln(os.Stderr, "Use `instances terminate <id>` to pick one")
			os.Exit(1)
		}

		if _, err := client.TerminateInstances(ctx, matches[0].ID); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Terminating %s (%s)\n", name, matches[0].ID)
	},
}

var terminateAllYes bool

var instancesTerminateAllCmd = &cobra.Command{
	Use:   "terminate-all",
	Short: "Terminate every running instance",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))
		ctx := cmd.Context()

		if !terminateAllYes && !confirm("Terminate ALL instances? [y/N] ") {
			fmt.Println("Aborted")
			return
		}

		terminated, err := client.TerminateAllInstances(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(terminated) == 0 {
			fmt.Println("No instances to terminate")
			return
		}
		for _, inst := range terminated {
			fmt.Printf("Terminating %s (%s)\n", inst.ID, inst.Name)
		}
	},
}

func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func init() {
	for _, c := range []*cobra.Command{instancesCreateCmd, instancesEnsureCmd} {
		c.Flags().StringVar(&createType, "type", "", "instance type name")
		c.Flags().StringVar(&createRegion, "region", "", "region name")
		c.Flags().StringVar(&createName, "name", "", "instance name")
		c.Flags().StringVar(&createFilesystem, "filesystem", "", "filesystem to attach")
	}
	instancesTerminateAllCmd.Flags().BoolVar(&terminateAllYes, "yes", false, "skip the confirmation prompt")

	instancesCmd.AddCommand(instancesListCmd)
	instancesCmd.AddCommand(instancesCreateCmd)
	instancesCmd.AddCommand(instancesEnsureCmd)
	instancesCmd.AddCommand(instancesTerminateCmd)
	instancesCmd.AddCommand(instancesTerminateByNameCmd)
	instancesCmd.AddCommand(instancesTerminateAllCmd)
}
