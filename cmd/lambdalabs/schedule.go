package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmcwhorter/lambdalabs-cli/internal/render"
	"github.com/rmcwhorter/lambdalabs-cli/internal/scheduler"
)

// scheduleCmd represents the schedule command
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage scheduled instance lifecycle jobs",
	Long: `Schedule manages crontab entries that terminate or launch instances
at fixed times. Entries created by other tools are never touched.`,
}

var scheduleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List scheduled jobs",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		jobs, err := registry.List()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if len(jobs) == 0 {
			fmt.Println("No scheduled jobs")
			return
		}

		columns := []render.Column{
			{Header: "ID"}, {Header: "SCHEDULE"}, {Header: "ACTION"},
			{Header: "ENABLED"}, {Header: "DESCRIPTION"},
		}
		rows := make([][]string, 0, len(jobs))
		for _, job := range jobs {
			enabled := "yes"
			if !job.Enabled {
				enabled = "no"
			}
			rows = append(rows, []string{
				job.ID, job.Schedule, string(job.Action), enabled, job.Description,
			})
		}
		render.Table(os.Stdout, columns, rows)
	},
}

var scheduleAddDescription string

var scheduleAddGenericCmd = &cobra.Command{
	Use:   "add <cron> <action> [key=value ...]",
	Short: "Schedule an action by name",
	Long: `Schedule any supported action on a cron expression, passing its
parameters as key=value pairs. Actions: terminate_instance (instance_id),
terminate_instance_by_name (instance_name), terminate_all,
create_instance (instance_type, region, name, optional filesystem).

Example:
  lambdalabs schedule add "0 18 * * 1-5" terminate_all
  lambdalabs schedule add "0 9 * * *" create_instance instance_type=gpu_1x_a100 region=us-east-1 name=dev`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		kv, err := parseParamArgs(args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		params, err := scheduler.ParamsFor(args[1], kv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		description := scheduleAddDescription
		if description == "" {
			description = fmt.Sprintf("Scheduled %s", args[1])
		}

		id, err := registry.Add(params, args[0], description)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Scheduled %s (job %s)\n", args[1], id)
	},
}

// parseParamArgs converts trailing key=value arguments into the parameter
// map ParamsFor consumes.
func parseParamArgs(args []string) (map[string]string, error) {
	kv := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("expected key=value, got %q", arg)
		}
		kv[key] = value
	}
	return kv, nil
}

var (
	termInstanceID  string
	termInMinutes   int
	termAtTime      string
	termDescription string
)

var scheduleAddTerminationCmd = &cobra.Command{
	Use:   "add-termination",
	Short: "Schedule a one-time termination",
	Long: `Schedule a one-time termination of a single instance (--instance-id)
or of every instance (no --instance-id). Exactly one of --in or --at
selects the firing time.

The schedule is a fully pinned cron entry without a year field, so an
entry left in place will fire again on the same date next year. Remove
fired entries with: lambdalabs schedule remove <id>`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		id, target, err := registry.AddTimeBasedTermination(
			termInstanceID, termInMinutes, termAtTime, termDescription)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		what := "all instances"
		if termInstanceID != "" {
			what = termInstanceID
		}
		fmt.Printf("Scheduled termination of %s at %s (job %s)\n",
			what, target.Format("2006-01-02 15:04"), id)
	},
}

var (
	startupType        string
	startupRegion      string
	startupName        string
	startupFilesystem  string
	startupCron        string
	startupDescription string
)

var scheduleAddStartupCmd = &cobra.Command{
	Use:   "add-startup",
	Short: "Schedule recurring instance creation",
	Long: `Schedule a recurring cron entry that launches an instance. The entry
uses create-if-absent semantics, so firings after the instance is
already running do nothing.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		if startupCron == "" {
			fmt.Fprintln(os.Stderr, "Error: --cron is required")
			os.Exit(1)
		}
		params := scheduler.CreateInstanceParams{
			InstanceType: startupType,
			Region:       startupRegion,
			Name:         startupName,
			Filesystem:   startupFilesystem,
		}
		description := startupDescription
		if description == "" {
			description = fmt.Sprintf("Launch %s in %s", startupName, startupRegion)
		}

		id, err := registry.Add(params, startupCron, description)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Scheduled startup of %s (job %s)\n", startupName, id)
	},
}

var (
	recurInstanceID   string
	recurInstanceName string
	recurAll          bool
	recurCron         string
	recurDescription  string
)

var scheduleAddRecurringTerminationCmd = &cobra.Command{
	Use:   "add-recurring-termination",
	Short: "Schedule recurring termination",
	Long: `Schedule a recurring cron entry that terminates an instance by ID
(--instance-id), by name (--instance-name), or every instance (--all).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		if recurCron == "" {
			fmt.Fprintln(os.Stderr, "Error: --cron is required")
			os.Exit(1)
		}

		var params scheduler.ActionParams
		var what string
		switch {
		case recurAll && recurInstanceID == "" && recurInstanceName == "":
			params = scheduler.TerminateAllParams{}
			what = "all instances"
		case recurInstanceID != "" && !recurAll && recurInstanceName == "":
			params = scheduler.TerminateInstanceParams{InstanceID: recurInstanceID}
			what = recurInstanceID
		case recurInstanceName != "" && !recurAll && recurInstanceID == "":
			params = scheduler.TerminateByNameParams{InstanceName: recurInstanceName}
			what = recurInstanceName
		default:
			fmt.Fprintln(os.Stderr, "Error: give exactly one of --instance-id, --instance-name, --all")
			os.Exit(1)
		}

		description := recurDescription
		if description == "" {
			description = fmt.Sprintf("Terminate %s on schedule", what)
		}

		id, err := registry.Add(params, recurCron, description)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Scheduled recurring termination of %s (job %s)\n", what, id)
	},
}

var scheduleRemoveCmd = &cobra.Command{
	Use:   "remove <job-id>",
	Short: "Remove a scheduled job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		found, err := registry.Remove(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !found {
			fmt.Printf("No job with ID %s\n", args[0])
			return
		}
		fmt.Printf("Removed job %s\n", args[0])
	},
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <job-id>",
	Short: "Enable a disabled job",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		found, err := registry.Enable(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !found {
			fmt.Printf("No job with ID %s\n", args[0])
			return
		}
		fmt.Printf("Enabled job %s\n", args[0])
	},
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable <job-id>",
	Short: "Disable a job without removing it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		found, err := registry.Disable(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !found {
			fmt.Printf("No job with ID %s\n", args[0])
			return
		}
		fmt.Printf("Disabled job %s\n", args[0])
	},
}

var scheduleClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every scheduled job owned by this tool",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		registry := newRegistry(newLogger(cfg))

		count, err := registry.ClearAll()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Removed %d job(s)\n", count)
	},
}

func init() {
	scheduleAddGenericCmd.Flags().StringVar(&scheduleAddDescription, "description", "", "job description")

	scheduleAddTerminationCmd.Flags().StringVar(&termInstanceID, "instance-id", "", "instance to terminate (default: all)")
	scheduleAddTerminationCmd.Flags().IntVar(&termInMinutes, "in", 0, "terminate after this many minutes")
	scheduleAddTerminationCmd.Flags().StringVar(&termAtTime, "at", "", "terminate at this time (HH:MM)")
	scheduleAddTerminationCmd.Flags().StringVar(&termDescription, "description", "", "job description")

	scheduleAddStartupCmd.Flags().StringVar(&startupType, "type", "", "instance type name")
	scheduleAddStartupCmd.Flags().StringVar(&startupRegion, "region", "", "region name")
	scheduleAddStartupCmd.Flags().StringVar(&startupName, "name", "", "instance name")
	scheduleAddStartupCmd.Flags().StringVar(&startupFilesystem, "filesystem", "", "filesystem to attach")
	scheduleAddStartupCmd.Flags().StringVar(&startupCron, "cron", "", "five-field cron expression")
	scheduleAddStartupCmd.Flags().StringVar(&startupDescription, "description", "", "job description")

	scheduleAddRecurringTerminationCmd.Flags().StringVar(&recurInstanceID, "instance-id", "", "instance to terminate")
	scheduleAddRecurringTerminationCmd.Flags().StringVar(&recurInstanceName, "instance-name", "", "instance name to terminate")
	scheduleAddRecurringTerminationCmd.Flags().BoolVar(&recurAll, "all", false, "terminate every instance")
	scheduleAddRecurringTerminationCmd.Flags().StringVar(&recurCron, "cron", "", "five-field cron expression")
	scheduleAddRecurringTerminationCmd.Flags().StringVar(&recurDescription, "description", "", "job description")

	scheduleCmd.AddCommand(scheduleListCmd)
	scheduleCmd.AddCommand(scheduleAddGenericCmd)
	scheduleCmd.AddCommand(scheduleAddTerminationCmd)
	scheduleCmd.AddCommand(scheduleAddStartupCmd)
	scheduleCmd.AddCommand(scheduleAddRecurringTerminationCmd)
	scheduleCmd.AddCommand(scheduleRemoveCmd)
	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleDisableCmd)
	scheduleCmd.AddCommand(scheduleClearCmd)
}
