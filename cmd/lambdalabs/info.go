package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rmcwhorter/lambdalabs-cli/internal/render"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show available instance types and regions",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		client := newClient(cfg, newLogger(cfg))
		ctx := cmd.Context()

		types, err := client.ListInstanceTypes(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		columns := []render.Column{
			{Header: "TYPE"}, {Header: "GPUS"}, {Header: "VCPUS"},
			{Header: "MEMORY"}, {Header: "$/HR"}, {Header: "AVAILABLE IN"},
		}
		rows := make([][]string, 0, len(types))
		for _, it := range types {
			regions := make([]string, 0, len(it.RegionsAvailable))
			for _, r := range it.RegionsAvailable {
				regions = append(regions, r.Name)
			}
			available := strings.Join(regions, ", ")
			if available == "" {
				available = "-"
			}
			rows = append(rows, []string{
				it.Name,
				fmt.Sprintf("%d", it.Specs.GPUs),
				fmt.Sprintf("%d", it.Specs.VCPUs),
				fmt.Sprintf("%d GiB", it.Specs.MemoryGiB),
				fmt.Sprintf("%.2f", float64(it.PriceCentsPerHour)/100),
				available,
			})
		}
		render.TitledTable(os.Stdout, "Instance types", columns, rows)

		regions, err := client.ListRegions(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		names := make([]string, 0, len(regions))
		for _, r := range regions {
			names = append(names, r.Name)
		}
		fmt.Printf("\nRegions: %s\n", strings.Join(names, ", "))
	},
}
