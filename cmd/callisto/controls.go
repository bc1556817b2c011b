package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/callisto/pkg/cli"
	"mercator-hq/callisto/pkg/config"
)

var controlsFlags struct {
	framework string
	format    string
}

var controlsCmd = &cobra.Command{
	Use:   "controls",
	Short: "Inspect the control catalog",
	Long: `Inspect the control catalog the engine would serve.

The catalog is loaded from the source configured in the config file
(builtin, file, or git), exactly as the run command would load it.

Examples:
  # List all frameworks and controls
  callisto controls list

  # List controls for one framework
  callisto controls list --framework gdpr

  # Machine-readable output
  callisto controls list --format json`,
}

var controlsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered frameworks and controls",
	RunE:  listControls,
}

func init() {
	rootCmd.AddCommand(controlsCmd)
	controlsCmd.AddCommand(controlsListCmd)

	controlsListCmd.Flags().StringVar(&controlsFlags.framework, "framework", "", "limit output to one framework")
	controlsListCmd.Flags().StringVar(&controlsFlags.format, "format", "text", "output format: text, json, csv")
}

// controlListing is the JSON shape of the list output.
type controlListing struct {
	CatalogVersion string             `json:"catalog_version,omitempty"`
	Frameworks     []frameworkListing `json:"frameworks"`
}

type frameworkListing struct {
	Name     string           `json:"name"`
	Controls []controlDetails `json:"controls"`
}

type controlDetails struct {
	ID       string `json:"id"`
	Title    string `json:"title,omitempty"`
	Citation string `json:"citation,omitempty"`
}

func listControls(cmd *cobra.Command, args []string) error {
	if err := config.Initialize(cfgFile); err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	cfg := config.GetConfig()

	reg, err := buildRegistry(context.Background(), cfg)
	if err != nil {
		return cli.NewCommandError("controls", err)
	}

	frameworks := reg.Frameworks()
	if controlsFlags.framework != "" {
		frameworks = []string{controlsFlags.framework}
	}

	listing := controlListing{CatalogVersion: reg.CatalogVersion()}
	for _, name := range frameworks {
		controls := reg.Controls(name)
		if len(controls) == 0 {
			return fmt.Errorf("unknown framework: %s", name)
		}

		fl := frameworkListing{Name: name}
		for _, ctrl := range controls {
			fl.Controls = append(fl.Controls, controlDetails{
				ID:       ctrl.ID,
				Title:    ctrl.Title,
				Citation: ctrl.Citation,
			})
		}
		listing.Frameworks = append(listing.Frameworks, fl)
	}

	switch cli.OutputFormat(controlsFlags.format) {
	case cli.FormatJSON:
		formatter := &cli.JSONFormatter{Indent: true}
		return formatter.FormatTo(os.Stdout, listing)

	case cli.FormatCSV:
		formatter := &cli.CSVFormatter{Headers: []string{"framework", "control_id", "title", "citation"}}
		rows := make([][]string, 0)
		for _, fl := range listing.Frameworks {
			for _, ctrl := range fl.Controls {
				rows = append(rows, []string{fl.Name, ctrl.ID, ctrl.Title, ctrl.Citation})
			}
		}
		return formatter.FormatTo(os.Stdout, rows)

	default:
		if listing.CatalogVersion != "" {
			fmt.Printf("Catalog version: %s\n\n", listing.CatalogVersion)
		}
		for _, fl := range listing.Frameworks {
			fmt.Printf("%s (%d controls)\n", fl.Name, len(fl.Controls))
			for _, ctrl := range fl.Controls {
				fmt.Printf("  %-12s %s", ctrl.ID, ctrl.Title)
				if ctrl.Citation != "" {
					fmt.Printf(" [%s]", ctrl.Citation)
				}
				fmt.Println()
			}
			fmt.Println()
		}
		return nil
	}
}
