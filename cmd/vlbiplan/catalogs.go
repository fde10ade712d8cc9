package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signalsfoundry/vlbi-planner/catalog"
)

var (
	sourceCatalogPath    string
	telescopeCatalogPath string
)

var catalogsCmd = &cobra.Command{
	Use:   "catalogs",
	Short: "Load and summarize source and telescope catalogs",
	RunE:  runCatalogs,
}

func init() {
	catalogsCmd.Flags().StringVar(&sourceCatalogPath, "sources", "", "path to source catalog file")
	catalogsCmd.Flags().StringVar(&telescopeCatalogPath, "telescopes", "", "path to telescope catalog file")
	rootCmd.AddCommand(catalogsCmd)
}

func runCatalogs(cmd *cobra.Command, args []string) error {
	if sourceCatalogPath == "" && telescopeCatalogPath == "" {
		return fmt.Errorf("nothing to load: provide --sources and/or --telescopes")
	}

	ctx := cmd.Context()
	mgr := catalog.NewManager(log)

	if sourceCatalogPath != "" {
		stats, err := mgr.LoadSourceCatalog(ctx, sourceCatalogPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sources: %d loaded, %d skipped\n", stats.Loaded, stats.Skipped)
	}

	if telescopeCatalogPath != "" {
		stats, err := mgr.LoadTelescopeCatalog(ctx, telescopeCatalogPath)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "telescopes: %d loaded, %d skipped\n", stats.Loaded, stats.Skipped)
	}

	return nil
}
