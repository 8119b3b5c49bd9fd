package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jayclim/CR-Data/internal/config"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "crmeta",
	Short: "Clash Royale ladder meta snapshots",
	Long: `crmeta samples the top of the Clash Royale ladder, classifies every deck
it sees into an archetype and stores the aggregated meta report.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (defaults to $CR_CONFIG)")
	rootCmd.AddCommand(snapshotCmd, serveCmd, showCmd)
}

func source(requireAPIKey bool) config.Source {
	return config.Source{File: configPath, RequireAPIKey: requireAPIKey}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
