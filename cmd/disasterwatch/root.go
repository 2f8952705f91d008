package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disasterwatch",
		Short: "Disaster report aggregation and proximity alerts",
		Long: `disasterwatch collects disaster-related reports from OpenWeather, NewsAPI,
Reddit, and FEMA, keeps the ones that concern a location, and classifies
them into red, yellow, and info alerts by distance.

Configuration is read from the environment and an optional .env file.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewAggregateCmd())
	cmd.AddCommand(NewGlobalCmd())
	cmd.AddCommand(NewCheckCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
