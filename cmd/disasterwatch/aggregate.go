package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/disaster-alert-service/internal/observability"
	"github.com/couchcryptid/disaster-alert-service/internal/render"
)

// NewAggregateCmd creates the aggregate command.
func NewAggregateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "aggregate <city>",
		Short: "Aggregate disaster reports for a city and its neighbours",
		Example: `  disasterwatch aggregate Austin
  disasterwatch aggregate "Los Angeles" --format markdown`,
		Args: cobra.MinimumNArgs(1),
		RunE: runAggregate,
	}
	addFormatFlag(cmd)
	return cmd
}

func runAggregate(cmd *cobra.Command, args []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	cfg, logger, err := loadApp()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger, observability.NewMetrics(), appOptions{archive: true})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // best-effort on exit

	res := a.aggregator.AggregateForLocation(cmd.Context(), strings.Join(args, " "))
	return render.Aggregation(cmd.OutOrStdout(), format, res)
}

// NewGlobalCmd creates the global command.
func NewGlobalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "global",
		Short: "Aggregate disaster reports with no location filter",
		Args:  cobra.NoArgs,
		RunE:  runGlobal,
	}
	addFormatFlag(cmd)
	return cmd
}

func runGlobal(cmd *cobra.Command, _ []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	cfg, logger, err := loadApp()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, logger, observability.NewMetrics(), appOptions{})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck // best-effort on exit

	return render.Aggregation(cmd.OutOrStdout(), format, a.aggregator.AggregateGlobal(cmd.Context()))
}

func addFormatFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", string(render.FormatJSON), "Output format: json, yaml, or markdown")
}

func formatFlag(cmd *cobra.Command) (render.Format, error) {
	raw, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", err
	}
	return render.ParseFormat(raw)
}
