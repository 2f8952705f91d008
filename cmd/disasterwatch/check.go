package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/disaster-alert-service/internal/alert"
	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
	"github.com/couchcryptid/disaster-alert-service/internal/render"
)

// NewCheckCmd creates the check command.
func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one alert check for a position",
		Long: `Check aggregates reports around a position and prints them bucketed into
red, yellow, and info alerts. The position comes from --lat/--lon, falling back
to USER_LAT/USER_LON. Notifications are written to the log.`,
		Example: `  disasterwatch check --lat 34.05 --lon -118.24 --format markdown`,
		Args:    cobra.NoArgs,
		RunE:    runCheck,
	}
	cmd.Flags().Float64("lat", 0, "Latitude in degrees")
	cmd.Flags().Float64("lon", 0, "Longitude in degrees")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	addFormatFlag(cmd)
	return cmd
}

func runCheck(cmd *cobra.Command, _ []string) error {
	format, err := formatFlag(cmd)
	if err != nil {
		return err
	}
	location, err := positionFlags(cmd)
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

	var res domain.AlertCheckResult
	if location != nil {
		res = a.engine.CheckFrom(cmd.Context(), location)
	} else {
		res = a.engine.Check(cmd.Context())
	}
	return render.AlertCheck(cmd.OutOrStdout(), format, res)
}

// positionFlags returns nil when --lat/--lon were not given.
func positionFlags(cmd *cobra.Command) (alert.LocationProvider, error) {
	if !cmd.Flags().Changed("lat") {
		return nil, nil
	}
	lat, _ := cmd.Flags().GetFloat64("lat")
	lon, _ := cmd.Flags().GetFloat64("lon")
	if lat < -90 || lat > 90 {
		return nil, errors.New("--lat must be within [-90, 90]")
	}
	if lon < -180 || lon > 180 {
		return nil, errors.New("--lon must be within [-180, 180]")
	}
	return alert.StaticLocation{Lat: lat, Lon: lon}, nil
}
