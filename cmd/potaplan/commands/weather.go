package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pjbaur/potaplan/pkg/forecast"
)

func newWeatherCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "weather",
		Short: "Fetch and inspect cached forecasts",
	}

	cmd.AddCommand(newWeatherFetchCommand())
	cmd.AddCommand(newWeatherShowCommand())
	cmd.AddCommand(newWeatherSnapshotCommand())
	return cmd
}

func newWeatherFetchCommand() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "fetch <park-reference>",
		Short: "Fetch the forecast for a park and cache it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			park, err := a.parks.FindByReference(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if park == nil {
				return fmt.Errorf("no park with reference %s", args[0])
			}

			if days <= 0 {
				days = a.cfg.Weather.ForecastDays
			}

			fc, err := a.forecastClient().Fetch(cmd.Context(), park.Latitude, park.Longitude, days)
			if err != nil {
				return fmt.Errorf("fetch forecast: %w", err)
			}

			entries, err := forecast.CacheEntries(fc, a.cfg.Weather.CacheTTL.Std())
			if err != nil {
				return err
			}
			for _, entry := range entries {
				if err := a.weather.Put(cmd.Context(), entry); err != nil {
					return fmt.Errorf("cache %s: %w", entry.ForecastDate, err)
				}
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(fc.Days)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Forecast for %s (%.4f, %.4f):\n", park.Reference, fc.Latitude, fc.Longitude)
			for _, day := range fc.Days {
				fmt.Fprintf(out, "  %s  %5.1f/%5.1f C  %3d%% precip  wind %5.1f km/h\n",
					day.Date, day.TempMaxC, day.TempMinC, day.PrecipChancePct, day.WindMaxKmh)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 0, "forecast days to fetch (default from config)")
	return cmd
}

func newWeatherShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <park-reference> <date>",
		Short: "Show the cached forecast for a park and date",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			park, err := a.parks.FindByReference(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if park == nil {
				return fmt.Errorf("no park with reference %s", args[0])
			}

			cached, err := a.weather.Get(cmd.Context(), park.Latitude, park.Longitude, args[1])
			if err != nil {
				return err
			}
			if cached == nil {
				return fmt.Errorf("no cached forecast for %s on %s; run 'potaplan weather fetch %s'",
					args[0], args[1], args[0])
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cached)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s: %s\n", args[0], args[1], cached.Entry.Data)
			fmt.Fprintf(out, "fetched %s, expires %s\n",
				cached.Entry.FetchedAt.Local().Format("2006-01-02 15:04"),
				cached.Entry.ExpiresAt.Local().Format("2006-01-02 15:04"))
			if cached.IsStale {
				fmt.Fprintln(out, "Warning: this forecast is stale; fetch again for current data")
			}
			return nil
		},
	}
}

func newWeatherSnapshotCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot <plan-id>",
		Short: "Copy the cached forecast onto a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePlanID(args[0])
			if err != nil {
				return err
			}

			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			plan, err := a.planner.SnapshotWeather(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Snapshotted forecast onto plan %d\n", plan.ID)
			return nil
		},
	}
}
