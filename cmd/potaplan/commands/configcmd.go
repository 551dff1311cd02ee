package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pjbaur/potaplan/pkg/stores"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage operator settings",
	}

	cmd.AddCommand(newConfigSetCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigSetCommand() *cobra.Command {
	var (
		callsign string
		grid     string
		lat      float64
		lon      float64
		timezone string
		units    string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save operator settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			cfg := &stores.UserConfig{
				Callsign: callsign,
				Timezone: timezone,
				Units:    units,
			}
			if grid != "" {
				cfg.GridSquare = &grid
			}
			if cmd.Flags().Changed("lat") {
				cfg.HomeLatitude = &lat
			}
			if cmd.Flags().Changed("lon") {
				cfg.HomeLongitude = &lon
			}

			if err := a.user.Save(cmd.Context(), cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved settings for %s\n", callsign)
			return nil
		},
	}

	cmd.Flags().StringVar(&callsign, "callsign", "", "operator callsign")
	cmd.Flags().StringVar(&grid, "grid", "", "home grid square")
	cmd.Flags().Float64Var(&lat, "lat", 0, "home latitude")
	cmd.Flags().Float64Var(&lon, "lon", 0, "home longitude")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone name")
	cmd.Flags().StringVar(&units, "units", "", "unit system (metric or imperial)")
	cmd.MarkFlagRequired("callsign")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show saved operator settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			cfg, err := a.user.Get(cmd.Context())
			if err != nil {
				return err
			}
			if cfg == nil {
				return fmt.Errorf("no settings saved yet; run 'potaplan config set --callsign <call>'")
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "callsign: %s\n", cfg.Callsign)
			if cfg.GridSquare != nil {
				fmt.Fprintf(out, "grid:     %s\n", *cfg.GridSquare)
			}
			if cfg.HomeLatitude != nil && cfg.HomeLongitude != nil {
				fmt.Fprintf(out, "home:     %.4f, %.4f\n", *cfg.HomeLatitude, *cfg.HomeLongitude)
			}
			fmt.Fprintf(out, "timezone: %s\n", cfg.Timezone)
			fmt.Fprintf(out, "units:    %s\n", cfg.Units)
			return nil
		},
	}
}
