package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pjbaur/potaplan/pkg/stores"
)

func newParkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "park",
		Short: "Browse the park catalog",
	}

	cmd.AddCommand(newParkSearchCommand())
	cmd.AddCommand(newParkShowCommand())
	cmd.AddCommand(newParkListCommand())
	return cmd
}

func newParkSearchCommand() *cobra.Command {
	var state string
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search parks by reference or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			result, err := a.parks.Search(cmd.Context(), args[0], stores.ParkSearchOptions{
				State: state,
				Limit: limit,
			})
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(result.Parks)
			}

			out := cmd.OutOrStdout()
			for _, park := range result.Parks {
				fmt.Fprintf(out, "%-10s %-45s %9.4f %10.4f\n",
					park.Reference, park.Name, park.Latitude, park.Longitude)
			}
			fmt.Fprintf(out, "%d of %d matches\n", len(result.Parks), result.Total)
			if result.CatalogStale {
				fmt.Fprintln(out, "Warning: park catalog has not been synced recently; run 'potaplan sync'")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&state, "state", "", "filter by state/location code")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to return")
	return cmd
}

func newParkShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show <reference>",
		Short: "Show one park by its reference",
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

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(park)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s\n", park.Reference, park.Name)
			fmt.Fprintf(out, "  location: %.4f, %.4f\n", park.Latitude, park.Longitude)
			if park.GridSquare != nil {
				fmt.Fprintf(out, "  grid:     %s\n", *park.GridSquare)
			}
			if park.State != nil {
				fmt.Fprintf(out, "  state:    %s\n", *park.State)
			}
			if park.PotaURL != nil {
				fmt.Fprintf(out, "  url:      %s\n", *park.PotaURL)
			}
			fmt.Fprintf(out, "  synced:   %s\n", park.SyncedAt.Local().Format("2006-01-02 15:04"))
			return nil
		},
	}
}

func newParkListCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list <entity>",
		Short: "List parks for one entity code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			parks, err := a.parks.ListByEntity(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}

			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(parks)
			}
			for _, park := range parks {
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %s\n", park.Reference, park.Name)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "maximum rows to return")
	return cmd
}
