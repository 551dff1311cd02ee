package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pjbaur/potaplan/pkg/potadirectory"
)

func newImportCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.csv>",
		Short: "Import parks from an all-parks CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open csv export: %w", err)
			}
			defer file.Close()

			parks, skipped, err := potadirectory.ParseCSV(file)
			if err != nil {
				return fmt.Errorf("parse csv export: %w", err)
			}

			for _, park := range parks {
				if _, err := a.parks.Upsert(cmd.Context(), park); err != nil {
					return fmt.Errorf("upsert %s: %w", park.Reference, err)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d parks (%d rows skipped)\n", len(parks), skipped)
			return nil
		},
	}
}
