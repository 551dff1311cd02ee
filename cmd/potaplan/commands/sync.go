package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newSyncCommand() *cobra.Command {
	var entity string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the park catalog from the POTA directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp()
			if err != nil {
				return err
			}
			defer a.close()

			if entity == "" {
				entity = a.cfg.Directory.Entity
			}

			syncID := uuid.NewString()
			log := a.log.WithSyncID(syncID)
			log.Infof("syncing park catalog for entity %s", entity)

			parks, err := a.directoryClient().FetchEntityParks(cmd.Context(), entity)
			if err != nil {
				return fmt.Errorf("fetch park directory: %w", err)
			}

			upserted := 0
			for _, park := range parks {
				if _, err := a.parks.Upsert(cmd.Context(), park); err != nil {
					return fmt.Errorf("upsert %s: %w", park.Reference, err)
				}
				upserted++
			}

			log.Infof("synced %d parks", upserted)
			fmt.Fprintf(cmd.OutOrStdout(), "Synced %d parks for entity %s\n", upserted, entity)
			return nil
		},
	}

	cmd.Flags().StringVar(&entity, "entity", "", "entity code to sync (default from config)")
	return cmd
}
