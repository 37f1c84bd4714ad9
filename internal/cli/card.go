package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ontorag/ontorag/internal/config"
	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/schemacard"
	"github.com/ontorag/ontorag/internal/storage"
)

// BuildCardCmd creates the build-card command.
func BuildCardCmd() *cobra.Command {
	var dataDir string

	cmd := &cobra.Command{
		Use:   "build-card [document-id]...",
		Short: "Fold aggregated proposals into the schema card",
		Long: `Build-card folds stored proposals into the cumulative schema card.
The fold is a deterministic union: existing terms stay untouched,
unseen ones are appended, and the version is bumped once per fold.
Without arguments every document with a stored proposal is folded.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dataDir == "" {
				dataDir = cfg.DataDir
			}

			store := storage.NewFileStore(dataDir)

			ids := args
			if len(ids) == 0 {
				ids, err = store.ListDocumentIDs()
				if err != nil {
					return err
				}
			}

			card, err := store.ReadSchemaCard()
			if err != nil {
				return err
			}
			if card.Namespace == "" {
				card.Namespace = cfg.Namespace
			}

			projector := schemacard.NewUnionProjector()
			folded := 0
			for _, id := range ids {
				agg, err := store.ReadProposal(id)
				if err != nil {
					if errors.Is(err, domain.ErrProposalNotFound) && len(args) == 0 {
						continue
					}
					return fmt.Errorf("failed to read proposal for %s: %w", id, err)
				}

				card, err = projector.Fold(cmd.Context(), card, agg)
				if err != nil {
					return fmt.Errorf("failed to fold proposal for %s: %w", id, err)
				}
				folded++
			}

			if folded == 0 {
				return fmt.Errorf("no proposals to fold (run extract first)")
			}

			if err := store.StoreSchemaCard(card); err != nil {
				return err
			}

			fmt.Printf("schema card v%d  classes=%d datatype=%d object=%d events=%d (%d proposals folded)\n",
				card.Version, len(card.Classes), len(card.DatatypeProperties),
				len(card.ObjectProperties), len(card.Events), folded)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Workspace directory (default from config)")

	return cmd
}
