package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ontorag/ontorag/internal/config"
	"github.com/ontorag/ontorag/internal/llm"
	"github.com/ontorag/ontorag/internal/service"
	"github.com/ontorag/ontorag/internal/storage"
)

// ExtractCmd creates the extract command.
func ExtractCmd() *cobra.Command {
	var (
		dataDir     string
		all         bool
		concurrency int
		publish     bool
	)

	cmd := &cobra.Command{
		Use:   "extract [document-id]...",
		Short: "Generate ontology proposals for ingested documents",
		Long: `Extract sends every chunk of a document to the configured model
together with the current schema card, validates and merges the
returned proposals, and stores the aggregate in the workspace.
A document either yields a full aggregate or nothing.

Requires ONTORAG_OPENROUTER_API_KEY.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dataDir == "" {
				dataDir = cfg.DataDir
			}
			if !cfg.HasOpenRouter() {
				return fmt.Errorf("ONTORAG_OPENROUTER_API_KEY is required")
			}

			store := storage.NewFileStore(dataDir)

			ids := args
			if all {
				ids, err = store.ListDocumentIDs()
				if err != nil {
					return err
				}
			}
			if len(ids) == 0 {
				return fmt.Errorf("no documents to extract (pass IDs or --all)")
			}

			client, err := llm.NewClient(llm.Config{
				APIKey:  cfg.OpenRouterAPIKey,
				Model:   cfg.OpenRouterModel,
				BaseURL: cfg.OpenRouterBaseURL,
			})
			if err != nil {
				return err
			}

			svc := service.NewExtractionService(
				&fileChunkSource{store: store},
				client,
				&fileProposalSink{store: store},
				service.WithSchemaCardSource(&fileCardSource{store: store}),
				service.WithConcurrency(concurrency),
			)

			var artifacts *storage.ArtifactStore
			if publish {
				if !cfg.HasS3() {
					return fmt.Errorf("--publish requires S3 configuration")
				}
				artifacts, err = newArtifactStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
			}

			for _, id := range ids {
				agg, err := svc.Extract(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("extraction failed for %s: %w", id, err)
				}

				fmt.Printf("%s  classes=%d datatype=%d object=%d events=%d warnings=%d\n",
					id, len(agg.Classes), len(agg.DatatypeProperties),
					len(agg.ObjectProperties), len(agg.Events), len(agg.Warnings))

				if artifacts != nil {
					if err := artifacts.PublishProposal(cmd.Context(), id, agg); err != nil {
						return fmt.Errorf("failed to publish proposal for %s: %w", id, err)
					}
					url, err := artifacts.GenerateDownloadURL(cmd.Context(), storage.ProposalKey(id))
					if err != nil {
						return fmt.Errorf("failed to presign proposal download: %w", err)
					}
					fmt.Printf("published: %s\n", url)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Workspace directory (default from config)")
	cmd.Flags().BoolVar(&all, "all", false, "Extract every ingested document")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "Chunks processed in parallel per document")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish aggregated proposals to S3")

	return cmd
}
