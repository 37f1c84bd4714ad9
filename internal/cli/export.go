package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ontorag/ontorag/internal/config"
	"github.com/ontorag/ontorag/internal/rdf"
	"github.com/ontorag/ontorag/internal/storage"
)

// ExportTTLCmd creates the export-ttl command.
func ExportTTLCmd() *cobra.Command {
	var (
		dataDir   string
		namespace string
		out       string
		publish   bool
	)

	cmd := &cobra.Command{
		Use:   "export-ttl <document-id>",
		Short: "Export an aggregated proposal as Turtle",
		Long: `Export-ttl renders the stored proposal of a document as an OWL
ontology fragment in Turtle. Output goes to stdout unless --out is
given; --publish additionally uploads the result to S3.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dataDir == "" {
				dataDir = cfg.DataDir
			}
			if namespace == "" {
				namespace = cfg.Namespace
			}

			store := storage.NewFileStore(dataDir)
			documentID := args[0]

			agg, err := store.ReadProposal(documentID)
			if err != nil {
				return err
			}

			ttl := rdf.ProposalToTurtle(agg, namespace)

			if out != "" {
				if err := os.WriteFile(out, []byte(ttl), 0o644); err != nil {
					return fmt.Errorf("failed to write %s: %w", out, err)
				}
				fmt.Printf("wrote %s (%d bytes)\n", out, len(ttl))
			} else {
				fmt.Print(ttl)
			}

			if publish {
				if !cfg.HasS3() {
					return fmt.Errorf("--publish requires S3 configuration")
				}
				artifacts, err := newArtifactStore(cmd.Context(), cfg)
				if err != nil {
					return err
				}
				if err := artifacts.PublishTTL(cmd.Context(), documentID, ttl); err != nil {
					return fmt.Errorf("failed to publish turtle: %w", err)
				}
				url, err := artifacts.GenerateDownloadURL(cmd.Context(), storage.TTLKey(documentID))
				if err != nil {
					return fmt.Errorf("failed to presign turtle download: %w", err)
				}
				fmt.Printf("published: %s\n", url)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Workspace directory (default from config)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Base IRI for generated terms (default from config)")
	cmd.Flags().StringVar(&out, "out", "", "Write Turtle to a file instead of stdout")
	cmd.Flags().BoolVar(&publish, "publish", false, "Upload the Turtle export to S3")

	return cmd
}
