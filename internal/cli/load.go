package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ontorag/ontorag/internal/config"
	"github.com/ontorag/ontorag/internal/rdf"
	"github.com/ontorag/ontorag/internal/storage"
	"github.com/ontorag/ontorag/internal/triplestore"
)

// LoadTTLCmd creates the load-ttl command.
func LoadTTLCmd() *cobra.Command {
	var (
		dataDir   string
		namespace string
		endpoint  string
		graph     string
		file      string
	)

	cmd := &cobra.Command{
		Use:   "load-ttl <document-id>",
		Short: "Load a document's ontology fragment into the triplestore",
		Long: `Load-ttl uploads the Turtle rendering of a document's proposal into
a named graph of the configured Blazegraph instance. With --file an
arbitrary Turtle file is uploaded instead of the stored proposal.

Requires ONTORAG_BLAZEGRAPH_ENDPOINT (or --endpoint).`,
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
			if endpoint == "" {
				endpoint = cfg.BlazegraphEndpoint
			}
			if endpoint == "" {
				return fmt.Errorf("ONTORAG_BLAZEGRAPH_ENDPOINT is required")
			}

			documentID := args[0]
			if graph == "" {
				graph = namespace + "graph/" + documentID
			}

			var ttl string
			if file != "" {
				payload, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", file, err)
				}
				ttl = string(payload)
			} else {
				store := storage.NewFileStore(dataDir)
				agg, err := store.ReadProposal(documentID)
				if err != nil {
					return err
				}
				ttl = rdf.ProposalToTurtle(agg, namespace)
			}

			client := triplestore.NewClient(endpoint)
			if err := client.UploadTTL(cmd.Context(), graph, ttl); err != nil {
				return err
			}

			fmt.Printf("loaded %s into <%s>\n", documentID, graph)
			return nil
		},
	}

	cmd.Flags().StringVar(&dataDir, "data-dir", "", "Workspace directory (default from config)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Base IRI for generated terms (default from config)")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "Blazegraph SPARQL endpoint (default from config)")
	cmd.Flags().StringVar(&graph, "graph", "", "Target named graph IRI")
	cmd.Flags().StringVar(&file, "file", "", "Upload this Turtle file instead of the stored proposal")

	return cmd
}
