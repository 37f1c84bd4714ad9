package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ontorag/ontorag/internal/cli"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "ontorag",
		Short: "Ontology extraction pipeline and API server",
		Long: `Ontorag turns source documents into ontology proposals: ingest
chunks files with provenance, extract asks a model for schema
additions per chunk and merges them, build-card folds the results
into a cumulative schema card, and export-ttl / load-ttl publish the
ontology as Turtle.

Environment variables use the ONTORAG_ prefix (see .env support).`,
		Version: version,
	}

	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(cli.ServeCmd())
	rootCmd.AddCommand(cli.IngestCmd())
	rootCmd.AddCommand(cli.ExtractCmd())
	rootCmd.AddCommand(cli.BuildCardCmd())
	rootCmd.AddCommand(cli.ExportTTLCmd())
	rootCmd.AddCommand(cli.LoadTTLCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
