package cli

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/ontorag/ontorag/internal/api/handlers"
	"github.com/ontorag/ontorag/internal/config"
	"github.com/ontorag/ontorag/internal/database"
	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/jobs"
	"github.com/ontorag/ontorag/internal/llm"
	"github.com/ontorag/ontorag/internal/repository"
	"github.com/ontorag/ontorag/internal/server"
	"github.com/ontorag/ontorag/internal/service"
	"github.com/ontorag/ontorag/internal/storage"
	"github.com/ontorag/ontorag/internal/telemetry"
)

// ServeCmd returns the serve command
func ServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		Long:  "Start the ontology extraction API server on the specified port",
		RunE:  runServe,
	}

	cmd.Flags().StringP("port", "p", "8080", "Port to listen on")
	cmd.Flags().Bool("no-migrate", false, "Skip automatic database migrations on startup")

	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize Sentry with tracing if SENTRY_DSN is set
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		environment := os.Getenv("ENVIRONMENT")
		if environment == "" {
			environment = "development"
		}

		// Default to 10% sampling in production, 100% in development
		sampleRate := 0.1
		if environment == "development" {
			sampleRate = 1.0
		}

		shutdownTelemetry, err := telemetry.Init(telemetry.Config{
			DSN:              dsn,
			Environment:      environment,
			TracesSampleRate: sampleRate,
		})
		if err != nil {
			log.Printf("telemetry init failed (continuing without tracing): %v", err)
		} else {
			defer shutdownTelemetry()
		}
	}

	portFlag, _ := cmd.Flags().GetString("port")
	if portFlag != "" && portFlag != "8080" {
		cfg.Port = portFlag
	}

	if !cfg.HasDatabase() {
		return fmt.Errorf("ONTORAG_DATABASE_URL is required for serve")
	}

	pool, err := database.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer pool.Close()
	log.Println("connected to database")

	// Run migrations unless --no-migrate flag is set
	noMigrate, _ := cmd.Flags().GetBool("no-migrate")
	if !noMigrate {
		if err := runMigrations(cfg.DatabaseURL); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	proposalRepo := repository.NewProposalRepository(pool)
	jobRepo := repository.NewExtractionJobRepository(pool)

	fileStore := storage.NewFileStore(cfg.DataDir)

	var artifacts *storage.ArtifactStore
	if cfg.HasS3() {
		artifacts, err = newArtifactStore(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to create artifact store: %w", err)
		}
		if err := artifacts.EnsureBucket(ctx); err != nil {
			return fmt.Errorf("failed to ensure S3 bucket: %w", err)
		}
		log.Printf("S3 bucket '%s' ready", cfg.S3Bucket)
	}

	ingestSvc, err := service.NewIngestService(docRepo, chunkRepo,
		service.WithFileStore(fileStore),
		service.WithTxRunner(repository.NewTxRunner(pool)),
		service.WithWindowing(cfg.ChunkSize, cfg.ChunkOverlap),
	)
	if err != nil {
		return fmt.Errorf("failed to create ingest service: %w", err)
	}

	var extractionSvc *service.ExtractionService
	var extractionWorker *jobs.Worker
	if cfg.HasOpenRouter() {
		proposer, err := llm.NewClient(llm.Config{
			APIKey:  cfg.OpenRouterAPIKey,
			Model:   cfg.OpenRouterModel,
			BaseURL: cfg.OpenRouterBaseURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create proposal client: %w", err)
		}

		var sink service.ProposalSink = proposalRepo
		if artifacts != nil {
			sink = &proposalFanout{sinks: []service.ProposalSink{proposalRepo, &artifactSink{store: artifacts}}}
		}

		extractionSvc = service.NewExtractionService(chunkRepo, proposer, sink,
			service.WithSchemaCardSource(&fileCardSource{store: fileStore}),
		)

		processor := jobs.NewExtractionWorker(jobRepo, extractionSvc)
		extractionWorker = jobs.NewWorker(processor, 10*time.Second)
		go extractionWorker.Start(ctx)
		log.Println("extraction worker started")
	}

	var runner handlers.ExtractionRunner
	if extractionSvc != nil {
		runner = extractionSvc
	}

	documentHandler := handlers.NewDocumentHandler(ingestSvc, docRepo, chunkRepo, runner)
	if artifacts != nil {
		documentHandler = documentHandler.WithArtifactCleaner(artifacts)
	}

	routerCfg := server.RouterConfig{
		DocumentHandler: documentHandler,
		ProposalHandler: handlers.NewProposalHandler(proposalRepo, cfg.Namespace),
	}

	router := server.NewRouter(routerCfg)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	if extractionWorker != nil {
		extractionWorker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("server exited")
	return nil
}

// artifactSink mirrors stored proposals to S3.
type artifactSink struct {
	store *storage.ArtifactStore
}

func (s *artifactSink) Upsert(ctx context.Context, documentID string, agg *domain.AggregatedProposal) error {
	return s.store.PublishProposal(ctx, documentID, agg)
}

// proposalFanout writes a proposal to every sink in order, failing on
// the first error.
type proposalFanout struct {
	sinks []service.ProposalSink
}

func (f *proposalFanout) Upsert(ctx context.Context, documentID string, agg *domain.AggregatedProposal) error {
	for _, sink := range f.sinks {
		if err := sink.Upsert(ctx, documentID, agg); err != nil {
			return err
		}
	}
	return nil
}

func runMigrations(databaseURL string) error {
	// Create a sql.DB connection for golang-migrate
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	// Create postgres driver instance
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Create migrate instance with file source
	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	// Run migrations
	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Get migration version and status
	version, dirty, err := m.Version()
	if err != nil && err != migrate.ErrNilVersion {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	if err == migrate.ErrNilVersion {
		log.Println("migrations: database is up to date (no migrations applied)")
	} else if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	} else if err == migrate.ErrNoChange {
		log.Printf("migrations: database is up to date (version %d)", version)
	} else {
		log.Printf("migrations: applied successfully (version %d)", version)
	}

	return nil
}
