//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ontorag/ontorag/internal/api/handlers"
	"github.com/ontorag/ontorag/internal/domain"
	"github.com/ontorag/ontorag/internal/repository"
	"github.com/ontorag/ontorag/internal/server"
	"github.com/ontorag/ontorag/internal/service"
	"github.com/ontorag/ontorag/internal/storage"
	"github.com/ontorag/ontorag/internal/testutil"
)

// E2ETestEnv holds everything needed to run end-to-end tests against
// an in-process server backed by a real Postgres container.
type E2ETestEnv struct {
	Postgres   *testutil.PostgresContainer
	Pool       *pgxpool.Pool
	ServerURL  string
	HTTPClient *http.Client

	server *http.Server
}

// scriptedProposer stands in for the OpenRouter client. It derives one
// class per chunk from the first word of the chunk text, so the
// aggregated proposal is deterministic and traceable back to its
// chunks through evidence records.
type scriptedProposer struct{}

func (scriptedProposer) ProposeChunk(ctx context.Context, schemaCard string, chunk domain.Chunk) (*domain.ChunkProposal, error) {
	name := "Entity"
	if fields := strings.Fields(chunk.Text); len(fields) > 0 {
		if word := strings.Trim(fields[0], "#*.,:"); word != "" {
			name = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return &domain.ChunkProposal{
		ChunkID: chunk.ChunkID,
		ProposedAdditions: domain.ProposedAdditions{
			Classes: []domain.ProposedClass{
				{
					Name:        name,
					Description: "extracted from " + chunk.ChunkID,
					Evidence: []domain.Evidence{
						{ChunkID: chunk.ChunkID, Quote: firstWords(chunk.Text, 5)},
					},
				},
			},
			DatatypeProperties: []domain.ProposedProperty{
				{
					Name:     "identifier",
					Domain:   name,
					Range:    "string",
					Evidence: []domain.Evidence{{ChunkID: chunk.ChunkID, Quote: name}},
				},
			},
		},
	}, nil
}

func firstWords(s string, n int) string {
	fields := strings.Fields(s)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " ")
}

// SetupE2EEnv starts a Postgres container, runs migrations, and boots
// the full HTTP server in-process on a free port.
func SetupE2EEnv(ctx context.Context, t *testing.T) *E2ETestEnv {
	t.Helper()

	pgContainer := testutil.NewPostgresContainer(ctx, t)
	pool := testutil.NewTestPool(ctx, t, pgContainer, "../../migrations")

	docRepo := repository.NewDocumentRepository(pool)
	chunkRepo := repository.NewChunkRepository(pool)
	proposalRepo := repository.NewProposalRepository(pool)

	fileStore := storage.NewFileStore(t.TempDir())

	ingestSvc, err := service.NewIngestService(docRepo, chunkRepo,
		service.WithFileStore(fileStore),
		service.WithTxRunner(repository.NewTxRunner(pool)),
	)
	if err != nil {
		t.Fatalf("failed to build ingest service: %v", err)
	}

	extractionSvc := service.NewExtractionService(chunkRepo, scriptedProposer{}, proposalRepo)

	router := server.NewRouter(server.RouterConfig{
		DocumentHandler: handlers.NewDocumentHandler(ingestSvc, docRepo, chunkRepo, extractionSvc),
		ProposalHandler: handlers.NewProposalHandler(proposalRepo, ""),
	})

	port := getFreePort(t)
	srv := &http.Server{
		Addr:    fmt.Sprintf("127.0.0.1:%d", port),
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.Logf("server error: %v", err)
		}
	}()

	env := &E2ETestEnv{
		Postgres:   pgContainer,
		Pool:       pool,
		ServerURL:  fmt.Sprintf("http://127.0.0.1:%d", port),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		server:     srv,
	}

	waitForServer(t, env.ServerURL+"/health")
	return env
}

// Cleanup shuts the server down and terminates the container.
func (env *E2ETestEnv) Cleanup(ctx context.Context, t *testing.T) {
	t.Helper()

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := env.server.Shutdown(shutdownCtx); err != nil {
		t.Logf("server shutdown: %v", err)
	}

	env.Pool.Close()
	if err := env.Postgres.Terminate(ctx); err != nil {
		t.Logf("failed to terminate postgres container: %v", err)
	}
}

// APIResponse mirrors the server's response envelope.
type APIResponse struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

// Get performs a GET request against the test server.
func (env *E2ETestEnv) Get(t *testing.T, path string) *APIResponse {
	t.Helper()
	return env.doRequest(t, http.MethodGet, path, nil)
}

// Post performs a POST request with a JSON body.
func (env *E2ETestEnv) Post(t *testing.T, path string, body interface{}) *APIResponse {
	t.Helper()
	return env.doRequest(t, http.MethodPost, path, body)
}

// Delete performs a DELETE request.
func (env *E2ETestEnv) Delete(t *testing.T, path string) *APIResponse {
	t.Helper()
	return env.doRequest(t, http.MethodDelete, path, nil)
}

func (env *E2ETestEnv) doRequest(t *testing.T, method, path string, body interface{}) *APIResponse {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, env.ServerURL+path, reqBody)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := env.HTTPClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	var apiResp APIResponse
	if err := json.Unmarshal(respBody, &apiResp); err != nil {
		t.Fatalf("failed to parse response (%d): %s", resp.StatusCode, string(respBody))
	}
	if resp.StatusCode >= 400 {
		t.Fatalf("%s %s returned %d: %s", method, path, resp.StatusCode, apiResp.Error)
	}
	return &apiResp
}

// GetRaw performs a GET and returns status, content type and body
// without assuming the JSON envelope. Used for the Turtle endpoint.
func (env *E2ETestEnv) GetRaw(t *testing.T, path string) (int, string, []byte) {
	t.Helper()

	resp, err := env.HTTPClient.Get(env.ServerURL + path)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}
	return resp.StatusCode, resp.Header.Get("Content-Type"), body
}

func getFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find free port: %v", err)
	}
	defer listener.Close()
	return listener.Addr().(*net.TCPAddr).Port
}

func waitForServer(t *testing.T, healthURL string) {
	t.Helper()

	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(15 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := client.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	t.Fatal("server did not become ready in time")
}
