// Package triplestore loads Turtle into a SPARQL endpoint.
package triplestore

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ontorag/ontorag/internal/domain"
)

const defaultTimeout = 60 * time.Second

// Client issues SPARQL UPDATE requests against a Blazegraph (or any
// SPARQL 1.1 Update compatible) endpoint.
type Client struct {
	endpoint string
	http     *http.Client
}

func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: defaultTimeout},
	}
}

// NewClientWithHTTP allows injecting the HTTP client in tests.
func NewClientWithHTTP(endpoint string, httpClient *http.Client) *Client {
	return &Client{endpoint: endpoint, http: httpClient}
}

// UploadTTL inserts the triples of a Turtle document into the named
// graph. The Turtle prefix declarations are rewritten as SPARQL PREFIX
// clauses so the document body can be embedded in an INSERT DATA block.
func (c *Client) UploadTTL(ctx context.Context, graphIRI string, ttl string) error {
	prefixes, body := splitPrefixes(ttl)

	var b strings.Builder
	for _, p := range prefixes {
		b.WriteString(p)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "INSERT DATA { GRAPH <%s> {\n%s\n} }", graphIRI, body)

	return c.Update(ctx, b.String())
}

// Update executes a raw SPARQL UPDATE statement.
func (c *Client) Update(ctx context.Context, update string) error {
	form := url.Values{}
	form.Set("update", update)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sparql request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return &domain.DomainError{
			Code:    domain.ErrCodeUnavailable,
			Message: "triple store request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &domain.DomainError{
			Code:    domain.ErrCodeUnavailable,
			Message: fmt.Sprintf("triple store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload))),
		}
	}
	return nil
}

// splitPrefixes separates Turtle @prefix declarations from the triple
// body, converting each declaration to SPARQL PREFIX form.
func splitPrefixes(ttl string) (prefixes []string, body string) {
	var rest []string
	for _, line := range strings.Split(ttl, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "@prefix ") {
			decl := strings.TrimSuffix(strings.TrimPrefix(trimmed, "@prefix "), " .")
			prefixes = append(prefixes, "PREFIX "+decl)
			continue
		}
		rest = append(rest, line)
	}
	return prefixes, strings.TrimSpace(strings.Join(rest, "\n"))
}
