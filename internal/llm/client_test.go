package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/internal/domain"
)

type mockChatAPI struct {
	responses []string
	errs      []error
	calls     int
	lastReq   openai.ChatCompletionRequest
}

func (m *mockChatAPI) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	idx := m.calls
	m.calls++
	m.lastReq = req
	if idx < len(m.errs) && m.errs[idx] != nil {
		return openai.ChatCompletionResponse{}, m.errs[idx]
	}
	content := ""
	if idx < len(m.responses) {
		content = m.responses[idx]
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: content}},
		},
	}, nil
}

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func testChunk() domain.Chunk {
	return domain.Chunk{
		DocumentID: "doc_0123456789abcdef",
		ChunkID:    "doc_0123456789abcdef#pNA#c0000",
		ChunkIndex: 0,
		Text:       "Invoices are billed to customers.",
	}
}

const validProposalJSON = `{
  "chunk_id": "echoed-by-model",
  "proposed_additions": {
    "classes": [{"name": "Invoice", "description": "A billing document", "evidence": [{"chunk_id": "c", "quote": "Invoices"}]}],
    "datatype_properties": [],
    "object_properties": [{"name": "billedTo", "domain": "Invoice", "range": "Customer"}],
    "events": []
  },
  "warnings": ["speculative"]
}`

func TestProposeChunk(t *testing.T) {
	api := &mockChatAPI{responses: []string{validProposalJSON}}
	client := NewClientWithAPI(api, "test-model")
	client.sleep = noSleep

	proposal, err := client.ProposeChunk(context.Background(), "", testChunk())
	require.NoError(t, err)

	assert.Equal(t, 1, api.calls)
	assert.Equal(t, "doc_0123456789abcdef#pNA#c0000", proposal.ChunkID)
	require.Len(t, proposal.ProposedAdditions.Classes, 1)
	assert.Equal(t, "Invoice", proposal.ProposedAdditions.Classes[0].Name)
	assert.Equal(t, []string{"speculative"}, proposal.Warnings)

	assert.Equal(t, "test-model", api.lastReq.Model)
	require.NotNil(t, api.lastReq.ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, api.lastReq.ResponseFormat.Type)
	assert.InDelta(t, 0.2, api.lastReq.Temperature, 0.001)
}

func TestProposeChunkStripsCodeFence(t *testing.T) {
	api := &mockChatAPI{responses: []string{"```json\n" + validProposalJSON + "\n```"}}
	client := NewClientWithAPI(api, "")
	client.sleep = noSleep

	proposal, err := client.ProposeChunk(context.Background(), "card", testChunk())
	require.NoError(t, err)
	assert.Equal(t, "billedTo", proposal.ProposedAdditions.ObjectProperties[0].Name)
}

func TestProposeChunkRetriesTransportError(t *testing.T) {
	api := &mockChatAPI{
		errs:      []error{errors.New("gateway timeout"), errors.New("gateway timeout")},
		responses: []string{"", "", validProposalJSON},
	}
	client := NewClientWithAPI(api, "")
	client.sleep = noSleep

	_, err := client.ProposeChunk(context.Background(), "", testChunk())
	require.NoError(t, err)
	assert.Equal(t, 3, api.calls)
}

func TestProposeChunkRetriesUnparseableJSON(t *testing.T) {
	api := &mockChatAPI{responses: []string{"not json", "{broken", "also bad"}}
	client := NewClientWithAPI(api, "")
	client.sleep = noSleep

	_, err := client.ProposeChunk(context.Background(), "", testChunk())
	require.Error(t, err)
	assert.Equal(t, 3, api.calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestProposeChunkContractViolationNotRetried(t *testing.T) {
	// Parses fine but the object property has no domain.
	bad := `{"proposed_additions": {"object_properties": [{"name": "billedTo", "range": "Customer"}]}}`
	api := &mockChatAPI{responses: []string{bad, bad, bad}}
	client := NewClientWithAPI(api, "")
	client.sleep = noSleep

	_, err := client.ProposeChunk(context.Background(), "", testChunk())
	require.Error(t, err)
	assert.Equal(t, 1, api.calls)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestProposeChunkEmptyText(t *testing.T) {
	client := NewClientWithAPI(&mockChatAPI{}, "")

	_, err := client.ProposeChunk(context.Background(), "", domain.Chunk{ChunkID: "c", Text: "   "})
	assert.ErrorIs(t, err, ErrEmptyChunk)
}

func TestProposeChunkContextCancelled(t *testing.T) {
	api := &mockChatAPI{errs: []error{errors.New("boom")}}
	client := NewClientWithAPI(api, "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.ProposeChunk(ctx, "", testChunk())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(Config{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, client.model)
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\": 1}":                  `{"a": 1}`,
		"```json\n{\"a\": 1}\n```":    `{"a": 1}`,
		"```\n{\"a\": 1}\n```":        `{"a": 1}`,
		" ```json\n{\"a\": 1}\n``` ":  `{"a": 1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in))
	}
}

func TestBuildUserPromptEmptyCard(t *testing.T) {
	prompt := buildUserPrompt("", testChunk())
	assert.Contains(t, prompt, "no terms defined yet")
	assert.Contains(t, prompt, "doc_0123456789abcdef#pNA#c0000")
	assert.Contains(t, prompt, "billed to customers")
}
