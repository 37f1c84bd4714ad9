package llm

import (
	"fmt"

	"github.com/ontorag/ontorag/internal/domain"
)

const systemPrompt = `You are an ontology engineer. You extend an existing business ontology with classes, properties and events found in a document chunk.

Rules:
- Reuse existing schema terms whenever they fit. Only propose additions the current schema cannot express.
- Every proposed entity must cite evidence: the chunk_id and a short verbatim quote from the chunk.
- Datatype property ranges must be one of: string, number, integer, boolean, date, datetime, enum, any.
- Respond with a single JSON object and nothing else. No markdown, no commentary.

The JSON object must have this shape:
{
  "chunk_id": "<the chunk id>",
  "proposed_additions": {
    "classes": [{"name": "...", "description": "...", "evidence": [{"chunk_id": "...", "quote": "..."}]}],
    "datatype_properties": [{"name": "...", "domain": "...", "range": "...", "description": "...", "evidence": [...]}],
    "object_properties": [{"name": "...", "domain": "...", "range": "...", "description": "...", "evidence": [...]}],
    "events": [{"name": "...", "actors": ["..."], "effects": ["..."], "evidence": [...]}]
  },
  "reuse_instead_of_create": [],
  "alias_or_merge_suggestions": [],
  "warnings": []
}`

func buildUserPrompt(schemaCard string, chunk domain.Chunk) string {
	if schemaCard == "" {
		schemaCard = "(empty schema, no terms defined yet)"
	}
	return fmt.Sprintf(`Current schema card:
%s

Chunk (chunk_id: %s):
%s`, schemaCard, chunk.ChunkID, chunk.Text)
}
