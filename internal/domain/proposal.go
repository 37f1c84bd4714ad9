package domain

import (
	"fmt"
	"strings"
)

// Evidence ties a short verbatim excerpt to the chunk it was extracted
// from. Two records with the same chunk and quote are the same fact
// re-observed, not two facts.
type Evidence struct {
	ChunkID string `json:"chunk_id"`
	Quote   string `json:"quote"`
}

// ProposedClass is a class suggested by the proposer for one chunk.
type ProposedClass struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Evidence    []Evidence `json:"evidence,omitempty"`
}

// ProposedProperty is a datatype or object property suggestion.
// Domain and Range are part of the property's identity: the same name
// with a different domain or range is a distinct property.
type ProposedProperty struct {
	Name        string     `json:"name"`
	Domain      string     `json:"domain"`
	Range       string     `json:"range"`
	Description string     `json:"description,omitempty"`
	Evidence    []Evidence `json:"evidence,omitempty"`
}

// ProposedEvent is an event suggestion with participating actors and
// observable effects.
type ProposedEvent struct {
	Name     string     `json:"name"`
	Actors   []string   `json:"actors,omitempty"`
	Effects  []string   `json:"effects,omitempty"`
	Evidence []Evidence `json:"evidence,omitempty"`
}

// ProposedAdditions groups the four entity kinds of a chunk proposal.
type ProposedAdditions struct {
	Classes            []ProposedClass    `json:"classes"`
	DatatypeProperties []ProposedProperty `json:"datatype_properties"`
	ObjectProperties   []ProposedProperty `json:"object_properties"`
	Events             []ProposedEvent    `json:"events"`
}

// ChunkProposal is the structured output of the external proposer for
// exactly one chunk.
type ChunkProposal struct {
	ChunkID              string            `json:"chunk_id"`
	ProposedAdditions    ProposedAdditions `json:"proposed_additions"`
	ReuseInsteadOfCreate []map[string]any  `json:"reuse_instead_of_create,omitempty"`
	MergeSuggestions     []map[string]any  `json:"alias_or_merge_suggestions,omitempty"`
	Warnings             []string          `json:"warnings,omitempty"`
}

// AggregatedProposal is the canonical, deduplicated union over all
// proposed entities from a batch of chunks. It is a document-level
// artifact with no chunk affiliation of its own, immutable once built.
type AggregatedProposal struct {
	Classes            []ProposedClass    `json:"classes"`
	DatatypeProperties []ProposedProperty `json:"datatype_properties"`
	ObjectProperties   []ProposedProperty `json:"object_properties"`
	Events             []ProposedEvent    `json:"events"`
	MergeSuggestions   []map[string]any   `json:"merge_suggestions"`
	Warnings           []string           `json:"warnings"`
}

// ValidateChunkProposal checks the structural contract the external
// proposer must honor. A violation here is not retried.
func ValidateChunkProposal(p *ChunkProposal) error {
	if p == nil {
		return fmt.Errorf("chunk proposal cannot be nil")
	}
	if p.ChunkID == "" {
		return fmt.Errorf("chunk proposal ChunkID is required")
	}
	for i, c := range p.ProposedAdditions.Classes {
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("class %d: name is required", i)
		}
	}
	for i, dp := range p.ProposedAdditions.DatatypeProperties {
		if err := validateProperty("datatype property", i, dp); err != nil {
			return err
		}
	}
	for i, op := range p.ProposedAdditions.ObjectProperties {
		if err := validateProperty("object property", i, op); err != nil {
			return err
		}
	}
	for i, ev := range p.ProposedAdditions.Events {
		if strings.TrimSpace(ev.Name) == "" {
			return fmt.Errorf("event %d: name is required", i)
		}
	}
	return nil
}

func validateProperty(kind string, i int, p ProposedProperty) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%s %d: name is required", kind, i)
	}
	if strings.TrimSpace(p.Domain) == "" {
		return fmt.Errorf("%s %d (%s): domain is required", kind, i, p.Name)
	}
	if strings.TrimSpace(p.Range) == "" {
		return fmt.Errorf("%s %d (%s): range is required", kind, i, p.Name)
	}
	return nil
}
