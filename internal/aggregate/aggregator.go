// Package aggregate merges per-chunk ontology proposals into one
// canonical, deduplicated document-level proposal. The merge is a pure
// fold over the input list: entity identity and evidence sets are
// invariant to input order, while element ordering inside the output
// lists follows first occurrence.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/ontorag/ontorag/internal/domain"
)

// nameKey normalizes an entity name for identity comparison.
func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// propertyKey is the identity of a datatype or object property. The
// same name under a different domain or range is a distinct property.
type propertyKey struct {
	domain string
	name   string
	rng    string
}

func propKey(p domain.ProposedProperty) propertyKey {
	return propertyKey{domain: nameKey(p.Domain), name: nameKey(p.Name), rng: nameKey(p.Range)}
}

type evidenceKey struct {
	chunkID string
	quote   string
}

// classTable is an ordered map keyed by normalized name.
type classTable struct {
	order []string
	byKey map[string]*classEntry
}

type classEntry struct {
	class   domain.ProposedClass
	actors  []string
	effects []string
	seen    map[evidenceKey]struct{}
}

// Aggregate folds an ordered sequence of chunk proposals into a single
// AggregatedProposal. Each proposal is validated first; a malformed
// proposal is a contract violation of the external proposer and aborts
// the whole run without publishing a partial result.
func Aggregate(proposals []domain.ChunkProposal) (*domain.AggregatedProposal, error) {
	for i := range proposals {
		if err := domain.ValidateChunkProposal(&proposals[i]); err != nil {
			return nil, domain.NewDomainErrorWithCause(domain.ErrCodeValidation,
				fmt.Sprintf("chunk proposal %d (%s)", i, proposals[i].ChunkID), err)
		}
	}

	classes := newClassTable()
	events := newClassTable() // events share the name-keyed merge shape
	dprops := newPropertyTable()
	oprops := newPropertyTable()

	var warnings []string
	var merges []map[string]any

	for _, cp := range proposals {
		warnings = append(warnings, cp.Warnings...)
		// Merge suggestions are concatenated without dedup: repeats
		// are a frequency signal for downstream review.
		merges = append(merges, cp.MergeSuggestions...)

		for _, c := range cp.ProposedAdditions.Classes {
			classes.add(c)
		}
		for _, p := range cp.ProposedAdditions.DatatypeProperties {
			dprops.add(p)
		}
		for _, p := range cp.ProposedAdditions.ObjectProperties {
			oprops.add(p)
		}
		for _, ev := range cp.ProposedAdditions.Events {
			events.addEvent(ev)
		}
	}

	return &domain.AggregatedProposal{
		Classes:            classes.classes(),
		DatatypeProperties: dprops.properties(),
		ObjectProperties:   oprops.properties(),
		Events:             events.events(),
		MergeSuggestions:   merges,
		Warnings:           dedupStrings(warnings),
	}, nil
}

func newClassTable() *classTable {
	return &classTable{byKey: make(map[string]*classEntry)}
}

// add merges a class proposal into the table. The first occurrence of
// a key seeds the canonical entity; later ones may only fill an empty
// description and contribute unseen evidence.
func (t *classTable) add(c domain.ProposedClass) {
	k := nameKey(c.Name)
	entry, ok := t.byKey[k]
	if !ok {
		entry = &classEntry{
			class: domain.ProposedClass{Name: c.Name, Description: c.Description},
			seen:  make(map[evidenceKey]struct{}),
		}
		t.byKey[k] = entry
		t.order = append(t.order, k)
	} else if entry.class.Description == "" && c.Description != "" {
		entry.class.Description = c.Description
	}
	entry.class.Evidence = mergeEvidence(entry.class.Evidence, entry.seen, c.Evidence)
}

// addEvent reuses the class table for event entries, carrying actors
// and effects from the seeding occurrence.
func (t *classTable) addEvent(ev domain.ProposedEvent) {
	k := nameKey(ev.Name)
	entry, ok := t.byKey[k]
	if !ok {
		entry = &classEntry{
			class: domain.ProposedClass{Name: ev.Name},
			seen:  make(map[evidenceKey]struct{}),
		}
		entry.actors = ev.Actors
		entry.effects = ev.Effects
		t.byKey[k] = entry
		t.order = append(t.order, k)
	}
	entry.class.Evidence = mergeEvidence(entry.class.Evidence, entry.seen, ev.Evidence)
}

func (t *classTable) classes() []domain.ProposedClass {
	out := make([]domain.ProposedClass, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k].class)
	}
	return out
}

func (t *classTable) events() []domain.ProposedEvent {
	out := make([]domain.ProposedEvent, 0, len(t.order))
	for _, k := range t.order {
		e := t.byKey[k]
		out = append(out, domain.ProposedEvent{
			Name:     e.class.Name,
			Actors:   e.actors,
			Effects:  e.effects,
			Evidence: e.class.Evidence,
		})
	}
	return out
}

type propertyTable struct {
	order []propertyKey
	byKey map[propertyKey]*propertyEntry
}

type propertyEntry struct {
	prop domain.ProposedProperty
	seen map[evidenceKey]struct{}
}

func newPropertyTable() *propertyTable {
	return &propertyTable{byKey: make(map[propertyKey]*propertyEntry)}
}

func (t *propertyTable) add(p domain.ProposedProperty) {
	k := propKey(p)
	entry, ok := t.byKey[k]
	if !ok {
		entry = &propertyEntry{
			prop: domain.ProposedProperty{
				Name:        p.Name,
				Domain:      p.Domain,
				Range:       p.Range,
				Description: p.Description,
			},
			seen: make(map[evidenceKey]struct{}),
		}
		t.byKey[k] = entry
		t.order = append(t.order, k)
	} else if entry.prop.Description == "" && p.Description != "" {
		entry.prop.Description = p.Description
	}
	entry.prop.Evidence = mergeEvidence(entry.prop.Evidence, entry.seen, p.Evidence)
}

func (t *propertyTable) properties() []domain.ProposedProperty {
	out := make([]domain.ProposedProperty, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, t.byKey[k].prop)
	}
	return out
}

// mergeEvidence appends only (chunk_id, quote) pairs not seen before,
// preserving insertion order. Per-entity, unlike warning dedup which
// is global.
func mergeEvidence(existing []domain.Evidence, seen map[evidenceKey]struct{}, incoming []domain.Evidence) []domain.Evidence {
	for _, e := range existing {
		seen[evidenceKey{chunkID: e.ChunkID, quote: e.Quote}] = struct{}{}
	}
	for _, e := range incoming {
		k := evidenceKey{chunkID: e.ChunkID, quote: e.Quote}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		existing = append(existing, e)
	}
	return existing
}

// dedupStrings removes exact duplicates keeping first occurrence.
func dedupStrings(in []string) []string {
	if in == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
