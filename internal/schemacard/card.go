// Package schemacard defines the cumulative, versioned ontology state
// that aggregated proposals are folded into. The fold contract is the
// boundary this core exposes; the default projector below is a plain
// deterministic union so the pipeline runs end to end.
package schemacard

import (
	"context"
	"strings"
	"time"

	"github.com/ontorag/ontorag/internal/domain"
)

// CardClass is a confirmed class in the schema card.
type CardClass struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CardProperty is a confirmed datatype or object property.
type CardProperty struct {
	Name        string `json:"name"`
	Domain      string `json:"domain"`
	Range       string `json:"range"`
	Description string `json:"description,omitempty"`
}

// CardEvent is a confirmed event.
type CardEvent struct {
	Name    string   `json:"name"`
	Actors  []string `json:"actors,omitempty"`
	Effects []string `json:"effects,omitempty"`
}

// SchemaCard is the cumulative ontology state shown to the proposer and
// updated by folding aggregated proposals.
type SchemaCard struct {
	Namespace          string         `json:"namespace,omitempty"`
	Version            int            `json:"version"`
	Classes            []CardClass    `json:"classes"`
	DatatypeProperties []CardProperty `json:"datatype_properties"`
	ObjectProperties   []CardProperty `json:"object_properties"`
	Events             []CardEvent    `json:"events"`
	UpdatedAt          time.Time      `json:"updated_at,omitempty"`
}

// Projector folds an aggregated proposal into the previous schema
// state, producing the next one. The fold must be deterministic; its
// merge policy beyond that is up to the implementation.
type Projector interface {
	Fold(ctx context.Context, prev SchemaCard, agg *domain.AggregatedProposal) (SchemaCard, error)
}

// UnionProjector is the default Projector: a name-keyed union that
// keeps existing entries untouched, appends unseen ones in proposal
// order, and bumps the version once per fold.
type UnionProjector struct {
	now func() time.Time
}

// NewUnionProjector returns a UnionProjector on wall-clock time.
func NewUnionProjector() *UnionProjector {
	return &UnionProjector{now: func() time.Time { return time.Now().UTC() }}
}

// NewUnionProjectorWithClock fixes the clock, for tests.
func NewUnionProjectorWithClock(now func() time.Time) *UnionProjector {
	return &UnionProjector{now: now}
}

func key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func propertyKey(domainName, name, rng string) string {
	return key(domainName) + "\x00" + key(name) + "\x00" + key(rng)
}

// Fold implements Projector.
func (p *UnionProjector) Fold(_ context.Context, prev SchemaCard, agg *domain.AggregatedProposal) (SchemaCard, error) {
	next := SchemaCard{
		Namespace:          prev.Namespace,
		Version:            prev.Version + 1,
		Classes:            append([]CardClass{}, prev.Classes...),
		DatatypeProperties: append([]CardProperty{}, prev.DatatypeProperties...),
		ObjectProperties:   append([]CardProperty{}, prev.ObjectProperties...),
		Events:             append([]CardEvent{}, prev.Events...),
		UpdatedAt:          p.now(),
	}
	if agg == nil {
		return next, nil
	}

	haveClass := make(map[string]struct{}, len(next.Classes))
	for _, c := range next.Classes {
		haveClass[key(c.Name)] = struct{}{}
	}
	for _, c := range agg.Classes {
		if _, ok := haveClass[key(c.Name)]; ok {
			continue
		}
		haveClass[key(c.Name)] = struct{}{}
		next.Classes = append(next.Classes, CardClass{Name: c.Name, Description: c.Description})
	}

	next.DatatypeProperties = unionProperties(next.DatatypeProperties, agg.DatatypeProperties)
	next.ObjectProperties = unionProperties(next.ObjectProperties, agg.ObjectProperties)

	haveEvent := make(map[string]struct{}, len(next.Events))
	for _, e := range next.Events {
		haveEvent[key(e.Name)] = struct{}{}
	}
	for _, e := range agg.Events {
		if _, ok := haveEvent[key(e.Name)]; ok {
			continue
		}
		haveEvent[key(e.Name)] = struct{}{}
		next.Events = append(next.Events, CardEvent{Name: e.Name, Actors: e.Actors, Effects: e.Effects})
	}

	return next, nil
}

func unionProperties(existing []CardProperty, incoming []domain.ProposedProperty) []CardProperty {
	have := make(map[string]struct{}, len(existing))
	for _, p := range existing {
		have[propertyKey(p.Domain, p.Name, p.Range)] = struct{}{}
	}
	for _, p := range incoming {
		k := propertyKey(p.Domain, p.Name, p.Range)
		if _, ok := have[k]; ok {
			continue
		}
		have[k] = struct{}{}
		existing = append(existing, CardProperty{
			Name:        p.Name,
			Domain:      p.Domain,
			Range:       p.Range,
			Description: p.Description,
		})
	}
	return existing
}
