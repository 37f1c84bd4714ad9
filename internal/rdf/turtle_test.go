package rdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/internal/domain"
)

func TestProposalToTurtlePrefixes(t *testing.T) {
	ttl := ProposalToTurtle(&domain.AggregatedProposal{}, "")

	assert.Contains(t, ttl, "@prefix biz: <http://www.example.com/biz/> .")
	assert.Contains(t, ttl, "@prefix owl: <http://www.w3.org/2002/07/owl#> .")
	assert.Contains(t, ttl, "@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .")
	assert.Contains(t, ttl, "@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .")
}

func TestProposalToTurtleCustomNamespace(t *testing.T) {
	ttl := ProposalToTurtle(&domain.AggregatedProposal{}, "http://acme.test/ont/")

	assert.Contains(t, ttl, "@prefix biz: <http://acme.test/ont/> .")
}

func TestProposalToTurtleClasses(t *testing.T) {
	agg := &domain.AggregatedProposal{
		Classes: []domain.ProposedClass{
			{Name: "Invoice", Description: "A billing document"},
			{Name: "Customer"},
		},
	}

	ttl := ProposalToTurtle(agg, "")

	assert.Contains(t, ttl, "biz:Invoice a owl:Class ;\n    rdfs:comment \"A billing document\" .")
	assert.Contains(t, ttl, "biz:Customer a owl:Class .")
}

func TestProposalToTurtleDatatypeProperty(t *testing.T) {
	agg := &domain.AggregatedProposal{
		DatatypeProperties: []domain.ProposedProperty{
			{Name: "totalAmount", Domain: "Invoice", Range: "number", Description: "Total due"},
		},
	}

	ttl := ProposalToTurtle(agg, "")

	require.Contains(t, ttl, "biz:totalAmount a owl:DatatypeProperty ;")
	assert.Contains(t, ttl, "rdfs:domain biz:Invoice ;")
	assert.Contains(t, ttl, "rdfs:range xsd:decimal ;")
	assert.Contains(t, ttl, "rdfs:comment \"Total due\" .")
}

func TestProposalToTurtleObjectProperty(t *testing.T) {
	agg := &domain.AggregatedProposal{
		ObjectProperties: []domain.ProposedProperty{
			{Name: "billedTo", Domain: "Invoice", Range: "Customer"},
		},
	}

	ttl := ProposalToTurtle(agg, "")

	require.Contains(t, ttl, "biz:billedTo a owl:ObjectProperty ;")
	assert.Contains(t, ttl, "rdfs:range biz:Customer .")
}

func TestProposalToTurtleEvents(t *testing.T) {
	agg := &domain.AggregatedProposal{
		Events: []domain.ProposedEvent{{Name: "PaymentReceived"}},
	}

	ttl := ProposalToTurtle(agg, "")

	assert.Contains(t, ttl, "biz:PaymentReceived a owl:Class .")
}

func TestProposalToTurtleDeterministic(t *testing.T) {
	agg := &domain.AggregatedProposal{
		Classes: []domain.ProposedClass{{Name: "A"}, {Name: "B"}},
		DatatypeProperties: []domain.ProposedProperty{
			{Name: "x", Domain: "A", Range: "integer"},
		},
	}

	first := ProposalToTurtle(agg, "")
	second := ProposalToTurtle(agg, "")

	assert.Equal(t, first, second)
	assert.Less(t, strings.Index(first, "biz:A "), strings.Index(first, "biz:B "))
}

func TestDatatypeRange(t *testing.T) {
	cases := map[string]string{
		"string":   "xsd:string",
		"Number":   "xsd:decimal",
		"integer":  "xsd:integer",
		"boolean":  "xsd:boolean",
		"date":     "xsd:date",
		"DateTime": "xsd:dateTime",
		"enum":     "xsd:string",
		"any":      "xsd:string",
		"mystery":  "xsd:string",
		"":         "xsd:string",
	}
	for in, want := range cases {
		assert.Equal(t, want, DatatypeRange(in), "range %q", in)
	}
}

func TestTerm(t *testing.T) {
	assert.Equal(t, "Purchase_Order", Term("Purchase Order"))
	assert.Equal(t, "has-value", Term(" has-value "))
	assert.Equal(t, "legalName", Term(`legal"Name`))
	assert.Equal(t, "v1.2", Term("v1.2."))
	assert.Equal(t, "_3DModel", Term("3D/Model"))
	assert.Equal(t, "", Term(`???`))
	assert.Equal(t, "", Term("  "))
}

func TestProposalToTurtleSkipsUnnameableEntities(t *testing.T) {
	agg := &domain.AggregatedProposal{
		Classes: []domain.ProposedClass{
			{Name: "???"},
			{Name: "Invoice"},
		},
		DatatypeProperties: []domain.ProposedProperty{
			{Name: "amount", Domain: "!!!", Range: "number"},
		},
		ObjectProperties: []domain.ProposedProperty{
			{Name: "&", Domain: "Invoice", Range: "Customer"},
		},
		Events: []domain.ProposedEvent{
			{Name: "..."},
		},
	}

	ttl := ProposalToTurtle(agg, "")

	assert.Contains(t, ttl, "biz:Invoice a owl:Class .")
	assert.NotContains(t, ttl, "biz: a ")
	assert.NotContains(t, ttl, "biz:amount")
	assert.NotContains(t, ttl, "owl:ObjectProperty")
}

func TestLiteral(t *testing.T) {
	assert.Equal(t, `"plain"`, Literal("plain"))
	assert.Equal(t, `"say \"hi\"\nnow"`, Literal("say \"hi\"\nnow"))
	assert.Equal(t, `"back\\slash"`, Literal(`back\slash`))
}
