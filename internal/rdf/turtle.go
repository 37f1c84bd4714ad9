// Package rdf exports aggregated proposals as OWL/RDFS Turtle for
// staging in a triple store.
package rdf

import (
	"fmt"
	"strings"

	"github.com/ontorag/ontorag/internal/domain"
)

// DefaultNamespace is the base namespace for generated terms when none
// is configured.
const DefaultNamespace = "http://www.example.com/biz/"

// xsdRanges maps the proposer's datatype vocabulary onto XSD types.
// Unrecognized values fall back to xsd:string.
var xsdRanges = map[string]string{
	"string":   "xsd:string",
	"number":   "xsd:decimal",
	"integer":  "xsd:integer",
	"boolean":  "xsd:boolean",
	"date":     "xsd:date",
	"datetime": "xsd:dateTime",
	"enum":     "xsd:string",
	"any":      "xsd:string",
}

// ProposalToTurtle serializes an aggregated proposal as Turtle under
// the given base namespace. Output order follows the proposal's entity
// order, so a deterministic proposal yields deterministic Turtle.
func ProposalToTurtle(agg *domain.AggregatedProposal, namespace string) string {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	var b strings.Builder
	fmt.Fprintf(&b, "@prefix biz: <%s> .\n", namespace)
	b.WriteString("@prefix owl: <http://www.w3.org/2002/07/owl#> .\n")
	b.WriteString("@prefix rdfs: <http://www.w3.org/2000/01/rdf-schema#> .\n")
	b.WriteString("@prefix xsd: <http://www.w3.org/2001/XMLSchema#> .\n")

	if agg == nil {
		return b.String()
	}

	// Entities whose name sanitizes to nothing are skipped rather
	// than emitted with an empty local part.
	for _, c := range agg.Classes {
		term := Term(c.Name)
		if term == "" {
			continue
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "biz:%s a owl:Class", term)
		if c.Description != "" {
			fmt.Fprintf(&b, " ;\n    rdfs:comment %s", Literal(c.Description))
		}
		b.WriteString(" .\n")
	}

	for _, p := range agg.DatatypeProperties {
		name, dom := Term(p.Name), Term(p.Domain)
		if name == "" || dom == "" {
			continue
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "biz:%s a owl:DatatypeProperty ;\n", name)
		fmt.Fprintf(&b, "    rdfs:domain biz:%s ;\n", dom)
		fmt.Fprintf(&b, "    rdfs:range %s", DatatypeRange(p.Range))
		if p.Description != "" {
			fmt.Fprintf(&b, " ;\n    rdfs:comment %s", Literal(p.Description))
		}
		b.WriteString(" .\n")
	}

	for _, p := range agg.ObjectProperties {
		name, dom, rng := Term(p.Name), Term(p.Domain), Term(p.Range)
		if name == "" || dom == "" || rng == "" {
			continue
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "biz:%s a owl:ObjectProperty ;\n", name)
		fmt.Fprintf(&b, "    rdfs:domain biz:%s ;\n", dom)
		fmt.Fprintf(&b, "    rdfs:range biz:%s", rng)
		if p.Description != "" {
			fmt.Fprintf(&b, " ;\n    rdfs:comment %s", Literal(p.Description))
		}
		b.WriteString(" .\n")
	}

	// Events are modeled as classes in the staging ontology.
	for _, e := range agg.Events {
		term := Term(e.Name)
		if term == "" {
			continue
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "biz:%s a owl:Class", term)
		b.WriteString(" .\n")
	}

	return b.String()
}

// DatatypeRange resolves a proposer range label to an XSD term.
func DatatypeRange(label string) string {
	if r, ok := xsdRanges[strings.ToLower(strings.TrimSpace(label))]; ok {
		return r
	}
	return "xsd:string"
}

// Term makes an entity name usable as the local part of a prefixed
// IRI: whitespace becomes underscores, characters Turtle forbids in
// prefixed names are dropped, and a leading digit is prefixed with an
// underscore. A name with no usable characters maps to the empty
// string; callers must skip those. The mapping is deterministic.
func Term(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r == ' ' || r == '\t' || r == '\n':
			b.WriteRune('_')
		case r == '_' || r == '-' || r == '.':
			b.WriteRune(r)
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r > 127:
			b.WriteRune(r)
		}
	}
	term := strings.Trim(b.String(), ".")
	if term != "" && term[0] >= '0' && term[0] <= '9' {
		term = "_" + term
	}
	return term
}

// Literal quotes and escapes a Turtle string literal.
func Literal(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return `"` + r.Replace(s) + `"`
}
