package schemacard

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderEmptyCard(t *testing.T) {
	assert.Equal(t, "", Render(SchemaCard{Version: 0}))
}

func TestRenderFullCard(t *testing.T) {
	card := SchemaCard{
		Version: 3,
		Classes: []CardClass{
			{Name: "Invoice", Description: "A billing document"},
			{Name: "Customer"},
		},
		DatatypeProperties: []CardProperty{
			{Name: "invoice_number", Domain: "Invoice", Range: "string", Description: "Unique number"},
		},
		ObjectProperties: []CardProperty{
			{Name: "billed_to", Domain: "Invoice", Range: "Customer"},
		},
		Events: []CardEvent{
			{Name: "InvoiceIssued", Actors: []string{"Customer"}, Effects: []string{"invoice exists"}},
		},
	}

	out := Render(card)

	assert.True(t, strings.HasPrefix(out, "SCHEMA CARD v3\n"))
	assert.Contains(t, out, "- Invoice: A billing document\n")
	assert.Contains(t, out, "- Customer\n")
	assert.Contains(t, out, "- invoice_number (Invoice -> string): Unique number\n")
	assert.Contains(t, out, "- billed_to (Invoice -> Customer)\n")
	assert.Contains(t, out, "- InvoiceIssued actors=[Customer] effects=[invoice exists]\n")
}

func TestRenderStableOrder(t *testing.T) {
	card := SchemaCard{
		Version: 1,
		Classes: []CardClass{{Name: "B"}, {Name: "A"}},
	}

	out := Render(card)
	assert.Less(t, strings.Index(out, "- B"), strings.Index(out, "- A"))
	assert.Equal(t, out, Render(card))
}
