package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ontorag/ontorag/internal/schemacard"
)

func TestSchemaCardMissingFileIsEmptyCard(t *testing.T) {
	store := NewFileStore(t.TempDir())

	card, err := store.ReadSchemaCard()
	require.NoError(t, err)
	assert.Equal(t, 0, card.Version)
	assert.Empty(t, card.Classes)
}

func TestSchemaCardRoundTrip(t *testing.T) {
	store := NewFileStore(t.TempDir())

	card := schemacard.SchemaCard{
		Version: 2,
		Classes: []schemacard.CardClass{{Name: "Invoice", Description: "A billing document"}},
		DatatypeProperties: []schemacard.CardProperty{
			{Name: "invoice_number", Domain: "Invoice", Range: "string"},
		},
		UpdatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.StoreSchemaCard(card))

	got, err := store.ReadSchemaCard()
	require.NoError(t, err)
	assert.Equal(t, card, got)
}
