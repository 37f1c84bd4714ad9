package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ontorag/ontorag/internal/schemacard"
)

func (s *FileStore) cardPath() string {
	return filepath.Join(s.dir, "schema_card.json")
}

// ReadSchemaCard loads the cumulative schema card. A missing file is
// the empty card at version zero, not an error.
func (s *FileStore) ReadSchemaCard() (schemacard.SchemaCard, error) {
	payload, err := os.ReadFile(s.cardPath())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return schemacard.SchemaCard{}, nil
		}
		return schemacard.SchemaCard{}, fmt.Errorf("failed to read schema card: %w", err)
	}
	var card schemacard.SchemaCard
	if err := json.Unmarshal(payload, &card); err != nil {
		return schemacard.SchemaCard{}, fmt.Errorf("failed to parse schema card: %w", err)
	}
	return card, nil
}

// StoreSchemaCard writes the schema card atomically.
func (s *FileStore) StoreSchemaCard(card schemacard.SchemaCard) error {
	payload, err := json.MarshalIndent(card, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema card: %w", err)
	}
	return writeFileAtomic(s.cardPath(), payload)
}
