package parser

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed vocabulary.json
var defaultVocabularyJSON []byte

//go:embed vocabulary_schema.json
var vocabularySchemaJSON []byte

// CategoryRule maps a category name to the trigger phrases that identify
// its subtotal line on a receipt.
type CategoryRule struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
}

// Vocabulary holds the closed vendor and category lists the parser matches
// against. Slice order in the source file is the match order: the first
// vendor found in the text wins, and per category the first keyword with a
// trailing amount wins.
type Vocabulary struct {
	Vendors    []string       `json:"vendors"`
	Categories []CategoryRule `json:"categories"`
}

// ParseVocabulary validates raw JSON against the vocabulary schema and
// decodes it.
func ParseVocabulary(data []byte) (*Vocabulary, error) {
	if err := validateVocabularyJSON(data); err != nil {
		return nil, err
	}
	var v Vocabulary
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("unmarshal vocabulary: %w", err)
	}
	return &v, nil
}

// LoadVocabularyFile reads and validates a vocabulary JSON file.
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}
	v, err := ParseVocabulary(data)
	if err != nil {
		return nil, fmt.Errorf("vocabulary %q: %w", path, err)
	}
	return v, nil
}

// DefaultVocabulary returns the embedded vendor and category lists.
func DefaultVocabulary() *Vocabulary {
	v, err := ParseVocabulary(defaultVocabularyJSON)
	if err != nil {
		panic(fmt.Sprintf("embedded vocabulary invalid: %v", err))
	}
	return v
}

func validateVocabularyJSON(data []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("vocabulary_schema.json", bytes.NewReader(vocabularySchemaJSON)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("vocabulary_schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal vocabulary: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("vocabulary does not match schema: %w", err)
	}
	return nil
}
