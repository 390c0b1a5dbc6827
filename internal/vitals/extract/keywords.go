package extract

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed keywords.yaml
var defaultKeywords []byte

// FieldKeywords lists the phrases that anchor a numeric value.
type FieldKeywords struct {
	Before []string `yaml:"before"`
	After  []string `yaml:"after"`
}

// ConsciousnessKeywords lists phrases per level, checked most severe first.
type ConsciousnessKeywords struct {
	Unconscious []string `yaml:"unconscious"`
	Confused    []string `yaml:"confused"`
	Drowsy      []string `yaml:"drowsy"`
}

// KeywordTable is the vocabulary for one language.
type KeywordTable struct {
	SpO2          FieldKeywords         `yaml:"spo2"`
	SystolicBP    FieldKeywords         `yaml:"systolicBp"`
	HeartRate     FieldKeywords         `yaml:"heartRate"`
	Temperature   FieldKeywords         `yaml:"temperature"`
	Age           FieldKeywords         `yaml:"age"`
	Consciousness ConsciousnessKeywords `yaml:"consciousness"`
}

// Tables maps a language to its keyword table.
type Tables map[Language]KeywordTable

// DefaultTables returns the tables compiled into the binary.
func DefaultTables() (Tables, error) {
	return parseTables(defaultKeywords)
}

// LoadTables reads keyword tables from a YAML file. An empty path returns
// the built-in tables.
func LoadTables(path string) (Tables, error) {
	if path == "" {
		return DefaultTables()
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read keyword tables: %w", err)
	}
	return parseTables(data)
}

func parseTables(data []byte) (Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse keyword tables: %w", err)
	}
	if _, ok := t[English]; !ok {
		return nil, errors.New("keyword tables: english table is required")
	}
	for lang := range t {
		if !slices.Contains(Languages, lang) {
			return nil, fmt.Errorf("keyword tables: unsupported language %q", lang)
		}
	}
	return t, nil
}
