// Package configs provides embedded configuration templates and ranking
// data tables for Scholium.
//
// Everything here is embedded at build time using Go's //go:embed
// directive, so it is available in all distributions:
//   - Source builds (go install)
//   - Binary releases
//
// Template files:
//   - user-config.example.yaml: machine-level settings (embedder, logging)
//   - library-config.example.yaml: library-level settings (roots, search)
//
// Data tables:
//   - dictionary.yaml: domain words for the segmenter
//   - topics.yaml: topic -> synonym expansion for the lexical channel
//   - translations.yaml: cross-lingual bridge tables
//
// To modify any of these, edit the .yaml files in this directory and
// rebuild.
package configs

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by `scholium config init` at ~/.config/scholium/config.yaml.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// LibraryConfigTemplate is the template for library-level configuration.
// Created by `scholium init` at .scholium.yaml in the library directory.
//
//go:embed library-config.example.yaml
var LibraryConfigTemplate string

//go:embed dictionary.yaml
var dictionaryYAML []byte

//go:embed topics.yaml
var topicsYAML []byte

//go:embed translations.yaml
var translationsYAML []byte

// CompoundRule adds Tag to a document's topic labels when every label in
// When is already present.
type CompoundRule struct {
	When []string `yaml:"when"`
	Tag  string   `yaml:"tag"`
}

// Translations holds the cross-lingual bridge tables.
type Translations struct {
	// Templates are full-query translations, matched before term walking.
	Templates map[string]string `yaml:"templates"`
	// Terms maps a zh term to its en synonym string.
	Terms map[string]string `yaml:"terms"`
	// EnTags maps an en phrase to a zh topic label.
	EnTags map[string]string `yaml:"en_tags"`
	// CompoundRules synthesize cross-topic labels.
	CompoundRules []CompoundRule `yaml:"compound_rules"`
}

// DomainWords returns the embedded domain dictionary in stable order.
func DomainWords() ([]string, error) {
	var doc struct {
		DomainWords []string `yaml:"domain_words"`
	}
	if err := yaml.Unmarshal(dictionaryYAML, &doc); err != nil {
		return nil, fmt.Errorf("parse embedded dictionary.yaml: %w", err)
	}
	return doc.DomainWords, nil
}

// TopicExpansions returns the embedded topic -> synonym expansion table.
func TopicExpansions() (map[string][]string, error) {
	var table map[string][]string
	if err := yaml.Unmarshal(topicsYAML, &table); err != nil {
		return nil, fmt.Errorf("parse embedded topics.yaml: %w", err)
	}
	return table, nil
}

// LoadTranslations returns the embedded cross-lingual bridge tables.
func LoadTranslations() (*Translations, error) {
	var t Translations
	if err := yaml.Unmarshal(translationsYAML, &t); err != nil {
		return nil, fmt.Errorf("parse embedded translations.yaml: %w", err)
	}
	return &t, nil
}

// SortedByLengthDesc returns the map's keys ordered by decreasing length,
// ties broken lexicographically. Longest-match term walks depend on this
// ordering being deterministic.
func SortedByLengthDesc(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}
