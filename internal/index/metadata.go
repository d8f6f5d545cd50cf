package index

import (
	"encoding/json"
	"os"

	"github.com/scholium/scholium/internal/errors"
)

// ExternalMeta is one document's entry in the external metadata export
// (a reference manager's records keyed by attachment filename).
type ExternalMeta struct {
	Title       string   `json:"title,omitempty"`
	Authors     []string `json:"authors,omitempty"`
	Collections []string `json:"collections,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Year        string   `json:"year,omitempty"`
	Abstract    string   `json:"abstract,omitempty"`
	Keywords    string   `json:"keywords,omitempty"`
}

// LoadMetadata reads the external metadata export. An empty path
// disables enrichment and returns nil without error; a configured but
// unreadable or malformed file is an error, since silently indexing
// without metadata would degrade every build after it.
func LoadMetadata(path string) (map[string]ExternalMeta, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err).
			WithDetail("metadata_path", path).
			WithSuggestion("Fix library.metadata_path or clear it to disable metadata enrichment")
	}
	var meta map[string]ExternalMeta
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err).
			WithDetail("metadata_path", path)
	}
	return meta, nil
}
