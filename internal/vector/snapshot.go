package vector

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/scholium/scholium/internal/errors"
)

const snapshotVersion = 1

type snapshotEntry struct {
	Key    string    `json:"key"`
	Vector []float32 `json:"vector"`
}

type snapshotFile struct {
	Version    int             `json:"version"`
	Model      string          `json:"model"`
	Dimensions int             `json:"dimensions"`
	Entries    []snapshotEntry `json:"entries"`
}

// Save writes the index to path as a single JSON document via the same
// temp-file-and-rename pattern as the corpus snapshot.
func (x *Index) Save(path string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilePermission, err)
	}

	snap := snapshotFile{
		Version:    snapshotVersion,
		Model:      x.model,
		Dimensions: x.dims,
	}
	snap.Entries = make([]snapshotEntry, 0, len(x.vectors))
	for _, k := range x.sortedKeys() {
		snap.Entries = append(snap.Entries, snapshotEntry{Key: k, Vector: x.vectors[k]})
	}

	data, err := json.Marshal(&snap)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeFilePermission, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeFilePermission, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeFilePermission, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeFilePermission, err)
	}

	slog.Debug("vector snapshot saved",
		slog.String("path", path),
		slog.String("model", x.model),
		slog.Int("entries", len(snap.Entries)))
	return nil
}

// Load reads a snapshot written by Save. The caller states which model
// it expects; a snapshot built with a different model is rejected
// rather than mixed in, since similarities across models are
// meaningless.
func Load(path, model string) (*Index, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeSnapshotMissing,
			fmt.Sprintf("vector snapshot not found at %s", path), err).
			WithSuggestion("Run 'scholium index' to build the vector index")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilePermission, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.New(errors.ErrCodeSnapshotCorrupt,
			fmt.Sprintf("vector snapshot at %s is not valid JSON", path), err).
			WithSuggestion("Run 'scholium index --force' to rebuild")
	}
	if snap.Version != snapshotVersion {
		return nil, errors.Newf(errors.ErrCodeSnapshotCorrupt,
			"vector snapshot version %d is not supported (want %d)", snap.Version, snapshotVersion).
			WithSuggestion("Run 'scholium index --force' to rebuild")
	}
	if model != "" && snap.Model != model {
		return nil, errors.Newf(errors.ErrCodeModelMismatch,
			"vector snapshot was built with model %q, configuration wants %q", snap.Model, model).
			WithSuggestion("Run 'scholium index --force' to rebuild with the configured model")
	}

	x := New(snap.Model, snap.Dimensions)
	for i, e := range snap.Entries {
		if e.Key == "" {
			return nil, errors.Newf(errors.ErrCodeSnapshotCorrupt,
				"vector snapshot entry %d has no key", i)
		}
		if x.Contains(e.Key) {
			return nil, errors.Newf(errors.ErrCodeSnapshotCorrupt,
				"vector snapshot contains duplicate key %q", e.Key)
		}
		if err := x.Add(e.Key, e.Vector); err != nil {
			return nil, errors.Wrap(errors.ErrCodeSnapshotCorrupt, err)
		}
	}

	slog.Debug("vector snapshot loaded",
		slog.String("path", path),
		slog.String("model", x.model),
		slog.Int("entries", x.Len()))
	return x, nil
}
