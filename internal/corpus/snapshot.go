package corpus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/scholium/scholium/internal/errors"
)

// snapshotVersion guards the on-disk format. Bump on incompatible change.
const snapshotVersion = 1

// snapshotFile is the wholesale on-disk representation of a Store.
type snapshotFile struct {
	Version   int               `json:"version"`
	Stats     BuildStats        `json:"stats"`
	Documents []*DocumentRecord `json:"documents"`
}

// Save writes the store to path as a single JSON document. The write is
// atomic: a temp file in the same directory is renamed over the target,
// so readers only ever observe a complete snapshot.
func (s *Store) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeFilePermission, err)
	}

	snap := snapshotFile{
		Version: snapshotVersion,
		Stats:   s.stats,
	}
	snap.Documents = make([]*DocumentRecord, 0, len(s.order))
	for _, k := range s.order {
		snap.Documents = append(snap.Documents, s.docs[k])
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

	slog.Debug("corpus snapshot saved",
		slog.String("path", path),
		slog.Int("documents", len(snap.Documents)))
	return nil
}

// Load reads a snapshot written by Save. A missing file and a corrupt
// file are distinct errors so callers can tell "build first" apart from
// "rebuild required".
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.New(errors.ErrCodeSnapshotMissing,
			fmt.Sprintf("corpus snapshot not found at %s", path), err).
			WithSuggestion("Run 'scholium index' to build the corpus")
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFilePermission, err)
	}

	var snap snapshotFile
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, errors.New(errors.ErrCodeSnapshotCorrupt,
			fmt.Sprintf("corpus snapshot at %s is not valid JSON", path), err).
			WithSuggestion("Run 'scholium index --force' to rebuild")
	}
	if snap.Version != snapshotVersion {
		return nil, errors.Newf(errors.ErrCodeSnapshotCorrupt,
			"corpus snapshot version %d is not supported (want %d)", snap.Version, snapshotVersion).
			WithSuggestion("Run 'scholium index --force' to rebuild")
	}

	s := &Store{
		docs:  make(map[string]*DocumentRecord, len(snap.Documents)),
		stats: snap.Stats,
	}
	for i, d := range snap.Documents {
		if d == nil || d.Key == "" {
			return nil, errors.Newf(errors.ErrCodeSnapshotCorrupt,
				"corpus snapshot document %d has no key", i)
		}
		if _, dup := s.docs[d.Key]; dup {
			return nil, errors.Newf(errors.ErrCodeSnapshotCorrupt,
				"corpus snapshot contains duplicate key %q", d.Key)
		}
		s.docs[d.Key] = d
		s.order = append(s.order, d.Key)
	}
	sort.Strings(s.order)

	slog.Debug("corpus snapshot loaded",
		slog.String("path", path),
		slog.Int("documents", len(s.order)))
	return s, nil
}
