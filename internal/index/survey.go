// Package index builds the corpus and vector snapshots: it surveys the
// configured document roots, runs the extractor boundary over every
// file, deduplicates and tokenizes the records, synthesizes bilingual
// topic labels, and embeds whatever changed since the last build. One
// build holds an exclusive cross-process lock.
package index

import (
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/scholium/scholium/internal/config"
	"github.com/scholium/scholium/internal/errors"
)

// attachmentPatterns mark files that live next to the papers but are
// not papers themselves: supplements, peer-review bundles, translation
// copies.
var attachmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(supplement|supplementary|supporting information|peer review)\b`),
	regexp.MustCompile(`(?i)\bsupplemental material\b`),
	regexp.MustCompile(`中文翻译|中译全文|中文全译|补充材料`),
}

// SurveyFile is one document discovered under a configured root.
type SurveyFile struct {
	// Path is the absolute file path.
	Path string
	// Name is the base filename, which becomes the document key.
	Name string
	// Folder is the file's directory relative to its root, "" at the
	// root itself.
	Folder string
	// Source and Priority come from the root the file was found under.
	Source   string
	Priority int
	// ModTime is the file's last modification time, used to decide
	// staleness in incremental builds.
	ModTime time.Time
}

// Survey walks every configured root and returns the surveyed files in
// root order, sorted by name within each root. Roots that do not exist
// are an error; unreadable subtrees abort the survey rather than
// silently shrinking the corpus.
func Survey(lib config.LibraryConfig) ([]SurveyFile, error) {
	if len(lib.Roots) == 0 {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "no library roots configured", nil).
			WithSuggestion("Add library.roots to your config, or run 'scholium init' in the library directory")
	}

	var files []SurveyFile
	for _, root := range lib.Roots {
		found, err := surveyRoot(root, lib.Exclude)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func surveyRoot(root config.RootConfig, exclude []string) ([]SurveyFile, error) {
	base, err := filepath.Abs(root.Path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err)
	}

	var files []SurveyFile
	walkErr := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && excludedPath(rel, exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".pdf") {
			return nil
		}
		if excludedPath(rel, exclude) || isAttachment(d.Name()) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		folder := filepath.ToSlash(filepath.Dir(rel))
		if folder == "." {
			folder = ""
		}
		files = append(files, SurveyFile{
			Path:     path,
			Name:     d.Name(),
			Folder:   folder,
			Source:   root.Source,
			Priority: root.Priority,
			ModTime:  info.ModTime(),
		})
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, walkErr).
			WithDetail("root", root.Path)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// isAttachment reports whether the filename marks a non-paper sidecar
// file.
func isAttachment(name string) bool {
	for _, pat := range attachmentPatterns {
		if pat.MatchString(name) {
			return true
		}
	}
	return false
}

// excludedPath matches a root-relative path against the configured
// exclude globs. Patterns apply to the base name and to each path
// segment; a leading "**/" or trailing "/**" is accepted and stripped.
func excludedPath(rel string, patterns []string) bool {
	rel = filepath.ToSlash(rel)
	segments := strings.Split(rel, "/")
	for _, pattern := range patterns {
		p := filepath.ToSlash(pattern)
		p = strings.TrimPrefix(p, "**/")
		p = strings.TrimSuffix(p, "/**")
		for _, seg := range segments {
			if ok, _ := filepath.Match(p, seg); ok {
				return true
			}
		}
	}
	return false
}
