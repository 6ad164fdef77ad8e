package snapshot

import (
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// FileChanges classifies every path of two compared trees. The three lists
// are pairwise disjoint and sorted; paths present in both trees with equal
// content are only counted.
type FileChanges struct {
	Added          []string `json:"added"`
	Removed        []string `json:"removed"`
	Changed        []string `json:"changed"`
	UnchangedCount int      `json:"unchanged_count"`
}

// Result is the artifact written as diff.json for each publish cycle.
type Result struct {
	GeneratedAt string      `json:"generated_at"`
	Files       FileChanges `json:"files"`
}

// Empty reports whether the diff found no additions, removals, or changes.
func (r *Result) Empty() bool {
	return len(r.Files.Added) == 0 && len(r.Files.Removed) == 0 && len(r.Files.Changed) == 0
}

// WriteFile serializes the result as indented JSON at outPath, creating
// parent directories as needed.
func (r *Result) WriteFile(fsys afero.Fs, outPath string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal diff: %w", err)
	}
	if dir := path.Dir(outPath); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create diff directory: %w", err)
		}
	}
	if err := afero.WriteFile(fsys, outPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write diff: %w", err)
	}
	return nil
}

// Differ compares two directory trees file by file.
type Differ struct {
	fs     afero.Fs
	logger zerolog.Logger
	now    func() time.Time
}

// NewDiffer creates a Differ operating on the given filesystem.
func NewDiffer(fsys afero.Fs, logger zerolog.Logger) *Differ {
	return &Differ{
		fs:     fsys,
		logger: logger.With().Str("component", "differ").Logger(),
		now:    time.Now,
	}
}

// Diff classifies every file under oldRoot and newRoot as added, removed,
// changed, or unchanged. Files present in both trees are compared by SHA-256
// digest; a file that vanishes or becomes unreadable mid-comparison is
// reported as changed so the diff always completes. When oldRoot does not
// exist at all the result short-circuits to "everything added" without
// hashing anything, so a first publish never reports spurious changes.
func (d *Differ) Diff(oldRoot, newRoot string) (*Result, error) {
	result := &Result{
		GeneratedAt: FormatTime(d.now()),
		Files: FileChanges{
			Added:   []string{},
			Removed: []string{},
			Changed: []string{},
		},
	}

	oldExists, err := afero.DirExists(d.fs, oldRoot)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", oldRoot, err)
	}

	newPaths, err := ListFiles(d.fs, newRoot)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", newRoot, err)
	}

	if !oldExists {
		result.Files.Added = newPaths
		return result, nil
	}

	oldPaths, err := ListFiles(d.fs, oldRoot)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", oldRoot, err)
	}

	oldSet := make(map[string]bool, len(oldPaths))
	for _, p := range oldPaths {
		oldSet[p] = true
	}
	newSet := make(map[string]bool, len(newPaths))
	for _, p := range newPaths {
		newSet[p] = true
	}

	for _, p := range newPaths {
		if !oldSet[p] {
			result.Files.Added = append(result.Files.Added, p)
		}
	}
	for _, p := range oldPaths {
		if !newSet[p] {
			result.Files.Removed = append(result.Files.Removed, p)
		}
	}

	for _, rel := range oldPaths {
		if !newSet[rel] {
			continue
		}
		oldHash, oldErr := HashFile(d.fs, path.Join(oldRoot, rel))
		newHash, newErr := HashFile(d.fs, path.Join(newRoot, rel))
		if oldErr != nil || newErr != nil {
			// A file disappearing mid-comparison counts as changed; the
			// diff must still complete and report a result.
			d.logger.Warn().
				Str("path", rel).
				AnErr("old_error", oldErr).
				AnErr("new_error", newErr).
				Msg("hash failed during comparison, marking changed")
			result.Files.Changed = append(result.Files.Changed, rel)
			continue
		}
		if oldHash != newHash {
			result.Files.Changed = append(result.Files.Changed, rel)
		} else {
			result.Files.UnchangedCount++
		}
	}

	sort.Strings(result.Files.Added)
	sort.Strings(result.Files.Removed)
	sort.Strings(result.Files.Changed)

	return result, nil
}
