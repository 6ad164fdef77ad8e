package snapshot

import (
	"fmt"
	"io"
	"path"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/spf13/afero"
)

// MaxTextDiffSize is the largest file we will render a unified diff for.
// Bigger files only get the metadata comparison.
const MaxTextDiffSize = 10 * 1024 * 1024 // 10 MB

// FileDiff is the result of comparing one file between two snapshot trees.
type FileDiff struct {
	Path        string `json:"path"`
	ChangeType  string `json:"change_type"` // "added", "removed", "modified", "unchanged"
	IsBinary    bool   `json:"is_binary"`
	OldSize     int64  `json:"old_size,omitempty"`
	NewSize     int64  `json:"new_size,omitempty"`
	OldHash     string `json:"old_hash,omitempty"`
	NewHash     string `json:"new_hash,omitempty"`
	UnifiedDiff string `json:"unified_diff,omitempty"`
}

// DiffFile compares the copy of rel under oldRoot with the copy under
// newRoot and, for text files within the size limit, renders a unified diff.
func DiffFile(fsys afero.Fs, oldRoot, newRoot, rel string) (*FileDiff, error) {
	oldPath := path.Join(oldRoot, rel)
	newPath := path.Join(newRoot, rel)

	oldExists, err := afero.Exists(fsys, oldPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", oldPath, err)
	}
	newExists, err := afero.Exists(fsys, newPath)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", newPath, err)
	}

	result := &FileDiff{Path: rel}
	switch {
	case !oldExists && newExists:
		result.ChangeType = "added"
	case oldExists && !newExists:
		result.ChangeType = "removed"
	case !oldExists && !newExists:
		return nil, fmt.Errorf("file not found in either snapshot: %s", rel)
	default:
		result.ChangeType = "modified"
	}

	if oldExists {
		if info, err := fsys.Stat(oldPath); err == nil {
			result.OldSize = info.Size()
		}
		if hash, err := HashFile(fsys, oldPath); err == nil {
			result.OldHash = hash
		}
	}
	if newExists {
		if info, err := fsys.Stat(newPath); err == nil {
			result.NewSize = info.Size()
		}
		if hash, err := HashFile(fsys, newPath); err == nil {
			result.NewHash = hash
		}
	}

	if result.ChangeType == "modified" && result.OldHash == result.NewHash {
		result.ChangeType = "unchanged"
		return result, nil
	}

	if oldExists && isBinaryFile(fsys, oldPath) {
		result.IsBinary = true
	}
	if newExists && isBinaryFile(fsys, newPath) {
		result.IsBinary = true
	}
	if result.IsBinary {
		return result, nil
	}

	if result.OldSize > MaxTextDiffSize || result.NewSize > MaxTextDiffSize {
		return result, nil
	}

	var oldContent, newContent string
	if oldExists {
		if data, err := afero.ReadFile(fsys, oldPath); err == nil {
			oldContent = string(data)
		}
	}
	if newExists {
		if data, err := afero.ReadFile(fsys, newPath); err == nil {
			newContent = string(data)
		}
	}

	unified, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(oldContent),
		B:        difflib.SplitLines(newContent),
		FromFile: "a/" + rel,
		ToFile:   "b/" + rel,
		Context:  3,
	})
	if err != nil {
		return nil, fmt.Errorf("generate unified diff: %w", err)
	}
	result.UnifiedDiff = unified

	return result, nil
}

// isBinaryFile checks whether the file looks binary by inspecting its first 8 KB.
func isBinaryFile(fsys afero.Fs, p string) bool {
	f, err := fsys.Open(p)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 8192)
	n, err := f.Read(buf)
	if err != nil && err != io.EOF {
		return false
	}

	if !utf8.Valid(buf[:n]) {
		return true
	}
	for i := 0; i < n; i++ {
		if buf[i] == 0 {
			return true
		}
	}
	return false
}
