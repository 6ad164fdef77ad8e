package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/afero"
)

// ListFiles returns the relative paths of every regular file under root,
// sorted lexicographically, with forward-slash separators regardless of the
// host filesystem. A root that does not exist yields an empty list, not an
// error: "nothing to compare against" is a normal state on first publish.
func ListFiles(fsys afero.Fs, root string) ([]string, error) {
	if ok, err := afero.DirExists(fsys, root); err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	} else if !ok {
		return []string{}, nil
	}

	out := []string{}
	err := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", path, err)
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Strings(out)
	return out, nil
}
