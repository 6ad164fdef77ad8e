package publish

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// copyTree copies every regular file under src into dst, recreating the
// directory structure. dst must not exist yet.
func copyTree(fsys afero.Fs, src, dst string) error {
	return afero.Walk(fsys, src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}
		target := path.Join(dst, filepath.ToSlash(rel))
		if info.IsDir() {
			if err := fsys.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf("create %s: %w", target, err)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		return copyFile(fsys, p, target)
	})
}

// copyFile copies one file, creating parent directories as needed.
func copyFile(fsys afero.Fs, src, dst string) error {
	in, err := fsys.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	if dir := path.Dir(dst); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	out, err := fsys.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}
