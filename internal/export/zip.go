package export

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ZipDir archives every regular file under dir into a deflate-compressed
// zip at zipPath, with entry names relative to dir.
func ZipDir(fsys afero.Fs, dir, zipPath string) error {
	out, err := fsys.Create(zipPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", zipPath, err)
	}

	zw := zip.NewWriter(out)
	err = afero.Walk(fsys, dir, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return fmt.Errorf("relativize %s: %w", p, err)
		}

		entry, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return fmt.Errorf("add %s: %w", rel, err)
		}
		f, err := fsys.Open(p)
		if err != nil {
			return fmt.Errorf("open %s: %w", p, err)
		}
		if _, err := io.Copy(entry, f); err != nil {
			f.Close()
			return fmt.Errorf("compress %s: %w", rel, err)
		}
		return f.Close()
	})
	if err != nil {
		zw.Close()
		out.Close()
		return err
	}

	if err := zw.Close(); err != nil {
		out.Close()
		return fmt.Errorf("finalize %s: %w", zipPath, err)
	}
	return out.Close()
}
