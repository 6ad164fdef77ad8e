package snapshot

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestDiffFile(t *testing.T) {
	t.Run("modified text file gets a unified diff", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "old/notes.txt", []byte("alpha\nbeta\ngamma\n"), 0o644))
		require.NoError(t, afero.WriteFile(fsys, "new/notes.txt", []byte("alpha\nBETA\ngamma\n"), 0o644))

		d, err := DiffFile(fsys, "old", "new", "notes.txt")
		require.NoError(t, err)

		require.Equal(t, "modified", d.ChangeType)
		require.False(t, d.IsBinary)
		if !strings.Contains(d.UnifiedDiff, "-beta") || !strings.Contains(d.UnifiedDiff, "+BETA") {
			t.Errorf("unified diff missing expected hunks:\n%s", d.UnifiedDiff)
		}
		if !strings.Contains(d.UnifiedDiff, "a/notes.txt") {
			t.Errorf("unified diff missing file header:\n%s", d.UnifiedDiff)
		}
	})

	t.Run("identical content is unchanged", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "old/f.json", []byte(`{"a":1}`), 0o644))
		require.NoError(t, afero.WriteFile(fsys, "new/f.json", []byte(`{"a":1}`), 0o644))

		d, err := DiffFile(fsys, "old", "new", "f.json")
		require.NoError(t, err)
		require.Equal(t, "unchanged", d.ChangeType)
		require.Empty(t, d.UnifiedDiff)
	})

	t.Run("added and removed", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "new/fresh.txt", []byte("hi\n"), 0o644))
		require.NoError(t, afero.WriteFile(fsys, "old/gone.txt", []byte("bye\n"), 0o644))

		added, err := DiffFile(fsys, "old", "new", "fresh.txt")
		require.NoError(t, err)
		require.Equal(t, "added", added.ChangeType)

		removed, err := DiffFile(fsys, "old", "new", "gone.txt")
		require.NoError(t, err)
		require.Equal(t, "removed", removed.ChangeType)
	})

	t.Run("missing on both sides is an error", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		_, err := DiffFile(fsys, "old", "new", "nope.txt")
		require.Error(t, err)
	})

	t.Run("binary files skip the unified diff", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		bin := []byte{0x89, 'P', 'N', 'G', 0x00, 0x01, 0x02}
		require.NoError(t, afero.WriteFile(fsys, "old/img.png", bin, 0o644))
		require.NoError(t, afero.WriteFile(fsys, "new/img.png", append(bin, 0xFF), 0o644))

		d, err := DiffFile(fsys, "old", "new", "img.png")
		require.NoError(t, err)
		require.True(t, d.IsBinary)
		require.Empty(t, d.UnifiedDiff)
	})
}
