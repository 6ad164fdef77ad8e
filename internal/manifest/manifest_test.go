package manifest

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestIsCore(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"state.json", true},
		{"teams.json", true},
		{"schedule.json", true},
		{"transactions.json", true},
		{"players_min.json", true},
		{"lineups/week_1.json", true},
		{"lineups/week_14.json", true},
		{"league.json", false},
		{"export_meta.json", false},
		{"teams.csv", false},
		{"sub/state.json", false},
	}
	for _, tt := range tests {
		if got := IsCore(tt.rel); got != tt.want {
			t.Errorf("IsCore(%q) = %v, want %v", tt.rel, got, tt.want)
		}
	}
}

func TestBuild(t *testing.T) {
	fsys := afero.NewMemMapFs()
	logger := zerolog.Nop()

	require.NoError(t, afero.WriteFile(fsys, "league_123/state.json",
		[]byte(`{"generated_at":"2025-09-01T12:00:00Z","week":1}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "league_123/teams.json", []byte(`[]`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "league_123/lineups/week_1.json", []byte(`[]`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "league_123/teams.csv", []byte("roster_id\n"), 0o644))

	m, err := NewBuilder(fsys, logger).Build("league_123", "123")
	require.NoError(t, err)

	require.Equal(t, "123", m.LeagueID)
	require.Equal(t, 4, m.FileCount)
	require.Len(t, m.Files, 4)

	// generated_at comes from state.json, not the wall clock.
	require.Equal(t, "2025-09-01T12:00:00Z", m.GeneratedAt)

	byPath := map[string]File{}
	for _, f := range m.Files {
		byPath[f.Path] = f
		if f.SHA256 == "" {
			t.Errorf("%s: empty sha256", f.Path)
		}
		if f.MTime == "" {
			t.Errorf("%s: empty mtime", f.Path)
		}
	}
	require.True(t, byPath["state.json"].IsCore)
	require.True(t, byPath["lineups/week_1.json"].IsCore)
	require.False(t, byPath["teams.csv"].IsCore)
	require.Equal(t, int64(2), byPath["teams.json"].Bytes)
}

func TestBuildGeneratedAtFallback(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("missing state.json", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "root/teams.json", []byte(`[]`), 0o644))

		m, err := NewBuilder(fsys, logger).Build("root", "1")
		require.NoError(t, err)
		require.NotEmpty(t, m.GeneratedAt)
	})

	t.Run("unparsable state.json", func(t *testing.T) {
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "root/state.json", []byte("not json"), 0o644))

		m, err := NewBuilder(fsys, logger).Build("root", "1")
		require.NoError(t, err)
		require.NotEmpty(t, m.GeneratedAt)
	})
}

func TestWrite(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "league_9/state.json", []byte(`{}`), 0o644))

	b := NewBuilder(fsys, zerolog.Nop())
	require.NoError(t, b.Write("league_9", "9"))

	ok, err := afero.Exists(fsys, "league_9/"+FileName)
	require.NoError(t, err)
	require.True(t, ok)
}
