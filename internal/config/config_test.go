package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseWeeks(t *testing.T) {
	tests := []struct {
		spec    string
		want    []int
		wantErr bool
	}{
		{"", nil, false},
		{"3", []int{3}, false},
		{"1-4", []int{1, 2, 3, 4}, false},
		{"1-4,7", []int{1, 2, 3, 4, 7}, false},
		{" 2 , 5-6 ", []int{2, 5, 6}, false},
		{"3,3,3", []int{3}, false},
		{"4-2", nil, true},
		{"0", nil, true},
		{"abc", nil, true},
		{"1-x", nil, true},
	}
	for _, tt := range tests {
		got, err := ParseWeeks(tt.spec)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseWeeks(%q): expected error", tt.spec)
			}
			continue
		}
		require.NoError(t, err, tt.spec)
		require.Equal(t, tt.want, got, tt.spec)
	}
}

func TestValidate(t *testing.T) {
	valid := &Config{
		DocsDir: "docs",
		Leagues: []League{{ID: "123"}},
	}
	require.NoError(t, valid.Validate())

	noDocs := &Config{Leagues: []League{{ID: "123"}}}
	require.Error(t, noDocs.Validate())

	noLeagues := &Config{DocsDir: "docs"}
	require.Error(t, noLeagues.Validate())

	blankID := &Config{DocsDir: "docs", Leagues: []League{{Label: "oops"}}}
	require.Error(t, blankID.Validate())
}

func TestLoad(t *testing.T) {
	t.Run("reads yaml file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		content := `docs_dir: /srv/docs
season: "2025"
weeks: "1-3"
leagues:
  - id: "111"
    label: Main
    keeper: true
  - id: "222"
schedule: "0 * * * *"
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		cfg, err := Load(path)
		require.NoError(t, err)

		require.Equal(t, "/srv/docs", cfg.DocsDir)
		require.Equal(t, "2025", cfg.Season)
		require.Len(t, cfg.Leagues, 2)
		require.True(t, cfg.Leagues[0].Keeper)
		require.Equal(t, []string{"111", "222"}, cfg.LeagueIDs())
		require.Equal(t, ":8090", cfg.Listen)
	})

	t.Run("missing file yields defaults", func(t *testing.T) {
		t.Setenv("LEAGUES", "")
		cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
		require.NoError(t, err)
		require.Equal(t, "docs", cfg.DocsDir)
		require.Equal(t, "auto", cfg.Season)
		require.Empty(t, cfg.Leagues)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("docs_dir: from_file\nleagues:\n  - id: \"999\"\n"), 0o600))

		t.Setenv("SLEEPER_DOCS_DIR", "from_env")
		t.Setenv("LEAGUES", "123, 456")
		t.Setenv("SLEEPER_SEASON", "2024")

		cfg, err := Load(path)
		require.NoError(t, err)

		require.Equal(t, "from_env", cfg.DocsDir)
		require.Equal(t, "2024", cfg.Season)
		require.Equal(t, []string{"123", "456"}, cfg.LeagueIDs())
	})
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")
	cfg := &Config{
		DocsDir: "docs",
		Season:  "2025",
		Leagues: []League{{ID: "42", Label: "Main", Keeper: true}},
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.DocsDir, loaded.DocsDir)
	require.Equal(t, cfg.Leagues, loaded.Leagues)
}
