package site

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestBuildIndex(t *testing.T) {
	fsys := afero.NewMemMapFs()
	logger := zerolog.Nop()

	require.NoError(t, afero.WriteFile(fsys, "docs/league_111/state.json",
		[]byte(`{"generated_at":"2025-09-01T00:00:00Z","league":{"league_id":"111","name":"Dynasty <One>"}}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "docs/league_111/manifest.json", []byte(`{}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "docs/draft_111.json", []byte(`{}`), 0o644))

	// A run directory must not be mistaken for a stable snapshot.
	require.NoError(t, afero.WriteFile(fsys, "docs/league_111_2025/state.json", []byte(`{}`), 0o644))

	// A league with no state.json still gets a placeholder row.
	require.NoError(t, afero.WriteFile(fsys, "docs/league_222/teams.json", []byte(`[]`), 0o644))

	require.NoError(t, BuildIndex(fsys, "docs", logger))

	data, err := afero.ReadFile(fsys, "docs/index.html")
	require.NoError(t, err)
	page := string(data)

	// HTML in league names is escaped.
	require.Contains(t, page, "Dynasty &lt;One&gt;")
	require.Contains(t, page, `<a href="league_111/state.json">state.json</a>`)
	require.Contains(t, page, `<a href="league_111/manifest.json">manifest</a>`)
	require.Contains(t, page, `<a href="draft_111.json">draft_111.json</a>`)
	require.Contains(t, page, "2025-09-01T00:00:00Z")
	require.Contains(t, page, "League 222")
	require.NotContains(t, page, "league_111_2025")

	// Missing files are not linked.
	require.NotContains(t, page, "keeper_costs_111.json")
	require.NotContains(t, page, `league_111/schedule.json`)
}

func TestWriteStateMirror(t *testing.T) {
	fsys := afero.NewMemMapFs()

	t.Run("mirrors and escapes state.json", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fsys, "docs/league_5/state.json",
			[]byte(`{"name":"<script>league</script>"}`), 0o644))

		require.NoError(t, WriteStateMirror(fsys, "docs", "5", "docs/league_5"))

		data, err := afero.ReadFile(fsys, "docs/league_state_5.html")
		require.NoError(t, err)
		page := string(data)
		require.Contains(t, page, "&lt;script&gt;")
		require.NotContains(t, page, "<script>league")
	})

	t.Run("missing state.json is not an error", func(t *testing.T) {
		require.NoError(t, WriteStateMirror(fsys, "docs", "6", "docs/league_6"))
		ok, _ := afero.Exists(fsys, "docs/league_state_6.html")
		require.False(t, ok)
	})
}

func TestRenderMarkdownFile(t *testing.T) {
	fsys := afero.NewMemMapFs()
	md := "# Heading\n\nSome **bold** text.\n"
	require.NoError(t, afero.WriteFile(fsys, "doc.md", []byte(md), 0o644))

	require.NoError(t, RenderMarkdownFile(fsys, "doc.md", "doc.html", "Doc Title"))

	data, err := afero.ReadFile(fsys, "doc.html")
	require.NoError(t, err)
	page := string(data)

	require.Contains(t, page, "<title>Doc Title</title>")
	require.Contains(t, page, "<h1")
	require.Contains(t, page, "Heading")
	require.True(t, strings.Contains(page, "<strong>bold</strong>"))
}

func TestRenderMarkdownFileMissingSource(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.Error(t, RenderMarkdownFile(fsys, "absent.md", "out.html", "x"))
}
