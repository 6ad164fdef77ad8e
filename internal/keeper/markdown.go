package keeper

import (
	"fmt"
	"path"
	"strings"

	"github.com/spf13/afero"

	"github.com/fantasyops/sleeperagent/internal/config"
)

// WriteMirror writes a markdown mirror of a JSON artifact: a heading
// naming the source file followed by the pretty-printed JSON as an
// indented code block.
func WriteMirror(fsys afero.Fs, mdPath, jsonName string, pretty []byte) error {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s (mirror)\n\n", jsonName)
	for _, line := range strings.Split(strings.TrimRight(string(pretty), "\n"), "\n") {
		b.WriteString("    ")
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := afero.WriteFile(fsys, mdPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	return nil
}

// writeIndexMarkdown rebuilds index.md with links to every league's
// published artifacts. Links are only emitted for files that exist.
func (s *Service) writeIndexMarkdown(root string, leagues []config.League) error {
	var b strings.Builder
	b.WriteString("# League Hub\n\n")

	for _, lg := range leagues {
		label := lg.Label
		if label == "" {
			label = "League " + lg.ID
		}
		fmt.Fprintf(&b, "## %s\n\n", label)

		links := [][2]string{
			{"League state", "league_state_" + lg.ID + ".json"},
			{"League state (HTML)", "league_state_" + lg.ID + ".html"},
			{"Draft summary", "draft_" + lg.ID + ".md"},
			{"Draft picks", "draft_picks_" + lg.ID + ".json"},
			{"Keeper costs", "keeper_costs_" + lg.ID + ".md"},
			{"Manifest", "league_" + lg.ID + "/manifest.json"},
			{"Change log", "league_" + lg.ID + "/diff.json"},
		}
		wrote := false
		for _, link := range links {
			if ok, _ := afero.Exists(s.fs, path.Join(root, link[1])); ok {
				fmt.Fprintf(&b, "- [%s](%s)\n", link[0], link[1])
				wrote = true
			}
		}
		if !wrote {
			b.WriteString("- _No artifacts published yet._\n")
		}
		b.WriteByte('\n')
	}

	mdPath := path.Join(root, "index.md")
	if err := afero.WriteFile(s.fs, mdPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", mdPath, err)
	}
	return nil
}
