// Package site renders the static hub pages for the docs root: the league
// index, HTML mirrors of JSON state, and HTML renditions of markdown
// mirrors.
package site

import (
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/spf13/afero"
)

// WriteStateMirror writes root/league_state_<id>.html rendering the stable
// snapshot's state.json as escaped preformatted text. A snapshot without a
// state.json gets no mirror; that is not an error.
func WriteStateMirror(fsys afero.Fs, root, leagueID, stableDir string) error {
	statePath := path.Join(stableDir, "state.json")
	raw, err := afero.ReadFile(fsys, statePath)
	if err != nil {
		if exists, _ := afero.Exists(fsys, statePath); !exists {
			return nil
		}
		return fmt.Errorf("read %s: %w", statePath, err)
	}

	title := fmt.Sprintf("league_state_%s.json", leagueID)

	var b strings.Builder
	b.WriteString(`<!doctype html><meta charset="utf-8">`)
	b.WriteString(fmt.Sprintf("<title>%s</title>", html.EscapeString(title)))
	b.WriteString(fmt.Sprintf("<h1>%s (mirror)</h1>", html.EscapeString(title)))
	b.WriteString(`<pre style="white-space:pre-wrap;word-break:break-word;">`)
	b.WriteString(html.EscapeString(string(raw)))
	b.WriteString("</pre>")

	outPath := path.Join(root, fmt.Sprintf("league_state_%s.html", leagueID))
	if err := afero.WriteFile(fsys, outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}
