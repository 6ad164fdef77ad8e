package site

import (
	"encoding/json"
	"fmt"
	"html"
	"path"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// indexLinks lists the well-known files linked from the index, in display
// order, as (filename, label) pairs.
var indexLinks = [][2]string{
	{"state.json", "state.json"},
	{"teams.json", "teams"},
	{"schedule.json", "schedule"},
	{"transactions.json", "transactions"},
	{"players_min.json", "players_min"},
	{"manifest.json", "manifest"},
	{"diff.json", "diff"},
}

// leagueRow is one published league discovered under the docs root.
type leagueRow struct {
	Name        string
	LeagueID    string
	GeneratedAt string
}

// BuildIndex scans root for stable league snapshots and rewrites
// root/index.html with one row per league linking its well-known files.
func BuildIndex(fsys afero.Fs, root string, logger zerolog.Logger) error {
	log := logger.With().Str("component", "site").Logger()

	rows, err := discoverLeagues(fsys, root)
	if err != nil {
		return err
	}

	var b strings.Builder
	b.WriteString(`<!doctype html><meta charset="utf-8"><title>SleeperAgent export</title>` + "\n")
	b.WriteString("<h1>SleeperAgent export</h1>\n")

	for _, row := range rows {
		dir := path.Join(root, "league_"+row.LeagueID)
		hrefBase := "league_" + row.LeagueID + "/"

		var links []string
		for _, link := range indexLinks {
			if ok, _ := afero.Exists(fsys, path.Join(dir, link[0])); ok {
				links = append(links, fmt.Sprintf(`<a href="%s%s">%s</a>`, hrefBase, link[0], link[1]))
			}
		}
		for _, rootFile := range []string{
			"draft_" + row.LeagueID + ".json",
			"keeper_costs_" + row.LeagueID + ".json",
		} {
			if ok, _ := afero.Exists(fsys, path.Join(root, rootFile)); ok {
				links = append(links, fmt.Sprintf(`<a href="%s">%s</a>`, rootFile, rootFile))
			}
		}

		linksHTML := "(no files found)"
		if len(links) > 0 {
			linksHTML = strings.Join(links, " | ")
		}

		genStr := ""
		if row.GeneratedAt != "" {
			genStr = " — generated_at: " + html.EscapeString(row.GeneratedAt)
		}

		b.WriteString(fmt.Sprintf("  <div>• %s (ID %s) — %s%s</div>\n",
			html.EscapeString(row.Name), row.LeagueID, linksHTML, genStr))
	}

	outPath := path.Join(root, "index.html")
	if err := afero.WriteFile(fsys, outPath, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}

	log.Info().Int("leagues", len(rows)).Msg("index rebuilt")
	return nil
}

// discoverLeagues finds stable league_<id> directories under root and reads
// each snapshot's state.json for display metadata. A missing or unparsable
// state.json degrades to placeholder values.
func discoverLeagues(fsys afero.Fs, root string) ([]leagueRow, error) {
	entries, err := afero.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	var rows []leagueRow
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		parts := strings.Split(entry.Name(), "_")
		if len(parts) != 2 || parts[0] != "league" {
			continue
		}
		lid := parts[1]

		row := leagueRow{Name: "League " + lid, LeagueID: lid}
		if data, err := afero.ReadFile(fsys, path.Join(root, entry.Name(), "state.json")); err == nil {
			var state struct {
				GeneratedAt string `json:"generated_at"`
				League      struct {
					LeagueID string `json:"league_id"`
					Name     string `json:"name"`
				} `json:"league"`
			}
			if err := json.Unmarshal(data, &state); err == nil {
				if state.League.Name != "" {
					row.Name = state.League.Name
				}
				row.GeneratedAt = state.GeneratedAt
			}
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].LeagueID < rows[j].LeagueID })
	return rows, nil
}
