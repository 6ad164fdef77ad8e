// Package export pulls a league's full data bundle from the Sleeper API
// and materializes it as a per-run snapshot directory ready for the
// publish pipeline.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/fantasyops/sleeperagent/internal/sleeper"
	"github.com/fantasyops/sleeperagent/internal/snapshot"
)

// fallbackWeek caps the auto-detected week range when the NFL state has no
// usable current week.
const fallbackWeek = 17

// API is the slice of the Sleeper client the exporter consumes.
type API interface {
	League(ctx context.Context, leagueID string) (json.RawMessage, error)
	Users(ctx context.Context, leagueID string) (json.RawMessage, error)
	Rosters(ctx context.Context, leagueID string) (json.RawMessage, error)
	Matchups(ctx context.Context, leagueID string, week int) (json.RawMessage, error)
	Transactions(ctx context.Context, leagueID string, week int) (json.RawMessage, error)
	Drafts(ctx context.Context, leagueID string) (json.RawMessage, error)
	DraftPicks(ctx context.Context, draftID string) (json.RawMessage, error)
	Players(ctx context.Context) (json.RawMessage, error)
	NFLState(ctx context.Context) (json.RawMessage, error)
}

// Options controls one export run.
type Options struct {
	// Season overrides the league's season. Zero means "use the league's".
	Season int
	// Weeks to pull. Empty means 1..current NFL week.
	Weeks []int
	// IncludePlayers pulls and trims the full players catalog.
	IncludePlayers bool
	// Zip archives the run directory next to it when done.
	Zip bool
}

// Meta summarizes a completed export run; it is written into the run
// directory as export_meta.json.
type Meta struct {
	RunID              string `json:"run_id"`
	LeagueID           string `json:"league_id"`
	Season             int    `json:"season"`
	Weeks              []int  `json:"weeks"`
	PlayersUsed        int    `json:"players_used"`
	PlayersFullCatalog int    `json:"players_full_catalog"`
	OutDir             string `json:"out_dir"`
	GeneratedAt        string `json:"generated_at"`
}

// Exporter writes league run snapshots.
type Exporter struct {
	fs     afero.Fs
	api    API
	logger zerolog.Logger
	now    func() time.Time
}

// NewExporter creates an Exporter over the given filesystem and API client.
func NewExporter(fsys afero.Fs, api API, logger zerolog.Logger) *Exporter {
	return &Exporter{
		fs:     fsys,
		api:    api,
		logger: logger.With().Str("component", "exporter").Logger(),
		now:    time.Now,
	}
}

// Export pulls the league bundle into <root>/league_<id>_<season|auto> and
// returns the run metadata. Run directories are inputs to the publisher;
// the exporter never touches the stable league_<id> tree.
func (e *Exporter) Export(ctx context.Context, root, leagueID string, opts Options) (*Meta, error) {
	seasonLabel := "auto"
	if opts.Season > 0 {
		seasonLabel = strconv.Itoa(opts.Season)
	}
	outDir := path.Join(root, fmt.Sprintf("league_%s_%s", leagueID, seasonLabel))
	if err := e.fs.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create run directory: %w", err)
	}

	log := e.logger.With().Str("league_id", leagueID).Str("out_dir", outDir).Logger()
	log.Info().Msg("starting export")

	leagueRaw, err := e.api.League(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch league: %w", err)
	}
	if err := e.writeJSONRaw(outDir, "league.json", leagueRaw); err != nil {
		return nil, err
	}
	var league sleeper.League
	if err := json.Unmarshal(leagueRaw, &league); err != nil {
		return nil, fmt.Errorf("decode league: %w", err)
	}

	stateRaw, err := e.api.NFLState(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch nfl state: %w", err)
	}
	if err := e.writeJSONRaw(outDir, "nfl_state.json", stateRaw); err != nil {
		return nil, err
	}
	var nflState sleeper.NFLState
	if err := json.Unmarshal(stateRaw, &nflState); err != nil {
		return nil, fmt.Errorf("decode nfl state: %w", err)
	}

	season := opts.Season
	if season == 0 {
		if s, err := strconv.Atoi(league.Season); err == nil {
			season = s
		} else {
			season = e.now().Year()
		}
	}

	usersRaw, err := e.api.Users(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch users: %w", err)
	}
	if err := e.writeJSONRaw(outDir, "users.json", usersRaw); err != nil {
		return nil, err
	}
	var users []sleeper.User
	if err := json.Unmarshal(usersRaw, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	rostersRaw, err := e.api.Rosters(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch rosters: %w", err)
	}
	if err := e.writeJSONRaw(outDir, "rosters.json", rostersRaw); err != nil {
		return nil, err
	}
	var rosters []sleeper.Roster
	if err := json.Unmarshal(rostersRaw, &rosters); err != nil {
		return nil, fmt.Errorf("decode rosters: %w", err)
	}

	picks, err := e.exportDrafts(ctx, outDir, leagueID)
	if err != nil {
		return nil, err
	}

	weeks := opts.Weeks
	if len(weeks) == 0 {
		current := nflState.Week
		if current <= 0 {
			current = fallbackWeek
		}
		for w := 1; w <= current; w++ {
			weeks = append(weeks, w)
		}
	}

	matchupsByWeek, err := e.exportWeeks(ctx, outDir, leagueID, weeks)
	if err != nil {
		return nil, err
	}

	usedIDs := collectUsedPlayerIDs(rosters, matchupsByWeek, picks)

	playersMin := map[string]PlayerMin{}
	fullCatalog := 0
	if opts.IncludePlayers {
		playersRaw, err := e.api.Players(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetch players: %w", err)
		}
		var catalog map[string]sleeper.Player
		if err := json.Unmarshal(playersRaw, &catalog); err != nil {
			return nil, fmt.Errorf("decode players: %w", err)
		}
		fullCatalog = len(catalog)
		playersMin = trimPlayers(catalog, usedIDs)
		if err := e.writeJSON(outDir, "players_min.json", playersMin); err != nil {
			return nil, err
		}
	}

	state := BuildState(&league, users, rosters, matchupsByWeek, picks, playersMin, season, e.now())
	if err := e.writeJSON(outDir, "state.json", state); err != nil {
		return nil, err
	}
	if err := e.writeJSON(outDir, "teams.json", state.Teams); err != nil {
		return nil, err
	}
	if err := e.writeJSON(outDir, "schedule.json", state.Schedule); err != nil {
		return nil, err
	}

	if err := WriteCSVs(e.fs, outDir, state); err != nil {
		return nil, err
	}

	meta := &Meta{
		RunID:              uuid.NewString(),
		LeagueID:           leagueID,
		Season:             season,
		Weeks:              weeks,
		PlayersUsed:        len(playersMin),
		PlayersFullCatalog: fullCatalog,
		OutDir:             outDir,
		GeneratedAt:        snapshot.FormatTime(e.now()),
	}
	if err := e.writeJSON(outDir, "export_meta.json", meta); err != nil {
		return nil, err
	}

	if opts.Zip {
		zipPath := outDir + ".zip"
		if err := ZipDir(e.fs, outDir, zipPath); err != nil {
			return nil, fmt.Errorf("zip run directory: %w", err)
		}
		log.Info().Str("zip", zipPath).Msg("run directory archived")
	}

	log.Info().
		Str("run_id", meta.RunID).
		Int("season", season).
		Ints("weeks", weeks).
		Int("players_used", meta.PlayersUsed).
		Msg("export complete")

	return meta, nil
}

// exportDrafts writes drafts.json and the merged draft_picks.json, and
// returns the typed picks for summary building.
func (e *Exporter) exportDrafts(ctx context.Context, outDir, leagueID string) ([]sleeper.DraftPick, error) {
	draftsRaw, err := e.api.Drafts(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("fetch drafts: %w", err)
	}
	if err := e.writeJSONRaw(outDir, "drafts.json", draftsRaw); err != nil {
		return nil, err
	}

	var drafts []sleeper.Draft
	if err := json.Unmarshal(draftsRaw, &drafts); err != nil {
		return nil, fmt.Errorf("decode drafts: %w", err)
	}

	var allPicksRaw []json.RawMessage
	var allPicks []sleeper.DraftPick
	for _, d := range drafts {
		if d.DraftID == "" {
			continue
		}
		picksRaw, err := e.api.DraftPicks(ctx, d.DraftID)
		if err != nil {
			return nil, fmt.Errorf("fetch picks for draft %s: %w", d.DraftID, err)
		}
		var rawList []json.RawMessage
		if err := json.Unmarshal(picksRaw, &rawList); err != nil {
			return nil, fmt.Errorf("decode picks for draft %s: %w", d.DraftID, err)
		}
		allPicksRaw = append(allPicksRaw, rawList...)

		var picks []sleeper.DraftPick
		if err := json.Unmarshal(picksRaw, &picks); err != nil {
			return nil, fmt.Errorf("decode picks for draft %s: %w", d.DraftID, err)
		}
		allPicks = append(allPicks, picks...)
	}

	if len(allPicksRaw) > 0 {
		if err := e.writeJSON(outDir, "draft_picks.json", allPicksRaw); err != nil {
			return nil, err
		}
	}

	return allPicks, nil
}

// exportWeeks writes lineups/week_<n>.json per week and the merged
// transactions.json, and returns the typed matchups by week.
func (e *Exporter) exportWeeks(ctx context.Context, outDir, leagueID string, weeks []int) (map[int][]sleeper.Matchup, error) {
	if err := e.fs.MkdirAll(path.Join(outDir, "lineups"), 0o755); err != nil {
		return nil, fmt.Errorf("create lineups directory: %w", err)
	}

	matchupsByWeek := make(map[int][]sleeper.Matchup, len(weeks))
	txnsByWeek := make(map[string]json.RawMessage, len(weeks))
	for _, w := range weeks {
		matchupsRaw, err := e.api.Matchups(ctx, leagueID, w)
		if err != nil {
			return nil, fmt.Errorf("fetch matchups week %d: %w", w, err)
		}
		if err := e.writeJSONRaw(outDir, fmt.Sprintf("lineups/week_%d.json", w), matchupsRaw); err != nil {
			return nil, err
		}
		var matchups []sleeper.Matchup
		if err := json.Unmarshal(matchupsRaw, &matchups); err != nil {
			return nil, fmt.Errorf("decode matchups week %d: %w", w, err)
		}
		matchupsByWeek[w] = matchups

		txnsRaw, err := e.api.Transactions(ctx, leagueID, w)
		if err != nil {
			return nil, fmt.Errorf("fetch transactions week %d: %w", w, err)
		}
		txnsByWeek[strconv.Itoa(w)] = txnsRaw
	}

	if err := e.writeJSON(outDir, "transactions.json", txnsByWeek); err != nil {
		return nil, err
	}

	return matchupsByWeek, nil
}

// writeJSON marshals v as indented JSON into dir/name.
func (e *Exporter) writeJSON(dir, name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}
	return e.writeJSONRaw(dir, name, data)
}

// writeJSONRaw writes already-serialized JSON into dir/name with a
// trailing newline.
func (e *Exporter) writeJSONRaw(dir, name string, data []byte) error {
	out := make([]byte, 0, len(data)+1)
	out = append(out, data...)
	if len(out) == 0 || out[len(out)-1] != '\n' {
		out = append(out, '\n')
	}
	target := path.Join(dir, name)
	if err := afero.WriteFile(e.fs, target, out, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", target, err)
	}
	return nil
}
