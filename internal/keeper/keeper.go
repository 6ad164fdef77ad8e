// Package keeper builds draft summaries and keeper round costs from the
// current season's draft, publishing them as root-level JSON artifacts
// with markdown and HTML mirrors.
package keeper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/fantasyops/sleeperagent/internal/config"
	"github.com/fantasyops/sleeperagent/internal/export"
	"github.com/fantasyops/sleeperagent/internal/site"
	"github.com/fantasyops/sleeperagent/internal/sleeper"
	"github.com/fantasyops/sleeperagent/internal/snapshot"
)

// ErrNoDraft is returned for a league that has no draft yet.
var ErrNoDraft = errors.New("no drafts found for league")

// ErrMissingState is returned when a keeper league has no published
// league_state file to compute costs against.
var ErrMissingState = errors.New("league state not published yet")

// API is the slice of the Sleeper client the keeper service consumes.
type API interface {
	League(ctx context.Context, leagueID string) (json.RawMessage, error)
	Drafts(ctx context.Context, leagueID string) (json.RawMessage, error)
	Draft(ctx context.Context, draftID string) (json.RawMessage, error)
	DraftPicks(ctx context.Context, draftID string) (json.RawMessage, error)
}

// SummaryPick is one pick of the draft summary.
type SummaryPick struct {
	OverallPick      int    `json:"overall_pick"`
	Round            int    `json:"round"`
	DraftSlot        int    `json:"draft_slot"`
	RosterID         int    `json:"roster_id"`
	OwnerDisplayName string `json:"owner_display_name"`
	OwnerTeamName    string `json:"owner_team_name"`
	PlayerID         string `json:"player_id"`
	PlayerName       string `json:"player_name"`
	Position         string `json:"position"`
	NFLTeam          string `json:"nfl_team"`
	IsKeeper         bool   `json:"is_keeper"`
}

// Summary is the draft_<league_id>.json artifact.
type Summary struct {
	GeneratedAt       string        `json:"generated_at"`
	LeagueID          string        `json:"league_id"`
	LeagueName        string        `json:"league_name"`
	Season            int           `json:"season"`
	DraftID           string        `json:"draft_id"`
	DraftType         string        `json:"draft_type"`
	NumRounds         int           `json:"num_rounds"`
	NumTeams          int           `json:"num_teams"`
	Picks             []SummaryPick `json:"picks"`
	SourceGeneratedAt string        `json:"source_generated_at,omitempty"`
}

// CostEntry is one keeper's round cost.
type CostEntry struct {
	PlayerID   string `json:"player_id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	NFLTeam    string `json:"nfl_team"`
	DraftRound int    `json:"draft_round,omitempty"`
	Keepable   bool   `json:"keepable"`
	Reason     string `json:"reason"`
}

// CostTeam groups one roster's keeper costs.
type CostTeam struct {
	RosterID         int         `json:"roster_id"`
	OwnerID          string      `json:"owner_id"`
	OwnerDisplayName string      `json:"owner_display_name"`
	OwnerTeamName    string      `json:"owner_team_name"`
	Keepers          []CostEntry `json:"keepers"`
}

// CostRules documents the keeper rule set applied.
type CostRules struct {
	KeeperRoundBasedOn string `json:"keeper_round_based_on"`
	RoundOneKeepable   bool   `json:"round_1_keepable"`
	Note               string `json:"note"`
}

// Costs is the keeper_costs_<league_id>.json artifact.
type Costs struct {
	GeneratedAt string              `json:"generated_at"`
	LeagueID    string              `json:"league_id"`
	LeagueName  string              `json:"league_name"`
	Season      int                 `json:"season"`
	Rules       CostRules           `json:"rules"`
	Teams       map[string]CostTeam `json:"teams"`
}

// Service fetches drafts and writes the keeper artifacts into the docs
// root.
type Service struct {
	fs     afero.Fs
	api    API
	logger zerolog.Logger
	now    func() time.Time
}

// NewService creates a keeper Service.
func NewService(fsys afero.Fs, api API, logger zerolog.Logger) *Service {
	return &Service{
		fs:     fsys,
		api:    api,
		logger: logger.With().Str("component", "keeper").Logger(),
		now:    time.Now,
	}
}

// Run processes every configured league in order: draft summary for all,
// keeper costs for keeper leagues, then the markdown hub index. Failures
// are contained per league; the returned error is non-nil if any league
// failed.
func (s *Service) Run(ctx context.Context, root string, leagues []config.League) error {
	failed := 0
	for _, lg := range leagues {
		if err := s.runOne(ctx, root, lg); err != nil {
			failed++
			s.logger.Error().Err(err).Str("league_id", lg.ID).Msg("keeper artifacts failed")
		}
	}

	if err := s.writeIndexMarkdown(root, leagues); err != nil {
		return err
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d leagues failed", failed, len(leagues))
	}
	return nil
}

func (s *Service) runOne(ctx context.Context, root string, lg config.League) error {
	state := s.loadState(root, lg.ID)

	summary, err := s.fetchSummary(ctx, lg, state)
	if err != nil {
		return err
	}

	if err := s.writeArtifact(root, "draft_"+lg.ID, summary); err != nil {
		return err
	}

	if lg.Keeper {
		if state == nil {
			return fmt.Errorf("league %s: %w", lg.ID, ErrMissingState)
		}
		costs := BuildCosts(lg, state, summary, snapshot.FormatTime(s.now()))
		if err := s.writeArtifact(root, "keeper_costs_"+lg.ID, costs); err != nil {
			return err
		}
	}

	return nil
}

// fetchSummary pulls the league, its draft, and the picks, and assembles
// the draft summary.
func (s *Service) fetchSummary(ctx context.Context, lg config.League, state *export.State) (*Summary, error) {
	leagueRaw, err := s.api.League(ctx, lg.ID)
	if err != nil {
		return nil, fmt.Errorf("fetch league: %w", err)
	}
	var league sleeper.League
	if err := json.Unmarshal(leagueRaw, &league); err != nil {
		return nil, fmt.Errorf("decode league: %w", err)
	}

	var draft sleeper.Draft
	if league.DraftID != "" {
		draftRaw, err := s.api.Draft(ctx, league.DraftID)
		if err != nil {
			return nil, fmt.Errorf("fetch draft: %w", err)
		}
		if err := json.Unmarshal(draftRaw, &draft); err != nil {
			return nil, fmt.Errorf("decode draft: %w", err)
		}
	} else {
		draftsRaw, err := s.api.Drafts(ctx, lg.ID)
		if err != nil {
			return nil, fmt.Errorf("fetch drafts: %w", err)
		}
		var drafts []sleeper.Draft
		if err := json.Unmarshal(draftsRaw, &drafts); err != nil {
			return nil, fmt.Errorf("decode drafts: %w", err)
		}
		if len(drafts) == 0 {
			return nil, fmt.Errorf("league %s: %w", lg.ID, ErrNoDraft)
		}
		draft = drafts[0]
	}

	picksRaw, err := s.api.DraftPicks(ctx, draft.DraftID)
	if err != nil {
		return nil, fmt.Errorf("fetch picks: %w", err)
	}
	var picks []sleeper.DraftPick
	if err := json.Unmarshal(picksRaw, &picks); err != nil {
		return nil, fmt.Errorf("decode picks: %w", err)
	}

	return BuildSummary(lg, &league, &draft, picks, state, snapshot.FormatTime(s.now())), nil
}

// BuildSummary assembles the draft summary, enriching picks with owner
// info from the published league state where available.
func BuildSummary(lg config.League, league *sleeper.League, draft *sleeper.Draft, picks []sleeper.DraftPick, state *export.State, generatedAt string) *Summary {
	leagueName := league.Name
	sourceGeneratedAt := ""
	season := 0
	if state != nil {
		if state.League.Name != "" {
			leagueName = state.League.Name
		}
		sourceGeneratedAt = state.GeneratedAt
		season = state.Season
	}
	if leagueName == "" {
		leagueName = lg.Label
	}

	outPicks := make([]SummaryPick, 0, len(picks))
	for _, p := range picks {
		var ownerName, ownerTeam string
		if state != nil {
			if team, ok := state.Teams[fmt.Sprint(p.RosterID)]; ok {
				ownerName = team.Owner.DisplayName
				ownerTeam = team.Owner.TeamName
			}
		}
		outPicks = append(outPicks, SummaryPick{
			OverallPick:      p.PickNo,
			Round:            p.Round,
			DraftSlot:        p.DraftSlot,
			RosterID:         p.RosterID,
			OwnerDisplayName: ownerName,
			OwnerTeamName:    ownerTeam,
			PlayerID:         p.PlayerID,
			PlayerName:       p.PlayerName(),
			Position:         p.Metadata.Position,
			NFLTeam:          p.Metadata.Team,
			IsKeeper:         p.IsKeeper,
		})
	}

	return &Summary{
		GeneratedAt:       generatedAt,
		LeagueID:          lg.ID,
		LeagueName:        leagueName,
		Season:            season,
		DraftID:           draft.DraftID,
		DraftType:         draft.Type,
		NumRounds:         draft.Settings.Rounds,
		NumTeams:          draft.Settings.Teams,
		Picks:             outPicks,
		SourceGeneratedAt: sourceGeneratedAt,
	}
}

// BuildCosts computes keeper round costs. The rule set: a player's keeper
// cost is the round they were drafted this season; trades do not change
// it; round 1 picks and undrafted players cannot be kept.
func BuildCosts(lg config.League, state *export.State, summary *Summary, generatedAt string) *Costs {
	playerToRound := map[string]int{}
	for _, p := range summary.Picks {
		if p.PlayerID == "" || p.Round == 0 {
			continue
		}
		// A player appearing twice keeps the earliest round.
		if existing, ok := playerToRound[p.PlayerID]; !ok || p.Round < existing {
			playerToRound[p.PlayerID] = p.Round
		}
	}

	leagueName := state.League.Name
	if leagueName == "" {
		leagueName = lg.Label
	}

	teams := make(map[string]CostTeam, len(state.Teams))
	for key, team := range state.Teams {
		keepers := make([]CostEntry, 0, len(team.Keepers))
		for _, player := range team.Keepers {
			entry := CostEntry{
				PlayerID: player.PlayerID,
				Name:     player.Name,
				Position: player.Position,
				NFLTeam:  player.Team,
			}
			round, drafted := playerToRound[player.PlayerID]
			switch {
			case !drafted:
				entry.Keepable = false
				entry.Reason = "not_drafted_this_year"
			case round == 1:
				entry.DraftRound = round
				entry.Keepable = false
				entry.Reason = "round_1_not_keepable"
			default:
				entry.DraftRound = round
				entry.Keepable = true
				entry.Reason = "ok"
			}
			keepers = append(keepers, entry)
		}
		sort.Slice(keepers, func(i, j int) bool { return keepers[i].Name < keepers[j].Name })

		teams[key] = CostTeam{
			RosterID:         team.RosterID,
			OwnerID:          team.OwnerID,
			OwnerDisplayName: team.Owner.DisplayName,
			OwnerTeamName:    team.Owner.TeamName,
			Keepers:          keepers,
		}
	}

	return &Costs{
		GeneratedAt: generatedAt,
		LeagueID:    lg.ID,
		LeagueName:  leagueName,
		Season:      state.Season,
		Rules: CostRules{
			KeeperRoundBasedOn: "current season draft round",
			RoundOneKeepable:   false,
			Note:               "If a player was drafted this season in round N, they can be kept next season at round N; trades do not change the round cost.",
		},
		Teams: teams,
	}
}

// loadState reads the published league_state_<id>.json, returning nil if
// it has not been published yet.
func (s *Service) loadState(root, leagueID string) *export.State {
	data, err := afero.ReadFile(s.fs, path.Join(root, "league_state_"+leagueID+".json"))
	if err != nil {
		return nil
	}
	var state export.State
	if err := json.Unmarshal(data, &state); err != nil {
		s.logger.Warn().Err(err).Str("league_id", leagueID).Msg("league state unparsable")
		return nil
	}
	return &state
}

// writeArtifact writes <base>.json, its markdown mirror <base>.md, and an
// HTML rendition <base>.html into the docs root.
func (s *Service) writeArtifact(root, base string, v any) error {
	jsonPath := path.Join(root, base+".json")
	mdPath := path.Join(root, base+".md")
	htmlPath := path.Join(root, base+".html")

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", base, err)
	}
	if err := afero.WriteFile(s.fs, jsonPath, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", jsonPath, err)
	}

	if err := WriteMirror(s.fs, mdPath, base+".json", data); err != nil {
		return err
	}
	return site.RenderMarkdownFile(s.fs, mdPath, htmlPath, base+".json (mirror)")
}
