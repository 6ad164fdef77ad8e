package export

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fantasyops/sleeperagent/internal/sleeper"
	"github.com/fantasyops/sleeperagent/internal/snapshot"
)

// State is the aggregated league summary written as state.json; it is the
// primary state file of a snapshot and carries the generated_at timestamp
// the manifest prefers.
type State struct {
	GeneratedAt string          `json:"generated_at"`
	Season      int             `json:"season"`
	League      StateLeague     `json:"league"`
	Teams       map[string]Team `json:"teams"`
	Schedule    []ScheduleEntry `json:"schedule"`
}

// StateLeague describes the league itself.
type StateLeague struct {
	LeagueID string        `json:"league_id"`
	Name     string        `json:"name"`
	Status   string        `json:"status"`
	Settings StateSettings `json:"settings"`
}

// StateSettings carries the league settings relevant to analysis.
type StateSettings struct {
	ScoringSettings json.RawMessage `json:"scoring_settings"`
	RosterPositions json.RawMessage `json:"roster_positions"`
	PlayoffTeams    int             `json:"playoff_teams"`
}

// Owner identifies the human behind a roster.
type Owner struct {
	DisplayName string `json:"display_name"`
	Username    string `json:"username"`
	TeamName    string `json:"team_name"`
}

// Record is a team's season win/loss/tie record.
type Record struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
	Ties   int `json:"ties"`
}

// Waiver is a team's waiver state.
type Waiver struct {
	Position   int `json:"position"`
	BudgetUsed int `json:"budget_used"`
}

// PlayerRef is a humanized reference to one player.
type PlayerRef struct {
	PlayerID     string `json:"player_id"`
	Name         string `json:"name"`
	Position     string `json:"position,omitempty"`
	Team         string `json:"team,omitempty"`
	InjuryStatus string `json:"injury_status,omitempty"`
}

// Team is one roster's summary, keyed by roster id in State.Teams.
type Team struct {
	RosterID      int         `json:"roster_id"`
	OwnerID       string      `json:"owner_id"`
	Owner         Owner       `json:"owner"`
	Record        Record      `json:"record"`
	PointsFor     float64     `json:"points_for"`
	PointsAgainst float64     `json:"points_against"`
	Waiver        Waiver      `json:"waiver"`
	Starters      []PlayerRef `json:"starters"`
	Bench         []PlayerRef `json:"bench"`
	Keepers       []PlayerRef `json:"keepers"`
}

// ScheduleEntry is one roster's side of one week. Opponent is nil for
// unpaired entries (median weeks, doubleheaders).
type ScheduleEntry struct {
	Week             int     `json:"week"`
	RosterID         int     `json:"roster_id"`
	OpponentRosterID *int    `json:"opponent_roster_id"`
	Points           float64 `json:"points"`
	Result           string  `json:"result,omitempty"` // "W", "L", or "T"
}

// PlayerMin is the trimmed players-catalog entry kept in players_min.json.
type PlayerMin struct {
	PlayerID         string   `json:"player_id"`
	FullName         string   `json:"full_name"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Position         string   `json:"position"`
	Team             string   `json:"team"`
	Status           string   `json:"status"`
	InjuryStatus     string   `json:"injury_status"`
	Age              int      `json:"age"`
	DepthChartOrder  int      `json:"depth_chart_order"`
	FantasyPositions []string `json:"fantasy_positions"`
}

// BuildState assembles the aggregated league summary from the fetched
// bundle pieces.
func BuildState(
	league *sleeper.League,
	users []sleeper.User,
	rosters []sleeper.Roster,
	matchupsByWeek map[int][]sleeper.Matchup,
	picks []sleeper.DraftPick,
	players map[string]PlayerMin,
	season int,
	now time.Time,
) *State {
	userIdx := make(map[string]sleeper.User, len(users))
	for _, u := range users {
		userIdx[u.UserID] = u
	}

	keepersByRoster := make(map[int][]string)
	for _, p := range picks {
		if p.IsKeeper && p.PlayerID != "" {
			keepersByRoster[p.RosterID] = append(keepersByRoster[p.RosterID], p.PlayerID)
		}
	}

	humanize := func(pid string) PlayerRef {
		meta, ok := players[pid]
		if !ok {
			return PlayerRef{PlayerID: pid, Name: "ID:" + pid}
		}
		name := meta.FullName
		if name == "" {
			name = "ID:" + pid
		}
		return PlayerRef{
			PlayerID:     pid,
			Name:         name,
			Position:     meta.Position,
			Team:         meta.Team,
			InjuryStatus: meta.InjuryStatus,
		}
	}

	teams := make(map[string]Team, len(rosters))
	for _, r := range rosters {
		u := userIdx[r.OwnerID]

		starterSet := make(map[string]bool, len(r.Starters))
		starters := make([]PlayerRef, 0, len(r.Starters))
		for _, pid := range r.Starters {
			if pid == "" {
				continue
			}
			starterSet[pid] = true
			starters = append(starters, humanize(pid))
		}

		bench := []PlayerRef{}
		for _, pid := range r.Players {
			if pid == "" || starterSet[pid] {
				continue
			}
			bench = append(bench, humanize(pid))
		}

		keepers := []PlayerRef{}
		for _, pid := range keepersByRoster[r.RosterID] {
			keepers = append(keepers, humanize(pid))
		}

		teams[strconv.Itoa(r.RosterID)] = Team{
			RosterID: r.RosterID,
			OwnerID:  r.OwnerID,
			Owner: Owner{
				DisplayName: u.DisplayName,
				Username:    u.Username,
				TeamName:    u.TeamName(),
			},
			Record: Record{
				Wins:   r.Settings.Wins,
				Losses: r.Settings.Losses,
				Ties:   r.Settings.Ties,
			},
			PointsFor:     r.Settings.PointsFor(),
			PointsAgainst: r.Settings.PointsAgainst(),
			Waiver: Waiver{
				Position:   r.Settings.WaiverPosition,
				BudgetUsed: r.Settings.WaiverBudgetUsed,
			},
			Starters: starters,
			Bench:    bench,
			Keepers:  keepers,
		}
	}

	return &State{
		GeneratedAt: snapshot.FormatTime(now),
		Season:      season,
		League: StateLeague{
			LeagueID: league.LeagueID,
			Name:     league.Name,
			Status:   league.Status,
			Settings: StateSettings{
				ScoringSettings: league.ScoringSettings,
				RosterPositions: league.RosterPositions,
				PlayoffTeams:    league.Settings.PlayoffTeams,
			},
		},
		Teams:    teams,
		Schedule: buildSchedule(matchupsByWeek),
	}
}

// buildSchedule pairs each week's matchups by matchup id and records one
// entry per roster with its result. Unpaired sides (median scoring,
// doubleheaders) are recorded without an opponent or result.
func buildSchedule(matchupsByWeek map[int][]sleeper.Matchup) []ScheduleEntry {
	weeks := make([]int, 0, len(matchupsByWeek))
	for w := range matchupsByWeek {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)

	schedule := []ScheduleEntry{}
	for _, week := range weeks {
		byMatchup := map[int][]sleeper.Matchup{}
		for _, m := range matchupsByWeek[week] {
			byMatchup[m.MatchupID] = append(byMatchup[m.MatchupID], m)
		}

		ids := make([]int, 0, len(byMatchup))
		for id := range byMatchup {
			ids = append(ids, id)
		}
		sort.Ints(ids)

		for _, id := range ids {
			pair := byMatchup[id]
			if len(pair) != 2 {
				for _, side := range pair {
					schedule = append(schedule, ScheduleEntry{
						Week:     week,
						RosterID: side.RosterID,
						Points:   side.Points,
					})
				}
				continue
			}
			a, b := pair[0], pair[1]
			schedule = append(schedule,
				ScheduleEntry{
					Week:             week,
					RosterID:         a.RosterID,
					OpponentRosterID: &b.RosterID,
					Points:           a.Points,
					Result:           resultOf(a.Points, b.Points),
				},
				ScheduleEntry{
					Week:             week,
					RosterID:         b.RosterID,
					OpponentRosterID: &a.RosterID,
					Points:           b.Points,
					Result:           resultOf(b.Points, a.Points),
				},
			)
		}
	}

	sort.SliceStable(schedule, func(i, j int) bool {
		if schedule[i].Week != schedule[j].Week {
			return schedule[i].Week < schedule[j].Week
		}
		return schedule[i].RosterID < schedule[j].RosterID
	})

	return schedule
}

func resultOf(own, opp float64) string {
	switch {
	case own > opp:
		return "W"
	case own < opp:
		return "L"
	default:
		return "T"
	}
}

// collectUsedPlayerIDs gathers every player id referenced by rosters,
// matchups, or draft picks, so the full catalog can be trimmed to just
// the players this league touches.
func collectUsedPlayerIDs(
	rosters []sleeper.Roster,
	matchupsByWeek map[int][]sleeper.Matchup,
	picks []sleeper.DraftPick,
) map[string]bool {
	used := map[string]bool{}
	add := func(ids []string) {
		for _, id := range ids {
			if id != "" {
				used[id] = true
			}
		}
	}

	for _, r := range rosters {
		add(r.Players)
		add(r.Starters)
	}
	for _, ms := range matchupsByWeek {
		for _, m := range ms {
			add(m.Players)
			add(m.Starters)
		}
	}
	for _, p := range picks {
		if p.PlayerID != "" {
			used[p.PlayerID] = true
		}
	}
	return used
}

// trimPlayers reduces the full catalog to the used ids. Team defenses are
// keyed by team abbreviation in the catalog, so alphabetic ids fall back
// to their uppercase form.
func trimPlayers(catalog map[string]sleeper.Player, used map[string]bool) map[string]PlayerMin {
	out := make(map[string]PlayerMin, len(used))
	for pid := range used {
		p, ok := catalog[pid]
		if !ok && isAlpha(pid) {
			p, ok = catalog[strings.ToUpper(pid)]
		}
		if !ok {
			continue
		}
		fullName := p.FullName
		if fullName == "" {
			fullName = p.FirstName
		}
		out[pid] = PlayerMin{
			PlayerID:         pid,
			FullName:         fullName,
			FirstName:        p.FirstName,
			LastName:         p.LastName,
			Position:         p.Position,
			Team:             p.Team,
			Status:           p.Status,
			InjuryStatus:     p.InjuryStatus,
			Age:              p.Age,
			DepthChartOrder:  p.DepthChartOrder,
			FantasyPositions: p.FantasyPos,
		}
	}
	return out
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}
