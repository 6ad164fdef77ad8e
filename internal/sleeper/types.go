package sleeper

import "encoding/json"

// League is the subset of the league object the summaries need.
type League struct {
	LeagueID        string          `json:"league_id"`
	Name            string          `json:"name"`
	Status          string          `json:"status"`
	Season          string          `json:"season"`
	DraftID         string          `json:"draft_id"`
	ScoringSettings json.RawMessage `json:"scoring_settings"`
	RosterPositions json.RawMessage `json:"roster_positions"`
	Settings        LeagueSettings  `json:"settings"`
}

// LeagueSettings carries the league-level settings used downstream.
type LeagueSettings struct {
	PlayoffTeams int `json:"playoff_teams"`
}

// User is a league member.
type User struct {
	UserID      string       `json:"user_id"`
	Username    string       `json:"username"`
	DisplayName string       `json:"display_name"`
	Metadata    UserMetadata `json:"metadata"`
}

// UserMetadata holds optional per-league user settings.
type UserMetadata struct {
	TeamName string `json:"team_name"`
}

// TeamName returns the user's custom team name, falling back to the
// display name.
func (u User) TeamName() string {
	if u.Metadata.TeamName != "" {
		return u.Metadata.TeamName
	}
	return u.DisplayName
}

// Roster is one team's roster with its season settings.
type Roster struct {
	RosterID int            `json:"roster_id"`
	OwnerID  string         `json:"owner_id"`
	Players  []string       `json:"players"`
	Starters []string       `json:"starters"`
	Settings RosterSettings `json:"settings"`
}

// RosterSettings carries a roster's record and waiver state. Sleeper
// splits fractional points into integer and two-digit decimal fields.
type RosterSettings struct {
	Wins               int `json:"wins"`
	Losses             int `json:"losses"`
	Ties               int `json:"ties"`
	FPts               int `json:"fpts"`
	FPtsDecimal        int `json:"fpts_decimal"`
	FPtsAgainst        int `json:"fpts_against"`
	FPtsAgainstDecimal int `json:"fpts_against_decimal"`
	WaiverPosition     int `json:"waiver_position"`
	WaiverBudgetUsed   int `json:"waiver_budget_used"`
}

// PointsFor returns the roster's points scored as a float.
func (s RosterSettings) PointsFor() float64 {
	return float64(s.FPts) + float64(s.FPtsDecimal)/100.0
}

// PointsAgainst returns the roster's points conceded as a float.
func (s RosterSettings) PointsAgainst() float64 {
	return float64(s.FPtsAgainst) + float64(s.FPtsAgainstDecimal)/100.0
}

// Matchup is one roster's side of a weekly matchup.
type Matchup struct {
	MatchupID int      `json:"matchup_id"`
	RosterID  int      `json:"roster_id"`
	Points    float64  `json:"points"`
	Players   []string `json:"players"`
	Starters  []string `json:"starters"`
}

// Draft is the subset of a draft object used by the draft summary.
type Draft struct {
	DraftID  string        `json:"draft_id"`
	Type     string        `json:"type"`
	Settings DraftSettings `json:"settings"`
}

// DraftSettings holds draft dimensions.
type DraftSettings struct {
	Rounds int `json:"rounds"`
	Teams  int `json:"teams"`
}

// DraftPick is one selection in a draft.
type DraftPick struct {
	PickNo    int          `json:"pick_no"`
	Round     int          `json:"round"`
	DraftSlot int          `json:"draft_slot"`
	RosterID  int          `json:"roster_id"`
	PlayerID  string       `json:"player_id"`
	IsKeeper  bool         `json:"is_keeper"`
	Metadata  PickMetadata `json:"metadata"`
}

// PickMetadata describes the drafted player.
type PickMetadata struct {
	FullName  string `json:"full_name"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Position  string `json:"position"`
	Team      string `json:"team"`
}

// PlayerName returns the best available name for the pick.
func (p DraftPick) PlayerName() string {
	if p.Metadata.FullName != "" {
		return p.Metadata.FullName
	}
	name := p.Metadata.FirstName
	if p.Metadata.LastName != "" {
		if name != "" {
			name += " "
		}
		name += p.Metadata.LastName
	}
	return name
}

// Player is one entry of the full players catalog.
type Player struct {
	PlayerID        string   `json:"player_id"`
	FullName        string   `json:"full_name"`
	FirstName       string   `json:"first_name"`
	LastName        string   `json:"last_name"`
	Position        string   `json:"position"`
	Team            string   `json:"team"`
	Status          string   `json:"status"`
	InjuryStatus    string   `json:"injury_status"`
	Age             int      `json:"age"`
	DepthChartOrder int      `json:"depth_chart_order"`
	FantasyPos      []string `json:"fantasy_positions"`
}

// NFLState is the current NFL season/week state.
type NFLState struct {
	Week       int    `json:"week"`
	Season     string `json:"season"`
	SeasonType string `json:"season_type"`
}
