package keeper

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/fantasyops/sleeperagent/internal/config"
	"github.com/fantasyops/sleeperagent/internal/export"
	"github.com/fantasyops/sleeperagent/internal/sleeper"
)

func testState() *export.State {
	return &export.State{
		GeneratedAt: "2025-09-01T00:00:00Z",
		Season:      2025,
		League:      export.StateLeague{LeagueID: "42", Name: "Test League"},
		Teams: map[string]export.Team{
			"1": {
				RosterID: 1,
				OwnerID:  "u1",
				Owner:    export.Owner{DisplayName: "Alice", TeamName: "Alice's Army"},
				Keepers: []export.PlayerRef{
					{PlayerID: "p1", Name: "First Rounder", Position: "RB", Team: "SF"},
					{PlayerID: "p2", Name: "Mid Rounder", Position: "WR", Team: "KC"},
					{PlayerID: "p9", Name: "Waiver Pickup", Position: "TE", Team: "NYJ"},
				},
			},
		},
	}
}

func testSummary() *Summary {
	return &Summary{
		LeagueID: "42",
		Picks: []SummaryPick{
			{PlayerID: "p1", Round: 1},
			{PlayerID: "p2", Round: 6},
			// Duplicate entry in a later round must not win.
			{PlayerID: "p2", Round: 9},
		},
	}
}

func TestBuildCosts(t *testing.T) {
	lg := config.League{ID: "42", Keeper: true}
	costs := BuildCosts(lg, testState(), testSummary(), "2025-09-02T00:00:00Z")

	require.Equal(t, "42", costs.LeagueID)
	require.Equal(t, "Test League", costs.LeagueName)
	require.Equal(t, 2025, costs.Season)
	require.False(t, costs.Rules.RoundOneKeepable)

	team := costs.Teams["1"]
	require.Equal(t, "Alice", team.OwnerDisplayName)
	require.Len(t, team.Keepers, 3)

	byID := map[string]CostEntry{}
	for _, k := range team.Keepers {
		byID[k.PlayerID] = k
	}

	// Round 1 picks cannot be kept.
	require.False(t, byID["p1"].Keepable)
	require.Equal(t, "round_1_not_keepable", byID["p1"].Reason)
	require.Equal(t, 1, byID["p1"].DraftRound)

	// The earliest round wins for duplicate picks.
	require.True(t, byID["p2"].Keepable)
	require.Equal(t, "ok", byID["p2"].Reason)
	require.Equal(t, 6, byID["p2"].DraftRound)

	// Undrafted players cannot be kept.
	require.False(t, byID["p9"].Keepable)
	require.Equal(t, "not_drafted_this_year", byID["p9"].Reason)
	require.Zero(t, byID["p9"].DraftRound)
}

func TestBuildSummary(t *testing.T) {
	lg := config.League{ID: "42", Label: "Main"}
	league := &sleeper.League{LeagueID: "42", Name: "Test League"}
	draft := &sleeper.Draft{
		DraftID:  "d1",
		Type:     "snake",
		Settings: sleeper.DraftSettings{Rounds: 15, Teams: 10},
	}
	picks := []sleeper.DraftPick{
		{
			PickNo: 1, Round: 1, DraftSlot: 1, RosterID: 1, PlayerID: "p1",
			Metadata: sleeper.PickMetadata{FullName: "Star Player", Position: "RB", Team: "SF"},
		},
		{
			PickNo: 2, Round: 1, DraftSlot: 2, RosterID: 2, PlayerID: "p4", IsKeeper: true,
			Metadata: sleeper.PickMetadata{FirstName: "Kept", LastName: "Guy", Position: "WR"},
		},
	}

	summary := BuildSummary(lg, league, draft, picks, testState(), "2025-09-02T00:00:00Z")

	require.Equal(t, "Test League", summary.LeagueName)
	require.Equal(t, 2025, summary.Season)
	require.Equal(t, "d1", summary.DraftID)
	require.Equal(t, 15, summary.NumRounds)
	require.Equal(t, "2025-09-01T00:00:00Z", summary.SourceGeneratedAt)
	require.Len(t, summary.Picks, 2)

	// Owner info comes from the published state for known rosters.
	require.Equal(t, "Alice", summary.Picks[0].OwnerDisplayName)
	require.Equal(t, "Star Player", summary.Picks[0].PlayerName)
	require.Equal(t, "Kept Guy", summary.Picks[1].PlayerName)
	require.True(t, summary.Picks[1].IsKeeper)
	require.Empty(t, summary.Picks[1].OwnerDisplayName)
}

func TestBuildSummaryWithoutState(t *testing.T) {
	lg := config.League{ID: "42", Label: "Main"}
	summary := BuildSummary(lg, &sleeper.League{}, &sleeper.Draft{}, nil, nil, "x")
	require.Equal(t, "Main", summary.LeagueName)
	require.Zero(t, summary.Season)
	require.Empty(t, summary.SourceGeneratedAt)
}

func TestWriteMirror(t *testing.T) {
	fsys := afero.NewMemMapFs()
	pretty := []byte("{\n  \"a\": 1\n}")

	require.NoError(t, WriteMirror(fsys, "out.md", "draft_42.json", pretty))

	data, err := afero.ReadFile(fsys, "out.md")
	require.NoError(t, err)
	text := string(data)

	require.True(t, strings.HasPrefix(text, "# draft_42.json (mirror)\n\n"))
	// JSON lines are indented as a markdown code block.
	require.Contains(t, text, "    {\n")
	require.Contains(t, text, "      \"a\": 1\n")
}
