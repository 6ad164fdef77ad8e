package keeper

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/fantasyops/sleeperagent/internal/config"
)

type stubAPI struct {
	league string
	drafts string
	draft  string
	picks  string
}

func (s *stubAPI) League(ctx context.Context, leagueID string) (json.RawMessage, error) {
	return json.RawMessage(s.league), nil
}
func (s *stubAPI) Drafts(ctx context.Context, leagueID string) (json.RawMessage, error) {
	return json.RawMessage(s.drafts), nil
}
func (s *stubAPI) Draft(ctx context.Context, draftID string) (json.RawMessage, error) {
	return json.RawMessage(s.draft), nil
}
func (s *stubAPI) DraftPicks(ctx context.Context, draftID string) (json.RawMessage, error) {
	return json.RawMessage(s.picks), nil
}

func TestServiceRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	api := &stubAPI{
		league: `{"league_id":"42","name":"Test League","draft_id":"d1"}`,
		draft:  `{"draft_id":"d1","type":"snake","settings":{"rounds":15,"teams":10}}`,
		picks: `[{"pick_no":1,"round":1,"roster_id":1,"player_id":"p1","metadata":{"full_name":"First Rounder"}},
			{"pick_no":11,"round":2,"roster_id":1,"player_id":"p2","metadata":{"full_name":"Second Rounder"}}]`,
	}

	state := `{"generated_at":"2025-09-01T00:00:00Z","season":2025,
		"league":{"league_id":"42","name":"Test League"},
		"teams":{"1":{"roster_id":1,"owner_id":"u1",
			"owner":{"display_name":"Alice","team_name":"Alice's Army"},
			"keepers":[{"player_id":"p2","name":"Second Rounder","position":"WR"}]}}}`
	require.NoError(t, afero.WriteFile(fsys, "docs/league_state_42.json", []byte(state), 0o644))

	svc := NewService(fsys, api, zerolog.Nop())
	leagues := []config.League{{ID: "42", Label: "Main", Keeper: true}}
	require.NoError(t, svc.Run(context.Background(), "docs", leagues))

	for _, p := range []string{
		"docs/draft_42.json",
		"docs/draft_42.md",
		"docs/draft_42.html",
		"docs/keeper_costs_42.json",
		"docs/keeper_costs_42.md",
		"docs/keeper_costs_42.html",
		"docs/index.md",
	} {
		ok, err := afero.Exists(fsys, p)
		require.NoError(t, err)
		require.True(t, ok, "missing %s", p)
	}

	var costs Costs
	data, err := afero.ReadFile(fsys, "docs/keeper_costs_42.json")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &costs))

	keepers := costs.Teams["1"].Keepers
	require.Len(t, keepers, 1)
	require.True(t, keepers[0].Keepable)
	require.Equal(t, 2, keepers[0].DraftRound)

	index, err := afero.ReadFile(fsys, "docs/index.md")
	require.NoError(t, err)
	require.Contains(t, string(index), "## Main")
	require.Contains(t, string(index), "[Draft summary](draft_42.md)")
	require.Contains(t, string(index), "[League state](league_state_42.json)")
}

func TestServiceRunKeeperLeagueNeedsState(t *testing.T) {
	fsys := afero.NewMemMapFs()
	api := &stubAPI{
		league: `{"league_id":"7","draft_id":"d1"}`,
		draft:  `{"draft_id":"d1"}`,
		picks:  `[]`,
	}

	svc := NewService(fsys, api, zerolog.Nop())
	err := svc.Run(context.Background(), "docs", []config.League{{ID: "7", Keeper: true}})
	require.Error(t, err)

	// The draft summary still lands before the failure.
	ok, _ := afero.Exists(fsys, "docs/draft_7.json")
	require.True(t, ok)
	ok, _ = afero.Exists(fsys, "docs/keeper_costs_7.json")
	require.False(t, ok)
	// index.md is rebuilt regardless.
	ok, _ = afero.Exists(fsys, "docs/index.md")
	require.True(t, ok)
}
