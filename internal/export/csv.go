package export

import (
	"encoding/csv"
	"fmt"
	"path"
	"sort"
	"strconv"

	"github.com/spf13/afero"
)

// WriteCSVs emits the tidy CSV views of the state summary into dir:
// teams.csv, roster_current.csv, and schedule_weekly.csv.
func WriteCSVs(fsys afero.Fs, dir string, state *State) error {
	if err := writeTeamsCSV(fsys, path.Join(dir, "teams.csv"), state); err != nil {
		return err
	}
	if err := writeRosterCSV(fsys, path.Join(dir, "roster_current.csv"), state); err != nil {
		return err
	}
	return writeScheduleCSV(fsys, path.Join(dir, "schedule_weekly.csv"), state)
}

// sortedRosterIDs returns the state's roster ids in numeric order.
func sortedRosterIDs(state *State) []int {
	ids := make([]int, 0, len(state.Teams))
	for key := range state.Teams {
		if id, err := strconv.Atoi(key); err == nil {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	return ids
}

func writeTeamsCSV(fsys afero.Fs, target string, state *State) error {
	rows := [][]string{{
		"roster_id", "team_name", "owner", "wins", "losses", "ties",
		"points_for", "points_against", "waiver_position", "waiver_budget_used",
	}}

	for _, id := range sortedRosterIDs(state) {
		t := state.Teams[strconv.Itoa(id)]
		owner := t.Owner.DisplayName
		if owner == "" {
			owner = t.Owner.Username
		}
		rows = append(rows, []string{
			strconv.Itoa(id),
			t.Owner.TeamName,
			owner,
			strconv.Itoa(t.Record.Wins),
			strconv.Itoa(t.Record.Losses),
			strconv.Itoa(t.Record.Ties),
			fmt.Sprintf("%.2f", t.PointsFor),
			fmt.Sprintf("%.2f", t.PointsAgainst),
			strconv.Itoa(t.Waiver.Position),
			strconv.Itoa(t.Waiver.BudgetUsed),
		})
	}

	return writeCSV(fsys, target, rows)
}

func writeRosterCSV(fsys afero.Fs, target string, state *State) error {
	rows := [][]string{{
		"roster_id", "slot", "player_id", "name", "position", "team",
		"injury_status", "is_starter",
	}}

	for _, id := range sortedRosterIDs(state) {
		t := state.Teams[strconv.Itoa(id)]
		for slot, p := range t.Starters {
			rows = append(rows, []string{
				strconv.Itoa(id), strconv.Itoa(slot + 1),
				p.PlayerID, p.Name, p.Position, p.Team, p.InjuryStatus, "1",
			})
		}
		for _, p := range t.Bench {
			rows = append(rows, []string{
				strconv.Itoa(id), "",
				p.PlayerID, p.Name, p.Position, p.Team, p.InjuryStatus, "0",
			})
		}
	}

	return writeCSV(fsys, target, rows)
}

func writeScheduleCSV(fsys afero.Fs, target string, state *State) error {
	rows := [][]string{{"week", "roster_id", "opponent_roster_id", "points", "result"}}

	for _, entry := range state.Schedule {
		opponent := ""
		if entry.OpponentRosterID != nil {
			opponent = strconv.Itoa(*entry.OpponentRosterID)
		}
		rows = append(rows, []string{
			strconv.Itoa(entry.Week),
			strconv.Itoa(entry.RosterID),
			opponent,
			fmt.Sprintf("%.2f", entry.Points),
			entry.Result,
		})
	}

	return writeCSV(fsys, target, rows)
}

func writeCSV(fsys afero.Fs, target string, rows [][]string) error {
	f, err := fsys.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", target, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	return nil
}
