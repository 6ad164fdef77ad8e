// Package publish promotes per-run league exports into the stable docs
// tree, computing diffs and manifests along the way. One league failing
// never stops the rest of the batch.
package publish

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/fantasyops/sleeperagent/internal/manifest"
	"github.com/fantasyops/sleeperagent/internal/site"
	"github.com/fantasyops/sleeperagent/internal/snapshot"
)

// ErrNoRunSnapshot is returned for a league with no per-run export
// directory to promote.
var ErrNoRunSnapshot = errors.New("no run snapshot found")

// ErrNoLeagues is returned when Publish is called with an empty league list.
var ErrNoLeagues = errors.New("no leagues configured")

// DiffFileName is the name of the diff artifact written into both the run
// and the stable snapshot.
const DiffFileName = "diff.json"

// Stage identifies how far a league's publish cycle progressed.
type Stage string

const (
	StagePending    Stage = "pending"
	StageRunLocated Stage = "run_located"
	StageDiffed     Stage = "diffed"
	StagePromoted   Stage = "promoted"
	StageManifested Stage = "manifested"
)

// rootCopies are the well-known files mirrored from a stable snapshot to
// the docs root, keyed by league id in the target name.
var rootCopies = [][2]string{
	{"state.json", "league_state_%s.json"},
	{"draft_picks.json", "draft_picks_%s.json"},
}

// Result reports the outcome of one league's publish cycle. Stage is the
// furthest stage reached; a non-nil Err means the cycle failed while
// advancing past it.
type Result struct {
	LeagueID string
	Stage    Stage
	RunDir   string
	Diff     *snapshot.Result
	Err      error
}

// Failed reports whether the league's publish cycle failed.
func (r Result) Failed() bool { return r.Err != nil }

// Publisher runs the publish cycle over a docs root.
type Publisher struct {
	fs       afero.Fs
	root     string
	differ   *snapshot.Differ
	manifest *manifest.Builder
	logger   zerolog.Logger
}

// New creates a Publisher for the given docs root.
func New(fsys afero.Fs, root string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		fs:       fsys,
		root:     root,
		differ:   snapshot.NewDiffer(fsys, logger),
		manifest: manifest.NewBuilder(fsys, logger),
		logger:   logger.With().Str("component", "publisher").Logger(),
	}
}

// Publish runs the full cycle for each league id in order. Failures are
// contained per league; the returned error is non-nil when the list was
// empty or at least one league failed, and callers should exit non-zero in
// that case.
func (p *Publisher) Publish(ctx context.Context, leagueIDs []string) ([]Result, error) {
	if len(leagueIDs) == 0 {
		return nil, ErrNoLeagues
	}

	results := make([]Result, 0, len(leagueIDs))
	failed := 0
	for _, id := range leagueIDs {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := p.publishOne(id)
		if res.Failed() {
			failed++
			p.logger.Error().
				Err(res.Err).
				Str("league_id", id).
				Str("stage", string(res.Stage)).
				Msg("publish failed")
		} else {
			p.logger.Info().
				Str("league_id", id).
				Str("run_dir", res.RunDir).
				Int("added", len(res.Diff.Files.Added)).
				Int("removed", len(res.Diff.Files.Removed)).
				Int("changed", len(res.Diff.Files.Changed)).
				Int("unchanged", res.Diff.Files.UnchangedCount).
				Msg("published")
		}
		results = append(results, res)
	}

	if failed > 0 {
		return results, fmt.Errorf("%d of %d leagues failed to publish", failed, len(leagueIDs))
	}
	return results, nil
}

// publishOne runs a single league through the state machine:
// pending -> run_located -> diffed -> promoted -> manifested. Once promoted,
// the stable tree is never rolled back; a later manifest failure is
// recoverable by re-running.
func (p *Publisher) publishOne(leagueID string) Result {
	res := Result{LeagueID: leagueID, Stage: StagePending}

	runDir, err := p.newestRunDir(leagueID)
	if err != nil {
		res.Err = err
		return res
	}
	res.RunDir = runDir
	res.Stage = StageRunLocated

	stableDir := path.Join(p.root, "league_"+leagueID)

	// Diff old stable against the candidate run before touching anything,
	// and park the artifact inside the run so it survives a failed promote.
	diff, err := p.differ.Diff(stableDir, runDir)
	if err != nil {
		res.Err = fmt.Errorf("diff: %w", err)
		return res
	}
	if err := diff.WriteFile(p.fs, path.Join(runDir, DiffFileName)); err != nil {
		res.Err = err
		return res
	}
	res.Diff = diff
	res.Stage = StageDiffed

	if err := p.promote(runDir, stableDir); err != nil {
		res.Err = fmt.Errorf("promote: %w", err)
		return res
	}
	res.Stage = StagePromoted

	// The promote copies the run tree wholesale, which already includes
	// diff.json, but re-copy it in case the promote implementation ever
	// becomes a move.
	if err := copyFile(p.fs, path.Join(runDir, DiffFileName), path.Join(stableDir, DiffFileName)); err != nil {
		p.logger.Warn().Err(err).Str("league_id", leagueID).Msg("re-copy of diff.json failed")
	}

	p.refreshRootCopies(leagueID, stableDir)

	if err := site.WriteStateMirror(p.fs, p.root, leagueID, stableDir); err != nil {
		p.logger.Warn().Err(err).Str("league_id", leagueID).Msg("state mirror failed")
	}

	if err := p.manifest.Write(stableDir, leagueID); err != nil {
		res.Err = fmt.Errorf("manifest: %w", err)
		return res
	}
	res.Stage = StageManifested

	return res
}

func (p *Publisher) newestRunDir(leagueID string) (string, error) {
	return NewestRunDir(p.fs, p.root, leagueID)
}

// NewestRunDir returns the most recently modified run directory for the
// league, matching <root>/league_<id>_*.
func NewestRunDir(fsys afero.Fs, root, leagueID string) (string, error) {
	pattern := path.Join(root, "league_"+leagueID+"_*")
	matches, err := afero.Glob(fsys, pattern)
	if err != nil {
		return "", fmt.Errorf("glob %s: %w", pattern, err)
	}

	newest := ""
	var newestMod int64
	for _, m := range matches {
		info, err := fsys.Stat(m)
		if err != nil || !info.IsDir() {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = m
			newestMod = info.ModTime().UnixNano()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("league %s: %w", leagueID, ErrNoRunSnapshot)
	}
	return newest, nil
}

// promote replaces the stable tree with the run tree. Removal and copy are
// the final, shortest-possible critical section: everything else (diffing,
// artifact writes) happens before. No rollback is attempted on failure;
// once removal has started, completing the copy is the only path forward.
func (p *Publisher) promote(runDir, stableDir string) error {
	if err := p.fs.RemoveAll(stableDir); err != nil {
		return fmt.Errorf("remove stale stable tree: %w", err)
	}
	if err := copyTree(p.fs, runDir, stableDir); err != nil {
		return fmt.Errorf("copy run tree: %w", err)
	}
	return nil
}

// refreshRootCopies mirrors well-known files from the new stable snapshot
// to the docs root. A missing source is not an error.
func (p *Publisher) refreshRootCopies(leagueID, stableDir string) {
	for _, rc := range rootCopies {
		src := path.Join(stableDir, rc[0])
		if ok, _ := afero.Exists(p.fs, src); !ok {
			continue
		}
		dst := path.Join(p.root, fmt.Sprintf(rc[1], leagueID))
		if err := copyFile(p.fs, src, dst); err != nil {
			p.logger.Warn().Err(err).Str("file", rc[0]).Str("league_id", leagueID).Msg("root copy failed")
		}
	}
}
