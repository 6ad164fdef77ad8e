// Package manifest builds the per-file inventory published alongside each
// stable league snapshot.
package manifest

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"github.com/fantasyops/sleeperagent/internal/snapshot"
)

// FileName is the name of the manifest artifact inside a stable snapshot.
const FileName = "manifest.json"

// stateFileName is the primary state file whose embedded generated_at
// timestamp the manifest prefers over wall-clock time.
const stateFileName = "state.json"

// coreFiles are the well-known dataset files flagged is_core in the
// inventory.
var coreFiles = map[string]bool{
	"state.json":        true,
	"teams.json":        true,
	"schedule.json":     true,
	"transactions.json": true,
	"players_min.json":  true,
}

// lineupsPrefix marks the weekly lineup exports, all of which are core.
const lineupsPrefix = "lineups/"

// File is one entry in the manifest inventory.
type File struct {
	Path   string `json:"path"`
	Bytes  int64  `json:"bytes"`
	SHA256 string `json:"sha256"`
	MTime  string `json:"mtime"`
	IsCore bool   `json:"is_core"`
}

// Manifest is the full inventory of a stable league snapshot.
type Manifest struct {
	LeagueID    string `json:"league_id"`
	GeneratedAt string `json:"generated_at"`
	FileCount   int    `json:"file_count"`
	Files       []File `json:"files"`
}

// Builder walks stable snapshots and produces manifests.
type Builder struct {
	fs     afero.Fs
	logger zerolog.Logger
	now    func() time.Time
}

// NewBuilder creates a Builder operating on the given filesystem.
func NewBuilder(fsys afero.Fs, logger zerolog.Logger) *Builder {
	return &Builder{
		fs:     fsys,
		logger: logger.With().Str("component", "manifest").Logger(),
		now:    time.Now,
	}
}

// Build walks stableRoot and returns its inventory. File order follows the
// sorted tree listing, so repeated builds over identical content produce
// identical inventories.
func (b *Builder) Build(stableRoot, leagueID string) (*Manifest, error) {
	paths, err := snapshot.ListFiles(b.fs, stableRoot)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", stableRoot, err)
	}

	files := make([]File, 0, len(paths))
	for _, rel := range paths {
		full := path.Join(stableRoot, rel)
		info, err := b.fs.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", full, err)
		}
		hash, err := snapshot.HashFile(b.fs, full)
		if err != nil {
			return nil, fmt.Errorf("hash %s: %w", full, err)
		}
		files = append(files, File{
			Path:   rel,
			Bytes:  info.Size(),
			SHA256: hash,
			MTime:  snapshot.FormatTime(info.ModTime()),
			IsCore: IsCore(rel),
		})
	}

	return &Manifest{
		LeagueID:    leagueID,
		GeneratedAt: b.generatedAt(stableRoot),
		FileCount:   len(files),
		Files:       files,
	}, nil
}

// Write builds the manifest for stableRoot and writes it into the snapshot
// as manifest.json.
func (b *Builder) Write(stableRoot, leagueID string) error {
	m, err := b.Build(stableRoot, leagueID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := afero.WriteFile(b.fs, path.Join(stableRoot, FileName), append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// IsCore reports whether rel is one of the well-known dataset files or lies
// under the lineups subdirectory.
func IsCore(rel string) bool {
	return coreFiles[rel] || strings.HasPrefix(rel, lineupsPrefix)
}

// generatedAt prefers the generated_at timestamp embedded in the snapshot's
// state.json, falling back to wall-clock time when the file is missing or
// unparsable. It never fails, only degrades.
func (b *Builder) generatedAt(stableRoot string) string {
	fallback := snapshot.FormatTime(b.now())

	data, err := afero.ReadFile(b.fs, path.Join(stableRoot, stateFileName))
	if err != nil {
		return fallback
	}

	var state struct {
		GeneratedAt string `json:"generated_at"`
	}
	if err := json.Unmarshal(data, &state); err != nil {
		b.logger.Debug().Err(err).Str("root", stableRoot).Msg("state.json unparsable, using wall clock")
		return fallback
	}
	if state.GeneratedAt == "" {
		return fallback
	}
	return state.GeneratedAt
}
