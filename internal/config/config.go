// Package config provides configuration management for the sleeperagent
// pipeline.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultConfigDir returns the default config directory (~/.sleeperagent).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".sleeperagent"), nil
}

// DefaultConfigPath returns the default config file path
// (~/.sleeperagent/config.yml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yml"), nil
}

// League is one configured Sleeper league.
type League struct {
	ID     string `yaml:"id"`
	Label  string `yaml:"label,omitempty"`
	Keeper bool   `yaml:"keeper,omitempty"`
}

// Config holds the pipeline's configuration.
type Config struct {
	DocsDir        string   `yaml:"docs_dir,omitempty"`
	Season         string   `yaml:"season,omitempty"`
	Weeks          string   `yaml:"weeks,omitempty"`
	Leagues        []League `yaml:"leagues,omitempty"`
	SleeperBaseURL string   `yaml:"sleeper_base_url,omitempty"`
	Schedule       string   `yaml:"schedule,omitempty"`
	Listen         string   `yaml:"listen,omitempty"`
}

// Validate checks that the configuration has required fields for operation.
func (c *Config) Validate() error {
	if c.DocsDir == "" {
		return errors.New("docs_dir is required")
	}
	if len(c.Leagues) == 0 {
		return errors.New("at least one league is required")
	}
	for i, lg := range c.Leagues {
		if lg.ID == "" {
			return fmt.Errorf("leagues[%d]: id is required", i)
		}
	}
	return nil
}

// LeagueIDs returns the configured league IDs in order.
func (c *Config) LeagueIDs() []string {
	ids := make([]string, 0, len(c.Leagues))
	for _, lg := range c.Leagues {
		ids = append(ids, lg.ID)
	}
	return ids
}

// Load reads the configuration from the given path, then applies
// environment overrides. If the file does not exist, defaults plus
// environment are returned.
func Load(path string) (*Config, error) {
	// A .env alongside the working directory seeds the environment; a
	// missing file is fine.
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadDefault loads the configuration from the default path.
func LoadDefault() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// Save writes the configuration to the given path, creating directories
// as needed.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// applyEnv layers environment variables over file values.
//
//	SLEEPER_DOCS_DIR  docs root directory
//	SLEEPER_SEASON    season string or "auto"
//	SLEEPER_WEEKS     week spec, e.g. "1-4,7"
//	LEAGUES           comma-separated league IDs
//	SLEEPER_BASE_URL  API base URL override
func (c *Config) applyEnv() {
	if v := os.Getenv("SLEEPER_DOCS_DIR"); v != "" {
		c.DocsDir = v
	}
	if v := os.Getenv("SLEEPER_SEASON"); v != "" {
		c.Season = v
	}
	if v := os.Getenv("SLEEPER_WEEKS"); v != "" {
		c.Weeks = v
	}
	if v := os.Getenv("SLEEPER_BASE_URL"); v != "" {
		c.SleeperBaseURL = v
	}
	if v := os.Getenv("LEAGUES"); v != "" {
		var leagues []League
		for _, id := range strings.Split(v, ",") {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			leagues = append(leagues, League{ID: id})
		}
		if len(leagues) > 0 {
			c.Leagues = leagues
		}
	}
}

func (c *Config) applyDefaults() {
	if c.DocsDir == "" {
		c.DocsDir = "docs"
	}
	if c.Season == "" {
		c.Season = "auto"
	}
	if c.Listen == "" {
		c.Listen = ":8090"
	}
}

// ParseWeeks expands a week spec like "1-4,7" into a sorted list of
// distinct week numbers. An empty spec yields nil, meaning all weeks to
// date.
func ParseWeeks(spec string) ([]int, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, nil
	}

	seen := map[int]bool{}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("invalid week range %q", part)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("invalid week range %q", part)
			}
			if start < 1 || end < start {
				return nil, fmt.Errorf("invalid week range %q", part)
			}
			for w := start; w <= end; w++ {
				seen[w] = true
			}
			continue
		}
		w, err := strconv.Atoi(part)
		if err != nil || w < 1 {
			return nil, fmt.Errorf("invalid week %q", part)
		}
		seen[w] = true
	}

	weeks := make([]int, 0, len(seen))
	for w := range seen {
		weeks = append(weeks, w)
	}
	sort.Ints(weeks)
	return weeks, nil
}
