// Package pipeline sequences the stages of one full export-and-publish
// cycle and contains their failures.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Stage is one named step of a full cycle.
type Stage struct {
	Name string
	Run  func(ctx context.Context) error
}

// Run executes the stages in order. A failing stage is logged and does
// not stop the ones after it, so a partial outage degrades publishing
// rather than halting it. The returned error is the first failure,
// wrapped with its stage name.
func Run(ctx context.Context, logger zerolog.Logger, stages []Stage) error {
	var firstErr error
	for _, stage := range stages {
		if err := ctx.Err(); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			return firstErr
		}
		if err := stage.Run(ctx); err != nil {
			logger.Error().Err(err).Str("stage", stage.Name).Msg("cycle stage failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", stage.Name, err)
			}
		}
	}
	return firstErr
}

// CycleFunc adapts a cycle into a callback suitable for a cron
// scheduler: a failing cycle is logged rather than propagated, so the
// schedule keeps firing.
func CycleFunc(ctx context.Context, logger zerolog.Logger, run func(ctx context.Context) error) func() {
	return func() {
		start := time.Now()
		logger.Info().Msg("cycle starting")
		if err := run(ctx); err != nil {
			logger.Error().Err(err).Dur("elapsed", time.Since(start)).Msg("cycle failed")
			return
		}
		logger.Info().Dur("elapsed", time.Since(start)).Msg("cycle complete")
	}
}
