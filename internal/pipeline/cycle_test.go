package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("all stages pass", func(t *testing.T) {
		var order []string
		stages := []Stage{
			{Name: "sync", Run: func(ctx context.Context) error { order = append(order, "sync"); return nil }},
			{Name: "publish", Run: func(ctx context.Context) error { order = append(order, "publish"); return nil }},
		}
		require.NoError(t, Run(context.Background(), logger, stages))
		require.Equal(t, []string{"sync", "publish"}, order)
	})

	t.Run("failing stage does not stop later stages", func(t *testing.T) {
		boom := errors.New("api down")
		var ran []string
		stages := []Stage{
			{Name: "sync", Run: func(ctx context.Context) error { ran = append(ran, "sync"); return boom }},
			{Name: "publish", Run: func(ctx context.Context) error { ran = append(ran, "publish"); return nil }},
			{Name: "index", Run: func(ctx context.Context) error { ran = append(ran, "index"); return nil }},
		}

		err := Run(context.Background(), logger, stages)
		require.ErrorIs(t, err, boom)
		require.ErrorContains(t, err, "sync")
		require.Equal(t, []string{"sync", "publish", "index"}, ran)
	})

	t.Run("first failure wins", func(t *testing.T) {
		first := errors.New("first")
		second := errors.New("second")
		stages := []Stage{
			{Name: "a", Run: func(ctx context.Context) error { return first }},
			{Name: "b", Run: func(ctx context.Context) error { return second }},
		}
		err := Run(context.Background(), logger, stages)
		require.ErrorIs(t, err, first)
		require.NotErrorIs(t, err, second)
	})

	t.Run("cancelled context stops the cycle", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		ran := false
		stages := []Stage{
			{Name: "a", Run: func(ctx context.Context) error { cancel(); return nil }},
			{Name: "b", Run: func(ctx context.Context) error { ran = true; return nil }},
		}
		err := Run(ctx, logger, stages)
		require.ErrorIs(t, err, context.Canceled)
		require.False(t, ran)
	})
}

func TestCycleFunc(t *testing.T) {
	logger := zerolog.Nop()

	// A failing cycle must not stop subsequent scheduled invocations.
	calls := 0
	cb := CycleFunc(context.Background(), logger, func(ctx context.Context) error {
		calls++
		return errors.New("every cycle fails")
	})

	cb()
	cb()
	require.Equal(t, 2, calls)
}
