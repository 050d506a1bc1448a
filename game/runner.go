package game

import (
	"context"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// RunWorlds runs n independent headless games in parallel. World i uses seed
// opts.Seed+i and writes under <dir>/world_<i> for each output directory set.
// The first error cancels the remaining worlds.
func RunWorlds(ctx context.Context, n int, opts Options) error {
	if n < 1 {
		return fmt.Errorf("need at least one world, got %d", n)
	}

	eg, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		wopts := worldOptions(opts, i, n)
		eg.Go(func() error {
			g, err := NewGameWithOptions(wopts)
			if err != nil {
				return fmt.Errorf("world %d: %w", i, err)
			}
			defer g.Unload()
			if err := g.Run(ctx); err != nil {
				return fmt.Errorf("world %d: %w", i, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

// worldOptions derives the options of world i out of n.
func worldOptions(opts Options, i, n int) Options {
	opts.Seed += int64(i)
	opts.WorldIndex = i
	if n == 1 {
		return opts
	}
	sub := fmt.Sprintf("world_%d", i)
	if opts.OutputDir != "" {
		opts.OutputDir = filepath.Join(opts.OutputDir, sub)
	}
	if opts.SnapshotDir != "" {
		opts.SnapshotDir = filepath.Join(opts.SnapshotDir, sub)
	}
	return opts
}
