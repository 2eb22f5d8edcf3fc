package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kittclouds/gmgen/pkg/generator"
)

func (c *cli) generateCmd() *cobra.Command {
	var count, workers int

	cmd := &cobra.Command{
		Use:   "generate [template]",
		Short: "Generate text from a template or the loaded template pool",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			gen, err := c.newGenerator(cmd)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("workers") {
				workers = c.cfg.Workers
			}
			c.logger.Debug("Generating", zap.Int("count", count), zap.Int("workers", workers))

			out, err := generateParallel(cmd.Context(), gen, templateArg(args), count, workers)
			if err != nil {
				return err
			}
			return printLines(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of results")
	cmd.Flags().IntVarP(&workers, "workers", "j", 1, "Parallel generators (overrides workers in config)")
	return cmd
}

func (c *cli) stepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "step [template]",
		Short: "Run a single resolve iteration with cleanup disabled",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gen, err := c.newGenerator(cmd)
			if err != nil {
				return err
			}
			out, err := gen.Step(templateArg(args))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}
}

// generateParallel produces count results. With more than one worker each
// worker runs its own clone of gen and fills every workers-th slot.
func generateParallel(ctx context.Context, gen *generator.Generator, t generator.Template, count, workers int) ([]string, error) {
	if workers <= 1 || count <= 1 {
		return gen.GenerateN(t, count)
	}
	workers = min(workers, count)

	// Each slot is written by exactly one worker.
	out := make([]string, count)
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		engine := gen.Clone()
		g.Go(func() error {
			for i := w; i < count; i += workers {
				if err := gctx.Err(); err != nil {
					return err
				}
				s, err := engine.Generate(t)
				if err != nil {
					return err
				}
				out[i] = s
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func printLines(w io.Writer, lines []string) error {
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}
