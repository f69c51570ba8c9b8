package stats

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"bird-detection/spectro"
)

// StatsWriter persists one label's complete statistics. The write must be
// atomic per label: both first-order and second-order results land together or
// not at all, and rewriting a label overwrites the previous record.
type StatsWriter interface {
	WriteFileStats(ctx context.Context, label string, row []float64, matches map[string]MatchStats) error
}

// Runner fans the per-file statistics computation out across a bounded worker
// pool. Tasks share only read-only state and the per-label persistence layer,
// so no coordination is needed beyond the pool limit.
type Runner struct {
	Source     SpectrogramSource
	PoolSource SpectrogramSource
	Writer     StatsWriter
	Pool       *TemplatePool
	NumBands   int
	Matcher    MatcherConfig
	Workers    int
	Logger     *slog.Logger

	progress atomic.Int64
}

// RunStats computes and persists the full statistics record for one label:
// the first-order row plus cross-file match statistics against every other
// label (or the template pool when one is configured).
func (r *Runner) RunStats(ctx context.Context, label string, labels []string) error {
	_, spec, row, err := FileStats(ctx, r.Source, label, r.NumBands)
	if err != nil {
		return fmt.Errorf("first-order stats for %s: %w", label, err)
	}

	smoothed := spectro.ApplyGaussianFilter(spec, r.Matcher.GaussianSigma)

	candidates := SelectCandidates(r.Pool, r.Source, r.PoolSource, label, labels)
	matches, err := FileFileStats(ctx, smoothed, candidates, r.Matcher)
	if err != nil {
		return fmt.Errorf("cross-file stats for %s: %w", label, err)
	}

	if err := r.Writer.WriteFileStats(ctx, label, row, matches); err != nil {
		return fmt.Errorf("write stats for %s: %w", label, err)
	}
	return nil
}

// RunAll runs RunStats once per label on a worker pool sized by Workers.
// A failing label aborts the run; recomputing is safe because writes are
// idempotent per label.
func (r *Runner) RunAll(ctx context.Context, labels []string) error {
	r.progress.Store(0)
	total := len(labels)

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Workers)

	for _, label := range labels {
		label := label
		group.Go(func() error {
			if err := r.RunStats(ctx, label, labels); err != nil {
				return err
			}
			done := r.progress.Add(1)
			if r.Logger != nil {
				r.Logger.Info("file statistics written",
					slog.String("label", label),
					slog.Int64("done", done),
					slog.Int("total", total))
			}
			return nil
		})
	}
	return group.Wait()
}

// Progress reports how many labels have been fully computed and persisted in
// the current RunAll invocation.
func (r *Runner) Progress() int64 {
	return r.progress.Load()
}
