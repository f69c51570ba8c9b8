package stats

import (
	"context"
	"fmt"
	"math"
)

// StatsRecord is one label's persisted statistics read back from storage.
type StatsRecord struct {
	Label   string
	Row     []float64
	Matches map[string]MatchStats
}

// StatsReader streams persisted statistics records for a label set. The
// callback is invoked once per stored record; labels with no record are
// simply absent from the stream.
type StatsReader interface {
	ReadStats(ctx context.Context, labels []string, fn func(StatsRecord) error) error
}

// BuildXY assembles the design matrix and target vector for one species from
// persisted statistics. The template/candidate set is the pool's label list
// when a pool is configured, otherwise the positively-labeled files. Missing
// records and non-finite values become zeros so the matrix is always dense
// and finite.
func BuildXY(ctx context.Context, reader StatsReader, pool *TemplatePool, files []LabeledFile, numBands int) ([][]float64, []int, error) {
	labels := make([]string, len(files))
	y := make([]int, len(files))
	for i, f := range files {
		labels[i] = f.Label
		y[i] = f.Target
	}

	var candidates []string
	if pool != nil {
		candidates = pool.Labels()
	} else {
		for _, f := range files {
			if f.Target == 1 {
				candidates = append(candidates, f.Label)
			}
		}
	}

	records := make(map[string]StatsRecord, len(files))
	err := reader.ReadStats(ctx, labels, func(rec StatsRecord) error {
		records[rec.Label] = rec
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("read persisted stats: %w", err)
	}

	firstOrderLen := FirstOrderRowLength(numBands)

	// Each candidate contributes a fixed-width block of 3 values per
	// template. Widths come from the first record that matched against it.
	segCounts := make(map[string]int, len(candidates))
	for _, cand := range candidates {
		for _, label := range labels {
			rec, ok := records[label]
			if !ok {
				continue
			}
			if ms, ok := rec.Matches[cand]; ok {
				segCounts[cand] = len(ms)
				break
			}
		}
	}

	width := firstOrderLen
	for _, cand := range candidates {
		width += 3 * segCounts[cand]
	}

	X := make([][]float64, len(files))
	for i, label := range labels {
		row := make([]float64, 0, width)

		rec, ok := records[label]
		if !ok {
			X[i] = make([]float64, width)
			continue
		}

		if len(rec.Row) != firstOrderLen {
			return nil, nil, fmt.Errorf("stats row for %s has length %d, want %d", label, len(rec.Row), firstOrderLen)
		}
		row = append(row, rec.Row...)

		for _, cand := range candidates {
			count := segCounts[cand]
			ms, ok := rec.Matches[cand]
			if !ok {
				row = append(row, make([]float64, 3*count)...)
				continue
			}
			if len(ms) != count {
				return nil, nil, fmt.Errorf("match stats of %s against %s have %d rows, want %d", label, cand, len(ms), count)
			}
			for _, m := range ms {
				row = append(row, m[0], m[1], m[2])
			}
		}

		sanitize(row)
		X[i] = row
	}
	return X, y, nil
}

// sanitize replaces NaN and Inf in place with zero.
func sanitize(row []float64) {
	for i, v := range row {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			row[i] = 0
		}
	}
}
