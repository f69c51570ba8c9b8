package stats

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"bird-detection/spectro"
)

// First-order statistics describe a single recording: descriptive statistics
// of its raw spectrogram, of K frequency bands of it, and of the geometry of
// its detection boxes, flattened into one fixed-length feature row.

const boxStatsLength = 12

// FirstOrderRowLength returns the invariant feature-row width for K frequency
// bands: four global statistics, four per band, and twelve box-geometry
// statistics.
func FirstOrderRowLength(numBands int) int {
	return 4 + 4*numBands + boxStatsLength
}

// FileStats computes the first-order statistics row for one label. It returns
// the bounding-box table and spectrogram alongside the row so the caller can
// feed them straight into the cross-file matcher without a second read.
func FileStats(ctx context.Context, src SpectrogramSource, label string, numBands int) (spectro.BoxTable, spectro.Spectrogram, []float64, error) {
	if numBands < 1 {
		return nil, spectro.Spectrogram{}, nil, fmt.Errorf("num_frequency_bands must be positive, got %d", numBands)
	}

	table, spec, err := src.Get(ctx, label)
	if err != nil {
		return nil, spectro.Spectrogram{}, nil, fmt.Errorf("get spectrogram for %s: %w", label, err)
	}

	raw := spec.Raw()

	row := make([]float64, 0, FirstOrderRowLength(numBands))
	row = append(row, describeGrid(raw)...)
	for _, band := range splitBands(raw, numBands) {
		row = append(row, describeGrid(band)...)
	}
	row = append(row, boxGeometryStats(table)...)

	return table, spec, row, nil
}

// describeGrid returns min, max, mean and sample variance over every element
// of the grid. An empty grid yields four zeros.
func describeGrid(grid [][]float64) []float64 {
	n := 0
	for _, row := range grid {
		n += len(row)
	}
	if n == 0 {
		return make([]float64, 4)
	}

	flat := make([]float64, 0, n)
	for _, row := range grid {
		flat = append(flat, row...)
	}
	return []float64{
		floats.Min(flat),
		floats.Max(flat),
		stat.Mean(flat, nil),
		stat.Variance(flat, nil),
	}
}

// splitBands partitions the grid's rows into k frequency bands with numpy
// array_split semantics: the first rows%k bands take one extra row, so every
// row lands in exactly one band with no overlap.
func splitBands(grid [][]float64, k int) [][][]float64 {
	n := len(grid)
	base, extra := n/k, n%k

	bands := make([][][]float64, 0, k)
	start := 0
	for i := 0; i < k; i++ {
		size := base
		if i < extra {
			size++
		}
		bands = append(bands, grid[start:start+size])
		start += size
	}
	return bands
}

// boxGeometryStats flattens min, max, mean and sample standard deviation of
// the width, height and y_min columns across all boxes. An empty table emits
// the twelve-zero "no detections" sentinel rather than an error. A single box
// yields NaN standard deviations (n-1 = 0); the feature assembler zeroes
// those later.
func boxGeometryStats(table spectro.BoxTable) []float64 {
	if len(table) == 0 {
		return make([]float64, boxStatsLength)
	}

	widths := make([]float64, len(table))
	heights := make([]float64, len(table))
	yMins := make([]float64, len(table))
	for i, box := range table {
		widths[i] = float64(box.Width())
		heights[i] = float64(box.Height())
		yMins[i] = float64(box.YMin)
	}

	columns := [][]float64{widths, heights, yMins}
	out := make([]float64, 0, boxStatsLength)
	for _, fn := range []func([]float64) float64{
		floats.Min,
		floats.Max,
		func(xs []float64) float64 { return stat.Mean(xs, nil) },
		func(xs []float64) float64 { return math.Sqrt(stat.Variance(xs, nil)) },
	} {
		for _, col := range columns {
			out = append(out, fn(col))
		}
	}
	return out
}
