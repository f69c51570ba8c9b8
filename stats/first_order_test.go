package stats

import (
	"context"
	"math"
	"testing"

	"bird-detection/spectro"
)

func testSpectrogram(t *testing.T, h, w int, norm float64) spectro.Spectrogram {
	t.Helper()
	values := make([][]float64, h)
	for y := range values {
		values[y] = make([]float64, w)
		for x := range values[y] {
			values[y][x] = math.Sin(float64(y*w+x) * 0.7)
		}
	}
	spec, err := spectro.NewSpectrogram(values, norm)
	if err != nil {
		t.Fatalf("NewSpectrogram returned error: %v", err)
	}
	return spec
}

func fixedSource(t *testing.T, table spectro.BoxTable, spec spectro.Spectrogram) SpectrogramSource {
	t.Helper()
	return GeneratorFunc(func(ctx context.Context, label string) (spectro.BoxTable, spectro.Spectrogram, error) {
		return table, spec, nil
	})
}

func TestFileStatsRowLengthConstant(t *testing.T) {
	t.Parallel()

	spec := testSpectrogram(t, 10, 8, 2.0)
	withBoxes := spectro.BoxTable{
		{XMin: 0, XMax: 3, YMin: 0, YMax: 4},
		{XMin: 2, XMax: 6, YMin: 3, YMax: 8},
	}

	for _, numBands := range []int{1, 2, 3, 7} {
		_, _, rowBoxed, err := FileStats(context.Background(), fixedSource(t, withBoxes, spec), "a", numBands)
		if err != nil {
			t.Fatalf("FileStats with boxes returned error: %v", err)
		}
		_, _, rowEmpty, err := FileStats(context.Background(), fixedSource(t, nil, spec), "b", numBands)
		if err != nil {
			t.Fatalf("FileStats without boxes returned error: %v", err)
		}

		want := FirstOrderRowLength(numBands)
		if len(rowBoxed) != want || len(rowEmpty) != want {
			t.Fatalf("K=%d: row lengths %d and %d, want %d", numBands, len(rowBoxed), len(rowEmpty), want)
		}
	}
}

func TestFileStatsEmptyTableSentinel(t *testing.T) {
	t.Parallel()

	spec := testSpectrogram(t, 6, 6, 1.0)
	_, _, row, err := FileStats(context.Background(), fixedSource(t, nil, spec), "a", 2)
	if err != nil {
		t.Fatalf("FileStats returned error: %v", err)
	}

	sentinel := row[len(row)-boxStatsLength:]
	for i, v := range sentinel {
		if v != 0 {
			t.Fatalf("sentinel element %d is %v, want 0", i, v)
		}
	}
}

func TestFileStatsUsesNormalization(t *testing.T) {
	t.Parallel()

	spec := testSpectrogram(t, 4, 4, 3.0)
	_, _, row, err := FileStats(context.Background(), fixedSource(t, nil, spec), "a", 1)
	if err != nil {
		t.Fatalf("FileStats returned error: %v", err)
	}

	raw := spec.Raw()
	var min, max float64
	min, max = raw[0][0], raw[0][0]
	for _, r := range raw {
		for _, v := range r {
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	if row[0] != min || row[1] != max {
		t.Fatalf("global min/max = %v/%v, want %v/%v", row[0], row[1], min, max)
	}
}

func TestFileStatsRejectsBadBandCount(t *testing.T) {
	t.Parallel()

	spec := testSpectrogram(t, 4, 4, 1.0)
	if _, _, _, err := FileStats(context.Background(), fixedSource(t, nil, spec), "a", 0); err == nil {
		t.Fatalf("expected error for zero bands")
	}
}

func TestSplitBandsCoversEveryRowOnce(t *testing.T) {
	t.Parallel()

	grid := make([][]float64, 11)
	for y := range grid {
		grid[y] = []float64{float64(y)}
	}

	for k := 1; k <= len(grid); k++ {
		bands := splitBands(grid, k)
		if len(bands) != k {
			t.Fatalf("K=%d: got %d bands", k, len(bands))
		}

		var rows int
		prevSize := -1
		for i, band := range bands {
			// Leading bands take the extra rows.
			if prevSize >= 0 && len(band) > prevSize {
				t.Fatalf("K=%d: band %d larger than band %d", k, i, i-1)
			}
			prevSize = len(band)

			for _, row := range band {
				if row[0] != float64(rows) {
					t.Fatalf("K=%d: row order broken at global row %d", k, rows)
				}
				rows++
			}
		}
		if rows != len(grid) {
			t.Fatalf("K=%d: covered %d rows, want %d", k, rows, len(grid))
		}
	}
}

func TestDescribeGridSampleVariance(t *testing.T) {
	t.Parallel()

	got := describeGrid([][]float64{{1, 2}, {3, 4}})
	want := []float64{1, 4, 2.5, 5.0 / 3.0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("describeGrid[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBoxGeometryStatsSingleBoxHasNaNStd(t *testing.T) {
	t.Parallel()

	out := boxGeometryStats(spectro.BoxTable{{XMin: 1, XMax: 4, YMin: 2, YMax: 7}})
	if len(out) != boxStatsLength {
		t.Fatalf("expected %d values, got %d", boxStatsLength, len(out))
	}

	// min == max == mean for a single box.
	if out[0] != 3 || out[3] != 3 || out[6] != 3 {
		t.Fatalf("width stats = %v/%v/%v, want 3", out[0], out[3], out[6])
	}
	if out[2] != 2 || out[5] != 2 || out[8] != 2 {
		t.Fatalf("y_min stats = %v/%v/%v, want 2", out[2], out[5], out[8])
	}
	for i := 9; i < 12; i++ {
		if !math.IsNaN(out[i]) {
			t.Fatalf("std element %d = %v, want NaN for a single box", i, out[i])
		}
	}
}
