package spectro

import (
	"errors"
	"fmt"
)

// Errors reported by the value-type constructors.
var (
	ErrEmptySpectrogram  = errors.New("spectrogram has no pixels")
	ErrRaggedSpectrogram = errors.New("spectrogram rows differ in length")
)

// Spectrogram is an immutable 2-D grid of spectral magnitudes, frequency bins
// by time bins, plus the scalar normalization factor that rescales the stored
// values back to the raw magnitude domain. Construct with NewSpectrogram; the
// pixel data is copied on the way in, so callers cannot mutate it afterwards.
type Spectrogram struct {
	values        [][]float64
	normalization float64
}

// NewSpectrogram validates shape and copies the pixel data. The grid must be
// non-empty and rectangular.
func NewSpectrogram(values [][]float64, normalization float64) (Spectrogram, error) {
	if len(values) == 0 || len(values[0]) == 0 {
		return Spectrogram{}, ErrEmptySpectrogram
	}

	width := len(values[0])
	copied := make([][]float64, len(values))
	for y, row := range values {
		if len(row) != width {
			return Spectrogram{}, fmt.Errorf("%w: row %d has %d columns, want %d",
				ErrRaggedSpectrogram, y, len(row), width)
		}
		copied[y] = append([]float64(nil), row...)
	}

	return Spectrogram{values: copied, normalization: normalization}, nil
}

// Height returns the number of frequency bins.
func (s Spectrogram) Height() int {
	return len(s.values)
}

// Width returns the number of time bins.
func (s Spectrogram) Width() int {
	if len(s.values) == 0 {
		return 0
	}
	return len(s.values[0])
}

// At returns the pixel at frequency bin y, time bin x.
func (s Spectrogram) At(y, x int) float64 {
	return s.values[y][x]
}

// Normalization returns the scalar that converts stored values back to the
// raw magnitude domain.
func (s Spectrogram) Normalization() float64 {
	return s.normalization
}

// Raw returns a copy of the spectrogram multiplied by its normalization
// factor.
func (s Spectrogram) Raw() [][]float64 {
	raw := make([][]float64, len(s.values))
	for y, row := range s.values {
		out := make([]float64, len(row))
		for x, v := range row {
			out[x] = v * s.normalization
		}
		raw[y] = out
	}
	return raw
}

// Region copies the half-open pixel window rows [y0, y1), columns [x0, x1).
// Bounds must already be validated by the caller.
func (s Spectrogram) Region(y0, y1, x0, x1 int) [][]float64 {
	region := make([][]float64, y1-y0)
	for y := y0; y < y1; y++ {
		region[y-y0] = append([]float64(nil), s.values[y][x0:x1]...)
	}
	return region
}
