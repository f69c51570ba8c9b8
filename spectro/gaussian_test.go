package spectro

import (
	"math"
	"testing"
)

func TestGaussianFilterPreservesConstantField(t *testing.T) {
	t.Parallel()

	values := make([][]float64, 10)
	for y := range values {
		values[y] = make([]float64, 12)
		for x := range values[y] {
			values[y][x] = 3.5
		}
	}
	spec, err := NewSpectrogram(values, 1.0)
	if err != nil {
		t.Fatalf("NewSpectrogram returned error: %v", err)
	}

	smoothed := ApplyGaussianFilter(spec, 1.5)
	for y := 0; y < smoothed.Height(); y++ {
		for x := 0; x < smoothed.Width(); x++ {
			if math.Abs(smoothed.At(y, x)-3.5) > 1e-9 {
				t.Fatalf("constant field changed at (%d,%d): %v", x, y, smoothed.At(y, x))
			}
		}
	}
	if smoothed.Normalization() != spec.Normalization() {
		t.Fatalf("normalization factor changed during smoothing")
	}
}

func TestGaussianFilterZeroSigmaIsIdentity(t *testing.T) {
	t.Parallel()

	spec := gridSpectrogram(t, 5, 5)
	smoothed := ApplyGaussianFilter(spec, 0)
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			if smoothed.At(y, x) != spec.At(y, x) {
				t.Fatalf("sigma=0 altered pixel (%d,%d)", x, y)
			}
		}
	}
}

func TestGaussianFilterSpreadsImpulse(t *testing.T) {
	t.Parallel()

	values := make([][]float64, 9)
	for y := range values {
		values[y] = make([]float64, 9)
	}
	values[4][4] = 1.0
	spec, err := NewSpectrogram(values, 1.0)
	if err != nil {
		t.Fatalf("NewSpectrogram returned error: %v", err)
	}

	smoothed := ApplyGaussianFilter(spec, 1.0)

	center := smoothed.At(4, 4)
	if center <= 0 || center >= 1 {
		t.Fatalf("impulse center should be attenuated into (0,1), got %v", center)
	}
	if smoothed.At(4, 3) <= 0 || smoothed.At(3, 4) <= 0 {
		t.Fatalf("impulse energy did not spread to neighbours")
	}

	// Mass is conserved away from borders.
	var total float64
	for y := 0; y < 9; y++ {
		for x := 0; x < 9; x++ {
			total += smoothed.At(y, x)
		}
	}
	if math.Abs(total-1.0) > 1e-9 {
		t.Fatalf("smoothing should conserve total mass, got %v", total)
	}

	// Symmetry about the impulse.
	if math.Abs(smoothed.At(4, 2)-smoothed.At(4, 6)) > 1e-12 {
		t.Fatalf("horizontal response is not symmetric")
	}
	if math.Abs(smoothed.At(2, 4)-smoothed.At(6, 4)) > 1e-12 {
		t.Fatalf("vertical response is not symmetric")
	}
}

func TestReflectIndex(t *testing.T) {
	t.Parallel()

	cases := []struct{ in, n, want int }{
		{-1, 5, 0},
		{-2, 5, 1},
		{0, 5, 0},
		{4, 5, 4},
		{5, 5, 4},
		{6, 5, 3},
		{0, 1, 0},
		{7, 1, 0},
	}
	for _, c := range cases {
		if got := reflectIndex(c.in, c.n); got != c.want {
			t.Fatalf("reflectIndex(%d, %d) = %d, want %d", c.in, c.n, got, c.want)
		}
	}
}
