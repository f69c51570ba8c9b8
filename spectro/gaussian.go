package spectro

import "math"

// ApplyGaussianFilter returns a smoothed copy of the spectrogram. The kernel
// is a separable Gaussian truncated at 4 sigma with reflected borders, the
// same windowing scipy's ndimage filter uses. A sigma of zero or less returns
// the input unchanged.
func ApplyGaussianFilter(spec Spectrogram, sigma float64) Spectrogram {
	if sigma <= 0 {
		return spec
	}

	kernel := gaussianKernel(sigma)
	radius := len(kernel) / 2
	h, w := spec.Height(), spec.Width()

	// Horizontal pass.
	tmp := make([][]float64, h)
	for y := 0; y < h; y++ {
		row := make([]float64, w)
		for x := 0; x < w; x++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * spec.values[y][reflectIndex(x+k, w)]
			}
			row[x] = acc
		}
		tmp[y] = row
	}

	// Vertical pass.
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
	}
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var acc float64
			for k := -radius; k <= radius; k++ {
				acc += kernel[k+radius] * tmp[reflectIndex(y+k, h)][x]
			}
			out[y][x] = acc
		}
	}

	return Spectrogram{values: out, normalization: spec.normalization}
}

func gaussianKernel(sigma float64) []float64 {
	radius := int(4*sigma + 0.5)
	if radius < 1 {
		radius = 1
	}

	kernel := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// reflectIndex maps an out-of-range index back into [0, n) by reflecting
// about the edges: d c b a | a b c d | d c b a.
func reflectIndex(i, n int) int {
	if n == 1 {
		return 0
	}
	period := 2 * n
	i = ((i % period) + period) % period
	if i >= n {
		i = period - 1 - i
	}
	return i
}
