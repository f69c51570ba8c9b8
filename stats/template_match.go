package stats

import (
	"context"
	"fmt"
	"math"

	"bird-detection/spectro"
)

// Second-order statistics compare two recordings: every segment of a
// candidate file is slid across a frequency-buffered stripe of the source
// spectrogram and the best normalized-correlation hit is recorded.

// MatchStats holds per-template best-match results against one source
// spectrogram. Each row is [best correlation score, best x offset, best y
// offset in absolute source coordinates]. Rows stay [0,0,0] for templates
// that were not size-eligible.
type MatchStats [][3]float64

// MatcherConfig carries the cross-file matching knobs.
type MatcherConfig struct {
	// FrequencyBuffer is the pixel margin added above and below a template's
	// vertical extent when searching the source, tolerating frequency shift.
	FrequencyBuffer int
	// GaussianSigma smooths candidate spectrograms before extraction.
	GaussianSigma float64
}

// Candidate names one other file whose segments become matching templates.
type Candidate struct {
	Label string
	// Source is where this candidate's spectrogram is read from; pooled
	// candidates may come from an alternate database.
	Source SpectrogramSource
	// Indices restricts which box rows become templates; nil means all.
	Indices []int
}

// SelectCandidates applies the template-pool policy for one source label:
// pooled labels (served from the pool source) when a pool is configured,
// otherwise every label except the source's own.
func SelectCandidates(pool *TemplatePool, defaultSrc, poolSrc SpectrogramSource, sourceLabel string, labels []string) []Candidate {
	if pool != nil {
		if poolSrc == nil {
			poolSrc = defaultSrc
		}
		poolLabels := pool.Labels()
		candidates := make([]Candidate, 0, len(poolLabels))
		for _, label := range poolLabels {
			indices, _ := pool.Indices(label)
			candidates = append(candidates, Candidate{Label: label, Source: poolSrc, Indices: indices})
		}
		return candidates
	}

	candidates := make([]Candidate, 0, len(labels))
	for _, label := range labels {
		if label == sourceLabel {
			continue
		}
		candidates = append(candidates, Candidate{Label: label, Source: defaultSrc})
	}
	return candidates
}

// FileFileStats slides every candidate's segments across the (already
// smoothed) source spectrogram and returns the per-candidate match
// statistics keyed by label.
func FileFileStats(ctx context.Context, source spectro.Spectrogram, candidates []Candidate, cfg MatcherConfig) (map[string]MatchStats, error) {
	matches := make(map[string]MatchStats, len(candidates))
	for _, cand := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, spec, err := cand.Source.Get(ctx, cand.Label)
		if err != nil {
			return nil, fmt.Errorf("get candidate %s: %w", cand.Label, err)
		}

		smoothed := spectro.ApplyGaussianFilter(spec, cfg.GaussianSigma)

		if cand.Indices != nil {
			table, err = table.Select(cand.Indices)
			if err != nil {
				return nil, fmt.Errorf("template pool for %s: %w", cand.Label, err)
			}
		}

		segments, err := spectro.ExtractSegments(smoothed, table)
		if err != nil {
			return nil, fmt.Errorf("extract segments for %s: %w", cand.Label, err)
		}

		matches[cand.Label] = matchSegments(source, table, segments, cfg.FrequencyBuffer)
	}
	return matches, nil
}

// matchSegments runs the eligibility-checked template match for each segment
// of one candidate against the source spectrogram.
func matchSegments(source spectro.Spectrogram, table spectro.BoxTable, segments [][][]float64, buffer int) MatchStats {
	ms := make(MatchStats, len(table))
	for i, box := range table {
		yMinTarget := box.YMin - buffer
		if yMinTarget < 0 {
			yMinTarget = 0
		}
		yMaxTarget := box.YMax + buffer
		if yMaxTarget > source.Height() {
			yMaxTarget = source.Height()
		}

		stripeHeight := yMaxTarget - yMinTarget

		// Size eligibility: an oversized template is silently skipped,
		// leaving the zero row. This is policy, not a failure.
		if stripeHeight <= 0 ||
			stripeHeight > source.Height() ||
			box.Width() <= 0 || box.Height() <= 0 ||
			box.Width() > source.Width() ||
			box.Height() > stripeHeight {
			continue
		}

		stripe := source.Region(yMinTarget, yMaxTarget, 0, source.Width())
		maxVal, maxX, maxY := matchTemplateNCC(stripe, segments[i])
		ms[i] = [3]float64{maxVal, float64(maxX), float64(maxY + yMinTarget)}
	}
	return ms
}

// matchTemplateNCC computes the correlation-coefficient-normalized template
// match (OpenCV's TM_CCOEFF_NORMED) of the template slid over the image and
// returns the maximum score with its (x, y) offset. Both template and window
// are mean-centered; a flat window or flat template scores zero.
func matchTemplateNCC(image, tmpl [][]float64) (maxVal float64, maxX, maxY int) {
	ih, iw := len(image), len(image[0])
	th, tw := len(tmpl), len(tmpl[0])
	area := float64(th * tw)

	// Center the template once.
	var tSum float64
	for _, row := range tmpl {
		for _, v := range row {
			tSum += v
		}
	}
	tMean := tSum / area
	centered := make([][]float64, th)
	var tSS float64
	for y, row := range tmpl {
		centered[y] = make([]float64, tw)
		for x, v := range row {
			d := v - tMean
			centered[y][x] = d
			tSS += d * d
		}
	}

	// Integral images over the source give each window's sum and sum of
	// squares in constant time.
	sum := newIntegral(image, false)
	sumSq := newIntegral(image, true)

	first := true
	for y := 0; y+th <= ih; y++ {
		for x := 0; x+tw <= iw; x++ {
			wSum := sum.window(y, x, th, tw)
			wSS := sumSq.window(y, x, th, tw)
			wVar := wSS - wSum*wSum/area

			var num float64
			for ty := 0; ty < th; ty++ {
				irow := image[y+ty]
				crow := centered[ty]
				for tx := 0; tx < tw; tx++ {
					num += crow[tx] * irow[x+tx]
				}
			}
			// Sum of centered template is zero, so subtracting the window
			// mean from the numerator is a no-op and is omitted.

			denom := math.Sqrt(tSS * wVar)
			var score float64
			if denom > 1e-12 {
				score = num / denom
			}

			if first || score > maxVal {
				maxVal, maxX, maxY = score, x, y
				first = false
			}
		}
	}
	return maxVal, maxX, maxY
}

type integralImage struct {
	table [][]float64
}

func newIntegral(image [][]float64, squared bool) integralImage {
	h, w := len(image), len(image[0])
	table := make([][]float64, h+1)
	table[0] = make([]float64, w+1)
	for y := 0; y < h; y++ {
		table[y+1] = make([]float64, w+1)
		var rowSum float64
		for x := 0; x < w; x++ {
			v := image[y][x]
			if squared {
				v *= v
			}
			rowSum += v
			table[y+1][x+1] = table[y][x+1] + rowSum
		}
	}
	return integralImage{table: table}
}

// window sums the h x w window whose top-left corner is (y, x).
func (ii integralImage) window(y, x, h, w int) float64 {
	t := ii.table
	return t[y+h][x+w] - t[y][x+w] - t[y+h][x] + t[y][x]
}
