package spectro

import (
	"errors"
	"fmt"
)

// ErrBoxOutOfBounds reports a bounding box that exceeds spectrogram bounds.
var ErrBoxOutOfBounds = errors.New("bounding box exceeds spectrogram bounds")

// ExtractSegments crops each bounding box out of the spectrogram. The result
// is index-aligned with the table and each segment is an independent copy, so
// a segment's lifetime is not tied to the spectrogram it came from. An empty
// table yields an empty result.
func ExtractSegments(spec Spectrogram, table BoxTable) ([][][]float64, error) {
	segments := make([][][]float64, len(table))
	for i, box := range table {
		if box.XMin < 0 || box.YMin < 0 || box.XMax > spec.Width() || box.YMax > spec.Height() {
			return nil, fmt.Errorf("%w: box %d (%d,%d)-(%d,%d) in %dx%d spectrogram",
				ErrBoxOutOfBounds, i, box.XMin, box.YMin, box.XMax, box.YMax, spec.Width(), spec.Height())
		}
		segments[i] = spec.Region(box.YMin, box.YMax, box.XMin, box.XMax)
	}
	return segments, nil
}
