package spectro

import (
	"errors"
	"fmt"
)

// ErrInvalidBox reports inverted bounding-box coordinates.
var ErrInvalidBox = errors.New("bounding box coordinates are inverted")

// Box is one detection bounding box in spectrogram pixel coordinates. The
// intervals are half-open: x in [XMin, XMax), y in [YMin, YMax).
type Box struct {
	XMin int
	XMax int
	YMin int
	YMax int
}

// NewBox validates the coordinate ordering invariants.
func NewBox(xMin, xMax, yMin, yMax int) (Box, error) {
	if xMin > xMax || yMin > yMax {
		return Box{}, fmt.Errorf("%w: (%d,%d)-(%d,%d)", ErrInvalidBox, xMin, yMin, xMax, yMax)
	}
	return Box{XMin: xMin, XMax: xMax, YMin: yMin, YMax: yMax}, nil
}

// Width returns the box extent along the time axis.
func (b Box) Width() int {
	return b.XMax - b.XMin
}

// Height returns the box extent along the frequency axis.
func (b Box) Height() int {
	return b.YMax - b.YMin
}

// BoxTable is the ordered set of detection boxes for one file. It may be
// empty; a file with no detections is not an error.
type BoxTable []Box

// Select down-selects the table to the given row indices, preserving their
// order. An out-of-range index is an error.
func (t BoxTable) Select(indices []int) (BoxTable, error) {
	selected := make(BoxTable, 0, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(t) {
			return nil, fmt.Errorf("box index %d out of range for table of %d rows", idx, len(t))
		}
		selected = append(selected, t[idx])
	}
	return selected, nil
}
