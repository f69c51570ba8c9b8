package db

import (
	"math"
	"testing"

	"bird-detection/stats"
)

func TestStatsDocRoundTrip(t *testing.T) {
	t.Parallel()

	row := []float64{1.5, -2.25, 0, math.Pi}
	matches := map[string]stats.MatchStats{
		"other-1": {{0.91, 12, 40}, {0.13, 3, 7}},
		"other-2": {},
	}

	doc := statsDocFrom("rec-7", row, matches)
	record, err := CursorItemToStats(doc)
	if err != nil {
		t.Fatalf("CursorItemToStats returned error: %v", err)
	}

	if record.Label != "rec-7" {
		t.Fatalf("label = %s", record.Label)
	}
	if len(record.Row) != len(row) {
		t.Fatalf("row length %d, want %d", len(record.Row), len(row))
	}
	for i, v := range row {
		if record.Row[i] != v {
			t.Fatalf("row[%d] = %v, want %v", i, record.Row[i], v)
		}
	}

	ms := record.Matches["other-1"]
	if len(ms) != 2 || ms[0] != [3]float64{0.91, 12, 40} || ms[1] != [3]float64{0.13, 3, 7} {
		t.Fatalf("match stats for other-1 = %v", ms)
	}
	if len(record.Matches["other-2"]) != 0 {
		t.Fatalf("empty match stats should survive the round trip")
	}
}

func TestCursorItemToStatsRejectsBadRows(t *testing.T) {
	t.Parallel()

	doc := statsDoc{
		Label:         "rec-1",
		FileStats:     []float64{1},
		FileFileStats: map[string][][]float64{"x": {{1, 2}}},
	}
	if _, err := CursorItemToStats(doc); err == nil {
		t.Fatalf("expected error for malformed match row")
	}
}

func TestDecodeSpectrogramDoc(t *testing.T) {
	t.Parallel()

	doc := spectrogramDoc{
		Label:         "rec-2",
		Boxes:         [][]int{{0, 3, 1, 4}, {2, 5, 0, 2}},
		Values:        [][]float64{{1, 2, 3, 4, 5}, {6, 7, 8, 9, 10}, {0, 0, 0, 0, 0}, {1, 1, 1, 1, 1}},
		Normalization: 2.5,
	}

	table, spec, err := decodeSpectrogramDoc(doc)
	if err != nil {
		t.Fatalf("decodeSpectrogramDoc returned error: %v", err)
	}
	if len(table) != 2 || table[0].Width() != 3 || table[1].YMax != 2 {
		t.Fatalf("decoded table = %v", table)
	}
	if spec.Height() != 4 || spec.Width() != 5 || spec.Normalization() != 2.5 {
		t.Fatalf("decoded spectrogram %dx%d norm %v", spec.Height(), spec.Width(), spec.Normalization())
	}

	doc.Boxes = [][]int{{0, 3, 1}}
	if _, _, err := decodeSpectrogramDoc(doc); err == nil {
		t.Fatalf("expected error for short box row")
	}

	doc.Boxes = [][]int{{3, 0, 1, 4}}
	if _, _, err := decodeSpectrogramDoc(doc); err == nil {
		t.Fatalf("expected error for inverted box")
	}
}
