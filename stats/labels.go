package stats

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// LabeledFile pairs one recording with its binary target for a species.
type LabeledFile struct {
	Label  string
	Target int
}

// LabelTable is the training manifest: one row per recording, first column the
// label, one 0/1 column per species. Loaded once and immutable afterwards.
type LabelTable struct {
	labels  []string
	species []string
	targets map[string][]int
}

// LoadLabelTable parses the train-file CSV. The header's first cell names the
// label column; every other header cell is a species.
func LoadLabelTable(path string) (*LabelTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open label table: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read label table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("label table %s has no data rows", path)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("label table %s needs a label column and at least one species column", path)
	}

	table := &LabelTable{
		species: append([]string(nil), header[1:]...),
		targets: make(map[string][]int, len(header)-1),
	}
	for _, sp := range table.species {
		table.targets[sp] = make([]int, 0, len(records)-1)
	}

	for i, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("label table row %d: expected %d columns, got %d", i+1, len(header), len(record))
		}
		table.labels = append(table.labels, record[0])
		for col, sp := range table.species {
			target, err := strconv.Atoi(record[col+1])
			if err != nil {
				return nil, fmt.Errorf("label table row %d: target for %s: %w", i+1, sp, err)
			}
			if target != 0 && target != 1 {
				return nil, fmt.Errorf("label table row %d: target for %s must be 0 or 1, got %d", i+1, sp, target)
			}
			table.targets[sp] = append(table.targets[sp], target)
		}
	}
	return table, nil
}

// Labels returns every recording label in file order.
func (t *LabelTable) Labels() []string {
	out := make([]string, len(t.labels))
	copy(out, t.labels)
	return out
}

// Species returns the species columns in file order.
func (t *LabelTable) Species() []string {
	out := make([]string, len(t.species))
	copy(out, t.species)
	return out
}

// Files returns the label/target pairs for one species, preserving file order.
func (t *LabelTable) Files(species string) ([]LabeledFile, error) {
	targets, ok := t.targets[species]
	if !ok {
		return nil, fmt.Errorf("species %s not in label table", species)
	}
	files := make([]LabeledFile, len(t.labels))
	for i, label := range t.labels {
		files[i] = LabeledFile{Label: label, Target: targets[i]}
	}
	return files, nil
}
