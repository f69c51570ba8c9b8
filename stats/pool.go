package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
)

// TemplatePool restricts template matching to a curated set of labels and box
// indices instead of "every other file, every box". Loaded once from CSV and
// immutable afterwards.
type TemplatePool struct {
	labels  []string
	indices map[string][]int
}

// LoadTemplatePool parses a pool CSV with a header row and rows of
// label,templates where templates is a JSON-encoded list of box indices.
func LoadTemplatePool(path string) (*TemplatePool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template pool: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read template pool: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("template pool %s has no data rows", path)
	}

	pool := &TemplatePool{indices: make(map[string][]int, len(records)-1)}
	for i, record := range records[1:] {
		if len(record) < 2 {
			return nil, fmt.Errorf("template pool row %d: expected 2 columns, got %d", i+1, len(record))
		}
		label := record[0]
		if _, exists := pool.indices[label]; exists {
			return nil, fmt.Errorf("template pool row %d: duplicate label %s", i+1, label)
		}

		var indices []int
		if err := json.Unmarshal([]byte(record[1]), &indices); err != nil {
			return nil, fmt.Errorf("template pool row %d: decode templates for %s: %w", i+1, label, err)
		}
		for _, idx := range indices {
			if idx < 0 {
				return nil, fmt.Errorf("template pool row %d: negative box index %d for %s", i+1, idx, label)
			}
		}

		pool.labels = append(pool.labels, label)
		pool.indices[label] = indices
	}
	return pool, nil
}

// Labels returns the pooled labels in file order.
func (p *TemplatePool) Labels() []string {
	out := make([]string, len(p.labels))
	copy(out, p.labels)
	return out
}

// Indices returns the box indices pooled for a label.
func (p *TemplatePool) Indices(label string) ([]int, bool) {
	indices, ok := p.indices[label]
	if !ok {
		return nil, false
	}
	out := make([]int, len(indices))
	copy(out, indices)
	return out, true
}
