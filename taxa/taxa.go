// Package taxa resolves species identifiers between the short codes used as
// label-table columns and common/scientific names. The table is loaded once
// at startup and immutable afterwards; tests rebuild it from fixtures.
package taxa

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

// Species is one row of the lookup table.
type Species struct {
	Code       string
	Common     string
	Scientific string
}

// Service answers species lookups. Construct with Load and pass by reference;
// there is no package-level state.
type Service struct {
	species  []Species
	byCode   map[string]Species
	byCommon map[string]Species
	bySci    map[string]Species
}

// Load reads a species-table CSV with a header row and columns
// code,common_name,scientific_name.
func Load(path string) (*Service, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open species table: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read species table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("species table %s has no data rows", path)
	}

	svc := &Service{
		byCode:   make(map[string]Species, len(records)-1),
		byCommon: make(map[string]Species, len(records)-1),
		bySci:    make(map[string]Species, len(records)-1),
	}
	for i, record := range records[1:] {
		if len(record) < 3 {
			return nil, fmt.Errorf("species table row %d: expected 3 columns, got %d", i+1, len(record))
		}
		sp := Species{
			Code:       strings.TrimSpace(record[0]),
			Common:     strings.TrimSpace(record[1]),
			Scientific: strings.TrimSpace(record[2]),
		}
		if sp.Code == "" {
			return nil, fmt.Errorf("species table row %d: empty code", i+1)
		}
		key := normalize(sp.Code)
		if _, exists := svc.byCode[key]; exists {
			return nil, fmt.Errorf("species table row %d: duplicate code %s", i+1, sp.Code)
		}

		svc.species = append(svc.species, sp)
		svc.byCode[key] = sp
		svc.byCommon[normalize(sp.Common)] = sp
		svc.bySci[normalize(sp.Scientific)] = sp
	}
	return svc, nil
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// List returns every species in table order.
func (s *Service) List() []Species {
	out := make([]Species, len(s.species))
	copy(out, s.species)
	return out
}

// ByCode resolves a species from its short code.
func (s *Service) ByCode(code string) (Species, bool) {
	sp, ok := s.byCode[normalize(code)]
	return sp, ok
}

// CommonToScientific maps a common name to the scientific one.
func (s *Service) CommonToScientific(common string) (string, bool) {
	sp, ok := s.byCommon[normalize(common)]
	if !ok {
		return "", false
	}
	return sp.Scientific, true
}

// ScientificToCommon maps a scientific name to the common one.
func (s *Service) ScientificToCommon(scientific string) (string, bool) {
	sp, ok := s.bySci[normalize(scientific)]
	if !ok {
		return "", false
	}
	return sp.Common, true
}
