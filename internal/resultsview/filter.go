package resultsview

import (
	"math"

	"github.com/ougirez/boptest/internal/domain"
)

// Range is an inclusive filter bound pair. A nil side is unbounded.
type Range struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

func (r Range) active() bool {
	return r.Min != nil || r.Max != nil
}

// contains fails closed: a missing value never lies inside an active range.
func (r Range) contains(v float64) bool {
	if !r.active() {
		return true
	}
	if math.IsNaN(v) {
		return false
	}
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// FilterValues is the active filter selection of a results table.
type FilterValues struct {
	Scenario          map[string]string `json:"scenario"`
	Tags              []string          `json:"tags"`
	Cost              Range             `json:"cost"`
	Energy            Range             `json:"energy"`
	ThermalDiscomfort Range             `json:"thermalDiscomfort"`
	AQDiscomfort      Range             `json:"aqDiscomfort"`
	BoptestVersion    string            `json:"boptestVersion"`
}

// Matches reports whether row passes every active condition.
func (f FilterValues) Matches(row Data, buildingType string) bool {
	if buildingType != "" && row.BuildingTypeName != buildingType {
		return false
	}

	if !f.Cost.contains(row.Cost) ||
		!f.Energy.contains(row.Energy) ||
		!f.ThermalDiscomfort.contains(row.ThermalDiscomfort) ||
		!f.AQDiscomfort.contains(row.AQDiscomfort) {
		return false
	}

	for key, selected := range f.Scenario {
		if selected == "" {
			continue
		}
		if !domain.ScenarioValueMatches(row.Scenario[key], selected) {
			return false
		}
	}

	if len(f.Tags) > 0 {
		have := make(map[string]struct{}, len(row.Tags))
		for _, tag := range row.Tags {
			have[tag] = struct{}{}
		}
		for _, tag := range f.Tags {
			if _, ok := have[tag]; !ok {
				return false
			}
		}
	}

	if f.BoptestVersion != "" && row.BoptestVersion != f.BoptestVersion {
		return false
	}
	return true
}

// FilterRows returns the rows matching the building type and filters, in
// their original order. rows is not modified.
func FilterRows(rows []Data, buildingType string, filters FilterValues) []Data {
	filtered := make([]Data, 0, len(rows))
	for _, row := range rows {
		if filters.Matches(row, buildingType) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// SetupFilters returns a selection spanning every range with an empty
// selection for each scenario key.
func SetupFilters(ranges FilterRanges, scenarioKeys []string) FilterValues {
	span := func(b Bounds) Range {
		lo, hi := b.Min, b.Max
		return Range{Min: &lo, Max: &hi}
	}

	scenario := make(map[string]string, len(scenarioKeys))
	for _, key := range scenarioKeys {
		scenario[key] = ""
	}
	return FilterValues{
		Scenario:          scenario,
		Tags:              []string{},
		Cost:              span(ranges.CostRange),
		Energy:            span(ranges.EnergyRange),
		ThermalDiscomfort: span(ranges.ThermalDiscomfortRange),
		AQDiscomfort:      span(ranges.AQDiscomfortRange),
	}
}
