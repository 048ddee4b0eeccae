package resultsview

import "github.com/ougirez/boptest/internal/domain"

// FilterChange is what a filter menu emits when the selection changes.
type FilterChange struct {
	BuildingTypeName string
	Filters          FilterValues
}

// BuildFilterRequest translates a filter selection into the server-side
// filter. The building type uid is resolved through the facets by name.
func BuildFilterRequest(change FilterChange, facets []*domain.ResultFacet) domain.ResultFilter {
	var req domain.ResultFilter

	if change.BuildingTypeName != "" {
		for _, facet := range facets {
			if facet != nil && facet.BuildingTypeName == change.BuildingTypeName {
				req.BuildingTypeUID = facet.BuildingTypeUID
				break
			}
		}
		req.BuildingTypeName = change.BuildingTypeName
	}

	for key, value := range change.Filters.Scenario {
		if value == "" {
			continue
		}
		if req.Scenario == nil {
			req.Scenario = make(map[string]string)
		}
		req.Scenario[key] = value
	}

	if len(change.Filters.Tags) > 0 {
		req.Tags = append([]string(nil), change.Filters.Tags...)
	}
	req.BoptestVersion = change.Filters.BoptestVersion

	req.CostMin, req.CostMax = change.Filters.Cost.Min, change.Filters.Cost.Max
	req.EnergyMin, req.EnergyMax = change.Filters.Energy.Min, change.Filters.Energy.Max
	req.ThermalDiscomfortMin, req.ThermalDiscomfortMax = change.Filters.ThermalDiscomfort.Min, change.Filters.ThermalDiscomfort.Max
	req.AQDiscomfortMin, req.AQDiscomfortMax = change.Filters.AQDiscomfort.Min, change.Filters.AQDiscomfort.Max
	return req
}
