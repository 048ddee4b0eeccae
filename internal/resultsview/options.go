package resultsview

import (
	"sort"
	"strings"

	"github.com/ougirez/boptest/internal/domain"
)

func sortedSet(values map[string]struct{}) []string {
	out := make([]string, 0, len(values))
	for v := range values {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CreateTagOptions returns every tag present in rows, sorted and deduplicated.
func CreateTagOptions(rows []Data) []string {
	tags := make(map[string]struct{})
	for _, row := range rows {
		for _, tag := range row.Tags {
			tags[tag] = struct{}{}
		}
	}
	return sortedSet(tags)
}

func CreateVersionOptions(rows []Data) []string {
	versions := make(map[string]struct{})
	for _, row := range rows {
		if row.BoptestVersion != "" {
			versions[row.BoptestVersion] = struct{}{}
		}
	}
	return sortedSet(versions)
}

// BuildingScenarios maps building type display name to the scenario values
// recorded for it. Facets sharing a display name are merged.
func BuildingScenarios(facets []*domain.ResultFacet) map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(facets))
	for _, facet := range facets {
		if facet == nil {
			continue
		}
		name := facet.BuildingTypeName
		if name == "" {
			name = facet.BuildingTypeUID
		}
		out[name] = domain.MergeScenario(out[name], facet.Scenario)
	}
	return out
}

// FacetTagOptions lists the tags recorded for the named building type, or for
// every building type when buildingType is empty. Tags are trimmed and
// deduplicated case-insensitively, keeping the first spelling seen.
func FacetTagOptions(facets []*domain.ResultFacet, buildingType string) []string {
	seen := make(map[string]string)
	for _, facet := range facets {
		if facet == nil || (buildingType != "" && facet.BuildingTypeName != buildingType) {
			continue
		}
		for _, tag := range facet.Tags {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			key := strings.ToLower(tag)
			if _, ok := seen[key]; !ok {
				seen[key] = tag
			}
		}
	}

	out := make([]string, 0, len(seen))
	for _, tag := range seen {
		out = append(out, tag)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i]), strings.ToLower(out[j])
		if a != b {
			return a < b
		}
		return out[i] < out[j]
	})
	return out
}
