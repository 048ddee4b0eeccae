package resultsview

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ougirez/boptest/internal/domain"
)

type scenarioLabel struct {
	label    string
	allLabel string
}

var scenarioLabels = map[string]scenarioLabel{
	"timePeriod":                 {"Time Period", "All Time Periods"},
	"electricityPrice":           {"Electricity Price", "All Electricity Prices"},
	"seed":                       {"Uncertainty Seed", "All Uncertainty Seeds"},
	"temperature_uncertainty":    {"Temperature Forecast Uncertainty", "All Temperature Forecast Levels"},
	"temperatureUncertainty":     {"Temperature Forecast Uncertainty", "All Temperature Forecast Levels"},
	"solar_uncertainty":          {"Solar Forecast Uncertainty", "All Solar Forecast Levels"},
	"solarUncertainty":           {"Solar Forecast Uncertainty", "All Solar Forecast Levels"},
	"weatherForecastUncertainty": {"Weather Forecast Uncertainty", "All Weather Forecasts"},
}

var (
	camelBoundary = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	separators    = regexp.MustCompile(`[-_]+`)
)

// ScenarioLabel turns a scenario key such as "electricityPrice" into a display
// label.
func ScenarioLabel(key string) string {
	if key == "" {
		return ""
	}
	if l, ok := scenarioLabels[key]; ok {
		return l.label
	}

	spaced := camelBoundary.ReplaceAllString(key, "$1 $2")
	spaced = separators.ReplaceAllString(spaced, " ")
	words := strings.Fields(spaced)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// ScenarioAllLabel is the "any value" choice of a scenario dropdown.
func ScenarioAllLabel(key string) string {
	if l, ok := scenarioLabels[key]; ok {
		return l.allLabel
	}
	base := ScenarioLabel(key)
	if base == "" {
		return "All"
	}
	if strings.HasSuffix(base, "s") {
		return "All " + base
	}
	return "All " + base + "s"
}

type ScenarioEntry struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// BuildScenarioEntries lists the non-empty scenario values of a result with
// their labels, ordered by label ignoring case.
func BuildScenarioEntries(scenario map[string]any) []ScenarioEntry {
	entries := make([]ScenarioEntry, 0, len(scenario))
	for key, value := range scenario {
		formatted := domain.ValueString(value)
		if formatted == "" {
			continue
		}
		entries = append(entries, ScenarioEntry{Key: key, Label: ScenarioLabel(key), Value: formatted})
	}
	sort.Slice(entries, func(i, j int) bool {
		a, b := strings.ToLower(entries[i].Label), strings.ToLower(entries[j].Label)
		if a != b {
			return a < b
		}
		return entries[i].Key < entries[j].Key
	})
	return entries
}
