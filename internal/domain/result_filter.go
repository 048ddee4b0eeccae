package domain

import (
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/ougirez/boptest/internal/pkg/constants"
)

const scenarioParamPrefix = "scenario."

// ResultFilter is the server-side filter for result listings. Nil bounds are
// unbounded, empty strings and slices mean "any".
type ResultFilter struct {
	BuildingTypeUID      string
	BuildingTypeName     string
	Tags                 []string
	Scenario             map[string]string
	BoptestVersion       string
	CostMin              *float64
	CostMax              *float64
	EnergyMin            *float64
	EnergyMax            *float64
	ThermalDiscomfortMin *float64
	ThermalDiscomfortMax *float64
	AQDiscomfortMin      *float64
	AQDiscomfortMax      *float64
	EmissionsMin         *float64
	EmissionsMax         *float64
}

func (f *ResultFilter) bounds() []struct {
	key string
	val **float64
} {
	return []struct {
		key string
		val **float64
	}{
		{"costMin", &f.CostMin}, {"costMax", &f.CostMax},
		{"energyMin", &f.EnergyMin}, {"energyMax", &f.EnergyMax},
		{"thermalDiscomfortMin", &f.ThermalDiscomfortMin}, {"thermalDiscomfortMax", &f.ThermalDiscomfortMax},
		{"aqDiscomfortMin", &f.AQDiscomfortMin}, {"aqDiscomfortMax", &f.AQDiscomfortMax},
		{"emissionsMin", &f.EmissionsMin}, {"emissionsMax", &f.EmissionsMax},
	}
}

// Values encodes the filter as query parameters: tags are comma-joined and
// scenario selections use the "scenario.<dimension>" form.
func (f ResultFilter) Values() url.Values {
	params := url.Values{}
	if f.BuildingTypeUID != "" {
		params.Set("buildingTypeUid", f.BuildingTypeUID)
	}
	if f.BuildingTypeName != "" {
		params.Set("buildingTypeName", f.BuildingTypeName)
	}
	if len(f.Tags) > 0 {
		params.Set("tags", strings.Join(f.Tags, ","))
	}
	if f.BoptestVersion != "" {
		params.Set("boptestVersion", f.BoptestVersion)
	}

	keys := make([]string, 0, len(f.Scenario))
	for key := range f.Scenario {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if value := f.Scenario[key]; value != "" {
			params.Set(scenarioParamPrefix+key, value)
		}
	}

	for _, b := range f.bounds() {
		if *b.val != nil {
			params.Set(b.key, strconv.FormatFloat(**b.val, 'f', -1, 64))
		}
	}
	return params
}

// ParseResultFilter is the inverse of Values.
func ParseResultFilter(params url.Values) (ResultFilter, error) {
	f := ResultFilter{
		BuildingTypeUID:  strings.TrimSpace(params.Get("buildingTypeUid")),
		BuildingTypeName: strings.TrimSpace(params.Get("buildingTypeName")),
		BoptestVersion:   strings.TrimSpace(params.Get("boptestVersion")),
	}

	if raw := params.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				f.Tags = append(f.Tags, tag)
			}
		}
	}

	for key, values := range params {
		if !strings.HasPrefix(key, scenarioParamPrefix) || len(values) == 0 || values[0] == "" {
			continue
		}
		if f.Scenario == nil {
			f.Scenario = make(map[string]string)
		}
		f.Scenario[strings.TrimPrefix(key, scenarioParamPrefix)] = values[0]
	}

	for _, b := range f.bounds() {
		raw := params.Get(b.key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return ResultFilter{}, fmt.Errorf("%w: %s=%q is not a number", constants.ErrBadRequest, b.key, raw)
		}
		*b.val = &v
	}

	return f, nil
}
