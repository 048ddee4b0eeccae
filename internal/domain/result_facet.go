package domain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// ResultFacet is the union of every scenario value, tag and BOPTEST version
// ever submitted for one building type. Value slices are sorted and unique.
type ResultFacet struct {
	BuildingTypeUID  string              `json:"buildingTypeUid"`
	BuildingTypeName string              `json:"buildingTypeName"`
	Scenario         map[string][]string `json:"scenario"`
	Tags             []string            `json:"tags"`
	Versions         []string            `json:"versions"`
}

// FacetInput is what one newly created result contributes to its facet.
type FacetInput struct {
	BuildingTypeUID  string
	BuildingTypeName string
	Scenario         map[string][]string
	Tags             []string
	Versions         []string
}

// NewFacetInput normalizes loosely typed scenario and tag values: scalars become
// single-element sets, nils are dropped and everything is coerced to strings.
func NewFacetInput(uid, name string, scenario map[string]any, tags []any, version string) FacetInput {
	in := FacetInput{
		BuildingTypeUID:  uid,
		BuildingTypeName: name,
		Scenario:         NormalizeScenario(scenario),
		Tags:             NormalizeStrings(tags),
	}
	if version != "" {
		in.Versions = []string{version}
	}
	return in
}

func NormalizeScenario(scenario map[string]any) map[string][]string {
	out := make(map[string][]string, len(scenario))
	for key, value := range scenario {
		if value == nil {
			continue
		}
		var values []string
		if list, ok := value.([]any); ok {
			values = NormalizeStrings(list)
		} else if list, ok := value.([]string); ok {
			values = UnionStrings(nil, list)
		} else {
			values = []string{ValueString(value)}
		}
		out[key] = values
	}
	return out
}

func NormalizeStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		out = append(out, ValueString(v))
	}
	return UnionStrings(nil, out)
}

// ScenarioValueMatches reports whether a stored scenario value offers the
// selected facet choice. List values match on any of their elements, the way
// NormalizeScenario splits them into choices.
func ScenarioValueMatches(value any, selected string) bool {
	switch list := value.(type) {
	case []any:
		for _, item := range list {
			if item != nil && ValueString(item) == selected {
				return true
			}
		}
		return false
	case []string:
		for _, item := range list {
			if item == selected {
				return true
			}
		}
		return false
	case nil:
		return false
	}
	return ValueString(value) == selected
}

// ValueString coerces a decoded JSON value to its string form.
func ValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case fmt.Stringer:
		return t.String()
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s := ValueString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		raw, err := sonic.ConfigStd.MarshalToString(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return raw
	default:
		return fmt.Sprint(t)
	}
}

// UnionStrings returns the sorted set union of both slices.
func UnionStrings(existing, incoming []string) []string {
	set := make(map[string]struct{}, len(existing)+len(incoming))
	for _, v := range existing {
		set[v] = struct{}{}
	}
	for _, v := range incoming {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func MergeScenario(existing, incoming map[string][]string) map[string][]string {
	merged := make(map[string][]string, len(existing)+len(incoming))
	for key, values := range existing {
		merged[key] = UnionStrings(nil, values)
	}
	for key, values := range incoming {
		merged[key] = UnionStrings(merged[key], values)
	}
	return merged
}

// NewResultFacet seeds a brand-new aggregate from one input.
func NewResultFacet(in FacetInput) *ResultFacet {
	return (&ResultFacet{}).Merge(in)
}

// Merge returns a new facet holding the union of f and in. f is not modified.
func (f *ResultFacet) Merge(in FacetInput) *ResultFacet {
	name := in.BuildingTypeName
	if name == "" {
		name = f.BuildingTypeName
	}
	if name == "" {
		name = in.BuildingTypeUID
	}

	uid := f.BuildingTypeUID
	if uid == "" {
		uid = in.BuildingTypeUID
	}

	return &ResultFacet{
		BuildingTypeUID:  uid,
		BuildingTypeName: name,
		Scenario:         MergeScenario(f.Scenario, in.Scenario),
		Tags:             UnionStrings(f.Tags, in.Tags),
		Versions:         UnionStrings(f.Versions, in.Versions),
	}
}

// Normalize makes a facet read back from storage safe to use: nil maps and
// slices become empty and value sets are sorted and deduplicated.
func (f *ResultFacet) Normalize() *ResultFacet {
	f.Scenario = MergeScenario(f.Scenario, nil)
	f.Tags = UnionStrings(f.Tags, nil)
	f.Versions = UnionStrings(f.Versions, nil)
	return f
}
