// Package resultsview turns result records and the user's filter and sort
// selections into the rows a results table renders.
package resultsview

import (
	"math"
	"time"

	"github.com/ougirez/boptest/internal/domain"
)

// Data is one table row. Missing KPIs are NaN.
type Data struct {
	ID               int64
	UID              string
	AccountName      string
	BuildingTypeUID  string
	BuildingTypeName string
	DateRun          time.Time
	BoptestVersion   string
	ControlStep      string
	IsShared         bool

	Energy              float64
	ThermalDiscomfort   float64
	AQDiscomfort        float64
	Cost                float64
	Emissions           float64
	TimeRatio           float64
	PeakElectricity     float64
	PeakGas             float64
	PeakDistrictHeating float64

	Scenario map[string]any
	Tags     []string
}

func metric(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func CreateDataFromResult(result *domain.Result) Data {
	name := result.BuildingType.Name
	if name == "" {
		name = result.BuildingType.UID
	}
	if name == "" {
		name = domain.UnknownBuildingName
	}

	return Data{
		ID:                  result.ID,
		UID:                 result.UID,
		AccountName:         result.Account.DisplayName,
		BuildingTypeUID:     result.BuildingType.UID,
		BuildingTypeName:    name,
		DateRun:             result.DateRun,
		BoptestVersion:      result.BoptestVersion,
		ControlStep:         result.ControlStep,
		IsShared:            result.IsShared,
		Energy:              metric(result.EnergyUse),
		ThermalDiscomfort:   metric(result.ThermalDiscomfort),
		AQDiscomfort:        metric(result.IAQ),
		Cost:                metric(result.Cost),
		Emissions:           metric(result.Emissions),
		TimeRatio:           metric(result.TimeRatio),
		PeakElectricity:     metric(result.PeakElectricity),
		PeakGas:             metric(result.PeakGas),
		PeakDistrictHeating: metric(result.PeakDistrictHeating),
		Scenario:            result.Scenario,
		Tags:                result.Tags,
	}
}

// CreateRows maps results to rows one to one. Nil results are skipped.
func CreateRows(results []*domain.Result) []Data {
	rows := make([]Data, 0, len(results))
	for _, result := range results {
		if result == nil {
			continue
		}
		rows = append(rows, CreateDataFromResult(result))
	}
	return rows
}
