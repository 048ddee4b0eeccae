package resultsview

import (
	"math"

	"github.com/shopspring/decimal"
)

const rangeStep = 50

type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type FilterRanges struct {
	CostRange              Bounds `json:"costRange"`
	ThermalDiscomfortRange Bounds `json:"thermalDiscomfortRange"`
	AQDiscomfortRange      Bounds `json:"aqDiscomfortRange"`
	EnergyRange            Bounds `json:"energyRange"`
}

// ceilToStep rounds v up to the next multiple of rangeStep.
func ceilToStep(v float64) float64 {
	step := decimal.NewFromInt(rangeStep)
	rounded, _ := decimal.NewFromFloat(v).Div(step).Ceil().Mul(step).Float64()
	return rounded
}

func observed(rows []Data, value func(Data) float64) Bounds {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		v := value(row)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return Bounds{}
	}
	return Bounds{Min: lo, Max: ceilToStep(hi)}
}

// GetFilterRanges returns the observed span of each filterable KPI. The
// minimum is exact, the maximum is rounded up to a multiple of 50 and rows
// missing a KPI are ignored for it.
func GetFilterRanges(rows []Data) FilterRanges {
	return FilterRanges{
		CostRange:              observed(rows, func(d Data) float64 { return d.Cost }),
		ThermalDiscomfortRange: observed(rows, func(d Data) float64 { return d.ThermalDiscomfort }),
		AQDiscomfortRange:      observed(rows, func(d Data) float64 { return d.AQDiscomfort }),
		EnergyRange:            observed(rows, func(d Data) float64 { return d.Energy }),
	}
}
