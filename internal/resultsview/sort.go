package resultsview

import (
	"math"
	"sort"
	"strings"
)

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

type Column string

const (
	ColumnID                  Column = "id"
	ColumnUID                 Column = "uid"
	ColumnAccountName         Column = "accountName"
	ColumnBuildingTypeName    Column = "buildingTypeName"
	ColumnDateRun             Column = "dateRun"
	ColumnBoptestVersion      Column = "boptestVersion"
	ColumnControlStep         Column = "controlStep"
	ColumnEnergy              Column = "energy"
	ColumnThermalDiscomfort   Column = "thermalDiscomfort"
	ColumnAQDiscomfort        Column = "aqDiscomfort"
	ColumnCost                Column = "cost"
	ColumnEmissions           Column = "emissions"
	ColumnTimeRatio           Column = "timeRatio"
	ColumnPeakElectricity     Column = "peakElectricity"
	ColumnPeakGas             Column = "peakGas"
	ColumnPeakDistrictHeating Column = "peakDistrictHeating"
)

// Comparator returns a negative number when a sorts before b, a positive one
// when it sorts after and 0 when they are equal.
type Comparator func(a, b Data) int

func (d Data) number(col Column) (float64, bool) {
	switch col {
	case ColumnID:
		return float64(d.ID), true
	case ColumnDateRun:
		return float64(d.DateRun.UnixNano()), true
	case ColumnEnergy:
		return d.Energy, true
	case ColumnThermalDiscomfort:
		return d.ThermalDiscomfort, true
	case ColumnAQDiscomfort:
		return d.AQDiscomfort, true
	case ColumnCost:
		return d.Cost, true
	case ColumnEmissions:
		return d.Emissions, true
	case ColumnTimeRatio:
		return d.TimeRatio, true
	case ColumnPeakElectricity:
		return d.PeakElectricity, true
	case ColumnPeakGas:
		return d.PeakGas, true
	case ColumnPeakDistrictHeating:
		return d.PeakDistrictHeating, true
	}
	return 0, false
}

func (d Data) text(col Column) string {
	switch col {
	case ColumnUID:
		return d.UID
	case ColumnAccountName:
		return d.AccountName
	case ColumnBuildingTypeName:
		return d.BuildingTypeName
	case ColumnBoptestVersion:
		return d.BoptestVersion
	case ColumnControlStep:
		return d.ControlStep
	}
	return ""
}

// ascending compares a and b by col. Rows missing a numeric value sort after
// every row that has one.
func ascending(a, b Data, col Column) int {
	if x, ok := a.number(col); ok {
		y, _ := b.number(col)
		switch xNaN, yNaN := math.IsNaN(x), math.IsNaN(y); {
		case xNaN && yNaN:
			return 0
		case xNaN:
			return 1
		case yNaN:
			return -1
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}
	return strings.Compare(a.text(col), b.text(col))
}

func GetComparator(order Order, orderBy Column) Comparator {
	if order == OrderDesc {
		return func(a, b Data) int {
			if missing(a, orderBy) || missing(b, orderBy) {
				return ascending(a, b, orderBy)
			}
			return -ascending(a, b, orderBy)
		}
	}
	return func(a, b Data) int {
		return ascending(a, b, orderBy)
	}
}

func missing(d Data, col Column) bool {
	v, ok := d.number(col)
	return ok && math.IsNaN(v)
}

// StableSort returns a sorted copy of rows. Rows the comparator considers
// equal keep their original relative order.
func StableSort(rows []Data, cmp Comparator) []Data {
	type indexed struct {
		row   Data
		index int
	}

	stabilized := make([]indexed, len(rows))
	for i, row := range rows {
		stabilized[i] = indexed{row: row, index: i}
	}
	sort.Slice(stabilized, func(i, j int) bool {
		if order := cmp(stabilized[i].row, stabilized[j].row); order != 0 {
			return order < 0
		}
		return stabilized[i].index < stabilized[j].index
	})

	sorted := make([]Data, len(stabilized))
	for i, el := range stabilized {
		sorted[i] = el.row
	}
	return sorted
}
