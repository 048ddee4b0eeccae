package domain

import "time"

const UnknownBuildingName = "Unknown Building"

// KPIs are the numeric summary metrics of one simulation result. Absent
// metrics stay nil.
type KPIs struct {
	ThermalDiscomfort   *float64 `json:"thermalDiscomfort"`
	EnergyUse           *float64 `json:"energyUse"`
	Cost                *float64 `json:"cost"`
	Emissions           *float64 `json:"emissions"`
	IAQ                 *float64 `json:"iaq"`
	TimeRatio           *float64 `json:"timeRatio"`
	PeakElectricity     *float64 `json:"peakElectricity"`
	PeakGas             *float64 `json:"peakGas,omitempty"`
	PeakDistrictHeating *float64 `json:"peakDistrictHeating,omitempty"`
}

// ResultDocument is the stored form of a result.
type ResultDocument struct {
	UID                string         `json:"uid"`
	Deleted            bool           `json:"deleted"`
	DateRun            time.Time      `json:"dateRun"`
	BoptestVersion     string         `json:"boptestVersion"`
	IsShared           bool           `json:"isShared"`
	Tags               []string       `json:"tags"`
	ControlStep        string         `json:"controlStep"`
	Scenario           map[string]any `json:"scenario"`
	ForecastParameters map[string]any `json:"forecastParameters"`
	AccountID          int64          `json:"accountId"`
	AccountName        string         `json:"accountName"`
	BuildingTypeUID    string         `json:"buildingTypeUid"`
	BuildingTypeName   string         `json:"buildingTypeName"`
	KPIs
}

type BuildingType struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

type AccountSummary struct {
	DisplayName string `json:"displayName"`
}

// Result is what the API returns.
type Result struct {
	ID                 int64          `json:"id"`
	UID                string         `json:"uid"`
	DateRun            time.Time      `json:"dateRun"`
	BoptestVersion     string         `json:"boptestVersion"`
	IsShared           bool           `json:"isShared"`
	Tags               []string       `json:"tags"`
	ControlStep        string         `json:"controlStep"`
	Scenario           map[string]any `json:"scenario"`
	ForecastParameters map[string]any `json:"forecastParameters"`
	Account            AccountSummary `json:"account"`
	BuildingType       BuildingType   `json:"buildingType"`
	KPIs
}

// NewResult projects a stored result document into its API shape.
func NewResult(doc *Document[ResultDocument]) *Result {
	data := doc.Data
	uid := data.BuildingTypeUID
	if uid == "" {
		uid = "unknown-building"
	}
	name := data.BuildingTypeName
	if name == "" {
		name = data.BuildingTypeUID
	}
	if name == "" {
		name = UnknownBuildingName
	}

	tags := data.Tags
	if tags == nil {
		tags = []string{}
	}

	return &Result{
		ID:                 doc.NumericID,
		UID:                data.UID,
		DateRun:            data.DateRun,
		BoptestVersion:     data.BoptestVersion,
		IsShared:           data.IsShared,
		Tags:               tags,
		ControlStep:        data.ControlStep,
		Scenario:           data.Scenario,
		ForecastParameters: data.ForecastParameters,
		Account:            AccountSummary{DisplayName: data.AccountName},
		BuildingType:       BuildingType{UID: uid, Name: name},
		KPIs:               data.KPIs,
	}
}

type PageInfo struct {
	HasNext    bool   `json:"hasNext"`
	NextCursor *int64 `json:"nextCursor"`
}

type ResultsPage struct {
	Results  []*Result `json:"results"`
	PageInfo PageInfo  `json:"pageInfo"`
}

type KPIRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// SignatureDetails holds KPI spreads among results sharing one scenario.
type SignatureDetails struct {
	NumResults          int      `json:"numResults"`
	ThermalDiscomfort   KPIRange `json:"thermalDiscomfort"`
	EnergyUse           KPIRange `json:"energyUse"`
	Cost                KPIRange `json:"cost"`
	Emissions           KPIRange `json:"emissions"`
	IAQ                 KPIRange `json:"iaq"`
	TimeRatio           KPIRange `json:"timeRatio"`
	PeakElectricity     KPIRange `json:"peakElectricity"`
	PeakGas             KPIRange `json:"peakGas"`
	PeakDistrictHeating KPIRange `json:"peakDistrictHeating"`
}
