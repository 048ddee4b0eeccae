package dto

import (
	"time"

	"github.com/ougirez/boptest/internal/domain"
)

type KPIPayload struct {
	CostTot *float64 `json:"cost_tot" validate:"required"`
	EmisTot *float64 `json:"emis_tot"`
	EnerTot *float64 `json:"ener_tot" validate:"required"`
	IdisTot *float64 `json:"idis_tot"`
	TdisTot *float64 `json:"tdis_tot" validate:"required"`
	TimeRat *float64 `json:"time_rat"`
	PeleTot *float64 `json:"pele_tot"`
	PgasTot *float64 `json:"pgas_tot"`
	PdihTot *float64 `json:"pdih_tot"`
}

type BuildingTypePayload struct {
	UID  string `json:"uid"`
	Name string `json:"name"`
}

// ResultPayload is one result as submitted by a BOPTEST run.
type ResultPayload struct {
	UID                string               `json:"uid" validate:"required,max=128"`
	DateRun            time.Time            `json:"dateRun" validate:"required"`
	BoptestVersion     string               `json:"boptestVersion"`
	IsShared           bool                 `json:"isShared"`
	ControlStep        any                  `json:"controlStep"`
	Tags               []any                `json:"tags" validate:"max=64"`
	KPIs               *KPIPayload          `json:"kpis" validate:"required"`
	Scenario           map[string]any       `json:"scenario"`
	ForecastParameters map[string]any       `json:"forecastParameters"`
	BuildingType       *BuildingTypePayload `json:"buildingType"`
}

type CreateResultsRequest struct {
	Results []*ResultPayload `json:"results" validate:"required,min=1,max=500,dive,required"`
}

type ToggleShareRequest struct {
	Share *bool `json:"share" validate:"required"`
}

// BuildingTypeKey resolves the payload's building type with the usual fallbacks.
func (p *ResultPayload) BuildingTypeKey() (uid string, name string) {
	uid = "unknown"
	if p.BuildingType != nil && p.BuildingType.UID != "" {
		uid = p.BuildingType.UID
	}
	switch {
	case p.BuildingType != nil && p.BuildingType.Name != "":
		name = p.BuildingType.Name
	case p.BuildingType != nil && p.BuildingType.UID != "":
		name = p.BuildingType.UID
	default:
		name = domain.UnknownBuildingName
	}
	return uid, name
}

func (p *ResultPayload) ToDocument(accountID int64, accountName string) *domain.ResultDocument {
	uid, name := p.BuildingTypeKey()

	scenario := p.Scenario
	if scenario == nil {
		scenario = map[string]any{}
	}
	forecast := p.ForecastParameters
	if forecast == nil {
		forecast = map[string]any{}
	}

	tags := make([]string, 0, len(p.Tags))
	for _, tag := range p.Tags {
		if tag != nil {
			tags = append(tags, domain.ValueString(tag))
		}
	}

	doc := &domain.ResultDocument{
		UID:                p.UID,
		DateRun:            p.DateRun.UTC(),
		BoptestVersion:     p.BoptestVersion,
		IsShared:           p.IsShared,
		Tags:               tags,
		ControlStep:        domain.ValueString(p.ControlStep),
		Scenario:           scenario,
		ForecastParameters: forecast,
		AccountID:          accountID,
		AccountName:        accountName,
		BuildingTypeUID:    uid,
		BuildingTypeName:   name,
	}
	if p.KPIs != nil {
		doc.KPIs = domain.KPIs{
			ThermalDiscomfort:   p.KPIs.TdisTot,
			EnergyUse:           p.KPIs.EnerTot,
			Cost:                p.KPIs.CostTot,
			Emissions:           p.KPIs.EmisTot,
			IAQ:                 p.KPIs.IdisTot,
			TimeRatio:           p.KPIs.TimeRat,
			PeakElectricity:     p.KPIs.PeleTot,
			PeakGas:             p.KPIs.PgasTot,
			PeakDistrictHeating: p.KPIs.PdihTot,
		}
	}
	return doc
}

// FacetInput is the slice of the payload the facet aggregate cares about.
func (p *ResultPayload) FacetInput() domain.FacetInput {
	uid, name := p.BuildingTypeKey()
	return domain.NewFacetInput(uid, name, p.Scenario, p.Tags, p.BoptestVersion)
}
