package results

import (
	"context"
	"fmt"

	"github.com/ougirez/boptest/internal/domain"
	"github.com/ougirez/boptest/internal/pkg/constants"
)

// SignatureDetails reports the spread of every KPI among live results run
// with exactly the same scenario as the result uid. Like GetShared it only
// answers for shared results.
func (s *Service) SignatureDetails(ctx context.Context, uid string) (*domain.SignatureDetails, error) {
	target, err := s.store.FindResultByUID(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("find result %s: %w", uid, err)
	}
	if target.Data.Deleted || !target.Data.IsShared {
		return nil, fmt.Errorf("result %s: %w", uid, constants.ErrDBNotFound)
	}

	matching, err := s.store.FindResultsByScenario(ctx, target.Data.Scenario)
	if err != nil {
		return nil, fmt.Errorf("find results with scenario of %s: %w", uid, err)
	}

	kpis := make([]domain.KPIs, 0, len(matching))
	for _, doc := range matching {
		kpis = append(kpis, doc.Data.KPIs)
	}
	return signatureDetails(target.Data.KPIs, kpis), nil
}

func seed(v *float64) domain.KPIRange {
	if v == nil {
		return domain.KPIRange{}
	}
	return domain.KPIRange{Min: *v, Max: *v}
}

func widen(r *domain.KPIRange, v *float64) {
	if v == nil {
		return
	}
	if *v < r.Min {
		r.Min = *v
	}
	if *v > r.Max {
		r.Max = *v
	}
}

// signatureDetails starts every range at the target's own value (0 when the
// target lacks it) and widens it with each other result that has the metric.
func signatureDetails(target domain.KPIs, all []domain.KPIs) *domain.SignatureDetails {
	d := &domain.SignatureDetails{
		NumResults:          len(all),
		ThermalDiscomfort:   seed(target.ThermalDiscomfort),
		EnergyUse:           seed(target.EnergyUse),
		Cost:                seed(target.Cost),
		Emissions:           seed(target.Emissions),
		IAQ:                 seed(target.IAQ),
		TimeRatio:           seed(target.TimeRatio),
		PeakElectricity:     seed(target.PeakElectricity),
		PeakGas:             seed(target.PeakGas),
		PeakDistrictHeating: seed(target.PeakDistrictHeating),
	}

	for _, k := range all {
		widen(&d.ThermalDiscomfort, k.ThermalDiscomfort)
		widen(&d.EnergyUse, k.EnergyUse)
		widen(&d.Cost, k.Cost)
		widen(&d.Emissions, k.Emissions)
		widen(&d.IAQ, k.IAQ)
		widen(&d.TimeRatio, k.TimeRatio)
		widen(&d.PeakElectricity, k.PeakElectricity)
		widen(&d.PeakGas, k.PeakGas)
		widen(&d.PeakDistrictHeating, k.PeakDistrictHeating)
	}
	return d
}
