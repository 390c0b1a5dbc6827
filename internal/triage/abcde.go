package triage

import "github.com/linnemanlabs/firstline/internal/vitals"

// ABCDE thresholds that differ from the scoring ones.
const (
	ShockSystolicBP      = 90
	LowNormalCirculation = 100
	HyperthermiaTemp     = 40.0
	HypothermiaTemp      = 35.0
)

// DeriveABCDE computes the primary survey summary. Each category reads only
// its own field.
func DeriveABCDE(v vitals.Vitals) ABCDEStatus {
	return ABCDEStatus{
		Airway:      airway(v),
		Breathing:   breathing(v),
		Circulation: circulation(v),
		Disability:  disability(v),
		Exposure:    exposure(v),
	}
}

func airway(v vitals.Vitals) Airway {
	if v.Is(vitals.ConsciousnessUnconscious) {
		return AirwayAtRisk
	}
	return AirwayOpen
}

func breathing(v vitals.Vitals) Breathing {
	switch {
	case v.SpO2 == nil:
		return BreathingUnknown
	case *v.SpO2 < RedFlagSpO2:
		return BreathingCritical
	case *v.SpO2 < LowNormalSpO2:
		return BreathingLowNormal
	default:
		return BreathingAdequate
	}
}

func circulation(v vitals.Vitals) Circulation {
	switch {
	case v.SystolicBP == nil:
		return CirculationUnknown
	case *v.SystolicBP < ShockSystolicBP:
		return CirculationShock
	case *v.SystolicBP < LowNormalCirculation:
		return CirculationLowNormal
	case *v.SystolicBP > HighSystolicBP:
		return CirculationHypertensive
	default:
		return CirculationAdequate
	}
}

// confused is reported as ALERT in this scheme
func disability(v vitals.Vitals) Disability {
	switch {
	case v.Is(vitals.ConsciousnessUnconscious):
		return DisabilityUnconscious
	case v.Is(vitals.ConsciousnessDrowsy):
		return DisabilityDrowsy
	default:
		return DisabilityAlert
	}
}

func exposure(v vitals.Vitals) Exposure {
	switch {
	case v.Temperature == nil:
		return ExposureUnknown
	case *v.Temperature > HyperthermiaTemp || *v.Temperature < HypothermiaTemp:
		return ExposureCritical
	case *v.Temperature > FeverTemperature:
		return ExposureFever
	default:
		return ExposureNormal
	}
}
