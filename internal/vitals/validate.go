package vitals

import (
	"errors"
	"fmt"
)

// Accepted ranges. Values outside them are not physiologically plausible and
// are rejected before they reach the triage engine.
const (
	MaxAge         = 150
	MaxSystolicBP  = 300
	MaxHeartRate   = 300
	MaxSpO2        = 100
	MinTemperature = 20.0
	MaxTemperature = 45.0
)

// ValidationError reports a single field outside its accepted domain.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks every present field against its domain. It returns nil or
// one or more *ValidationError joined with errors.Join.
func (v Vitals) Validate() error {
	var errs []error

	checkInt := func(field string, p *int, limit int) {
		if p == nil {
			return
		}
		if *p < 0 || *p > limit {
			errs = append(errs, &ValidationError{Field: field, Reason: fmt.Sprintf("%d out of range 0..%d", *p, limit)})
		}
	}

	checkInt("age", v.Age, MaxAge)
	checkInt("systolicBp", v.SystolicBP, MaxSystolicBP)
	checkInt("heartRate", v.HeartRate, MaxHeartRate)
	checkInt("spo2", v.SpO2, MaxSpO2)

	if v.Temperature != nil {
		t := *v.Temperature
		// NaN fails both comparisons, so test for the accepted range instead
		if !(t >= MinTemperature && t <= MaxTemperature) {
			errs = append(errs, &ValidationError{
				Field:  "temperature",
				Reason: fmt.Sprintf("%g out of range %g..%g", t, MinTemperature, MaxTemperature),
			})
		}
	}
	if v.Consciousness != nil && !v.Consciousness.Valid() {
		errs = append(errs, &ValidationError{Field: "consciousness", Reason: fmt.Sprintf("unknown level %q", *v.Consciousness)})
	}
	if v.ProviderAssessment != nil && !v.ProviderAssessment.Valid() {
		errs = append(errs, &ValidationError{Field: "providerAssessment", Reason: fmt.Sprintf("unknown assessment %q", *v.ProviderAssessment)})
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// InvalidFields returns the field names named by the ValidationErrors in err.
func InvalidFields(err error) []string {
	if err == nil {
		return nil
	}
	if j, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range j.Unwrap() {
			out = append(out, InvalidFields(e)...)
		}
		return out
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return []string{ve.Field}
	}
	return nil
}

// WithoutInvalid returns a copy of v with every field that fails validation
// cleared.
func (v Vitals) WithoutInvalid() Vitals {
	out := v
	for _, f := range InvalidFields(v.Validate()) {
		switch f {
		case "age":
			out.Age = nil
		case "systolicBp":
			out.SystolicBP = nil
		case "heartRate":
			out.HeartRate = nil
		case "spo2":
			out.SpO2 = nil
		case "temperature":
			out.Temperature = nil
		case "consciousness":
			out.Consciousness = nil
		case "providerAssessment":
			out.ProviderAssessment = nil
		}
	}
	return out
}
