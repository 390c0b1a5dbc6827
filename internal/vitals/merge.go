package vitals

// Merge reconciles locally extracted vitals with an optional remote record.
// A field present in remote overrides local; a field absent in remote keeps
// the local value. A nil remote returns local unchanged, so the remote path
// can add or correct values but never erase them.
func Merge(local Vitals, remote *Vitals) Vitals {
	if remote == nil {
		return local
	}
	out := local
	if remote.Age != nil {
		out.Age = remote.Age
	}
	if remote.SystolicBP != nil {
		out.SystolicBP = remote.SystolicBP
	}
	if remote.HeartRate != nil {
		out.HeartRate = remote.HeartRate
	}
	if remote.SpO2 != nil {
		out.SpO2 = remote.SpO2
	}
	if remote.Temperature != nil {
		out.Temperature = remote.Temperature
	}
	if remote.Consciousness != nil {
		out.Consciousness = remote.Consciousness
	}
	if remote.ProviderAssessment != nil {
		out.ProviderAssessment = remote.ProviderAssessment
	}
	return out
}
