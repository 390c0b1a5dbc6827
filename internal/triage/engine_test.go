package triage

import (
	"bytes"
	"encoding/json"
	"reflect"
	"slices"
	"testing"

	"github.com/linnemanlabs/firstline/internal/vitals"
	"github.com/linnemanlabs/firstline/internal/vitals/extract"
)

var (
	i = vitals.Int
	f = vitals.Float
)

// domain holds boundary values for every field; nil means absent.
var domain = struct {
	age         []*int
	systolic    []*int
	heartRate   []*int
	spo2        []*int
	temperature []*float64
	level       []*vitals.Consciousness
	assessment  []*vitals.ProviderAssessment
}{
	age:         []*int{nil, i(0), i(60), i(61), i(150)},
	systolic:    []*int{nil, i(0), i(79), i(80), i(89), i(90), i(99), i(100), i(180), i(181), i(300)},
	heartRate:   []*int{nil, i(0), i(49), i(50), i(120), i(121), i(300)},
	spo2:        []*int{nil, i(0), i(89), i(90), i(91), i(92), i(100)},
	temperature: []*float64{nil, f(20), f(34.9), f(35), f(38), f(38.1), f(40), f(40.1), f(45)},
	level: []*vitals.Consciousness{
		nil,
		vitals.Level(vitals.ConsciousnessAlert),
		vitals.Level(vitals.ConsciousnessConfused),
		vitals.Level(vitals.ConsciousnessDrowsy),
		vitals.Level(vitals.ConsciousnessUnconscious),
	},
	assessment: []*vitals.ProviderAssessment{
		nil,
		vitals.Assessment(vitals.AssessmentLow),
		vitals.Assessment(vitals.AssessmentModerate),
		vitals.Assessment(vitals.AssessmentCritical),
	},
}

// everyVitals calls fn with the cross product of the boundary domain.
func everyVitals(fn func(vitals.Vitals)) {
	for _, age := range domain.age {
		for _, sbp := range domain.systolic {
			for _, hr := range domain.heartRate {
				for _, spo2 := range domain.spo2 {
					for _, temp := range domain.temperature {
						for _, lvl := range domain.level {
							for _, pa := range domain.assessment {
								fn(vitals.Vitals{
									Age:                age,
									SystolicBP:         sbp,
									HeartRate:          hr,
									SpO2:               spo2,
									Temperature:        temp,
									Consciousness:      lvl,
									ProviderAssessment: pa,
								})
							}
						}
					}
				}
			}
		}
	}
}

func TestDecide_RedFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		v       vitals.Vitals
		reasons []string
	}{
		{"spo2", vitals.Vitals{SpO2: i(85)}, []string{ReasonSpO2Critical}},
		{"unconscious", vitals.Vitals{Consciousness: vitals.Level(vitals.ConsciousnessUnconscious)}, []string{ReasonUnconscious}},
		{"systolic", vitals.Vitals{SystolicBP: i(70)}, []string{ReasonBPCritical}},
		{"provider", vitals.Vitals{ProviderAssessment: vitals.Assessment(vitals.AssessmentCritical)}, []string{ReasonProviderCritical}},
		{
			"all in order",
			vitals.Vitals{
				SpO2:               i(80),
				SystolicBP:         i(60),
				Consciousness:      vitals.Level(vitals.ConsciousnessUnconscious),
				ProviderAssessment: vitals.Assessment(vitals.AssessmentCritical),
				HeartRate:          i(140),
				Age:                i(80),
			},
			[]string{ReasonSpO2Critical, ReasonUnconscious, ReasonBPCritical, ReasonProviderCritical},
		},
		{"negative spo2 compared literally", vitals.Vitals{SpO2: i(-5)}, []string{ReasonSpO2Critical}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Decide(tt.v)
			if got.Priority != PriorityCritical {
				t.Errorf("Priority = %q, want CRITICAL", got.Priority)
			}
			if got.Score != RedFlagScore {
				t.Errorf("Score = %d, want %d", got.Score, RedFlagScore)
			}
			if !got.RedFlagsDetected {
				t.Error("RedFlagsDetected = false, want true")
			}
			if got.DecisionPathway != PathwayRedFlag {
				t.Errorf("DecisionPathway = %q, want %q", got.DecisionPathway, PathwayRedFlag)
			}
			if !slices.Equal(got.Reasons, tt.reasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.reasons)
			}
			want := "CRITICAL: " + tt.reasons[0] + ". Immediate emergency response required."
			if got.NarrativeSummary != want {
				t.Errorf("NarrativeSummary = %q, want %q", got.NarrativeSummary, want)
			}
		})
	}
}

func TestDecide_Scoring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		v        vitals.Vitals
		score    int
		priority Priority
		reasons  []string
	}{
		{"nothing", vitals.Vitals{}, 0, PriorityStable, []string{}},
		{"spo2 90", vitals.Vitals{SpO2: i(90)}, 2, PriorityStable, []string{ReasonSpO2LowNormal}},
		{"spo2 92", vitals.Vitals{SpO2: i(92)}, 0, PriorityStable, []string{}},
		{"hr 49", vitals.Vitals{HeartRate: i(49)}, 2, PriorityStable, []string{ReasonHeartRateAbnormal}},
		{"hr 50", vitals.Vitals{HeartRate: i(50)}, 0, PriorityStable, []string{}},
		{"hr 120", vitals.Vitals{HeartRate: i(120)}, 0, PriorityStable, []string{}},
		{"hr 121", vitals.Vitals{HeartRate: i(121)}, 2, PriorityStable, []string{ReasonHeartRateAbnormal}},
		{"sbp 90", vitals.Vitals{SystolicBP: i(90)}, 0, PriorityStable, []string{}},
		{"sbp 180", vitals.Vitals{SystolicBP: i(180)}, 0, PriorityStable, []string{}},
		{"sbp 181", vitals.Vitals{SystolicBP: i(181)}, 2, PriorityStable, []string{ReasonBPElevated}},
		{"drowsy", vitals.Vitals{Consciousness: vitals.Level(vitals.ConsciousnessDrowsy)}, 3, PriorityStable, []string{ReasonDrowsy}},
		{"confused scores nothing", vitals.Vitals{Consciousness: vitals.Level(vitals.ConsciousnessConfused)}, 0, PriorityStable, []string{}},
		{"temp 38", vitals.Vitals{Temperature: f(38)}, 0, PriorityStable, []string{}},
		{"temp 38.1", vitals.Vitals{Temperature: f(38.1)}, 1, PriorityStable, []string{ReasonTemperature}},
		{"age 60", vitals.Vitals{Age: i(60)}, 0, PriorityStable, []string{}},
		{"age 61", vitals.Vitals{Age: i(61)}, 1, PriorityStable, []string{ReasonAge}},
		{"moderate", vitals.Vitals{ProviderAssessment: vitals.Assessment(vitals.AssessmentModerate)}, 2, PriorityStable, []string{ReasonProviderModerate}},
		{"low assessment", vitals.Vitals{ProviderAssessment: vitals.Assessment(vitals.AssessmentLow)}, 0, PriorityStable, []string{}},
		{
			"urgent at 4",
			vitals.Vitals{HeartRate: i(130), SpO2: i(91)},
			4, PriorityUrgent,
			[]string{ReasonSpO2LowNormal, ReasonHeartRateAbnormal},
		},
		{
			"critical at 7",
			vitals.Vitals{HeartRate: i(40), Consciousness: vitals.Level(vitals.ConsciousnessDrowsy), SystolicBP: i(200)},
			7, PriorityCritical,
			[]string{ReasonHeartRateAbnormal, ReasonBPElevated, ReasonDrowsy},
		},
		{
			"maximum",
			vitals.Vitals{
				SpO2:               i(91),
				HeartRate:          i(130),
				SystolicBP:         i(200),
				Consciousness:      vitals.Level(vitals.ConsciousnessDrowsy),
				Temperature:        f(39),
				Age:                i(70),
				ProviderAssessment: vitals.Assessment(vitals.AssessmentModerate),
			},
			13, PriorityCritical,
			[]string{
				ReasonSpO2LowNormal, ReasonHeartRateAbnormal, ReasonBPElevated, ReasonDrowsy,
				ReasonTemperature, ReasonAge, ReasonProviderModerate,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Decide(tt.v)
			if got.Score != tt.score {
				t.Errorf("Score = %d, want %d", got.Score, tt.score)
			}
			if got.Priority != tt.priority {
				t.Errorf("Priority = %q, want %q", got.Priority, tt.priority)
			}
			if got.RedFlagsDetected {
				t.Error("RedFlagsDetected = true, want false")
			}
			if got.DecisionPathway != PathwayScore {
				t.Errorf("DecisionPathway = %q, want %q", got.DecisionPathway, PathwayScore)
			}
			if got.Reasons == nil {
				t.Fatal("Reasons is nil, want non-nil")
			}
			if !slices.Equal(got.Reasons, tt.reasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.reasons)
			}
		})
	}
}

func TestDecide_Narrative(t *testing.T) {
	t.Parallel()

	got := Decide(vitals.Vitals{HeartRate: i(130), SpO2: i(91)})
	want := "URGENT: oxygen saturation low-normal, heart rate abnormal."
	if got.NarrativeSummary != want {
		t.Errorf("NarrativeSummary = %q, want %q", got.NarrativeSummary, want)
	}

	got = Decide(vitals.Vitals{})
	want = "STABLE: all vital signs within normal limits."
	if got.NarrativeSummary != want {
		t.Errorf("NarrativeSummary = %q, want %q", got.NarrativeSummary, want)
	}
}

func TestDecide_Properties(t *testing.T) {
	t.Parallel()

	maxScore := 0
	everyVitals(func(v vitals.Vitals) {
		got := Decide(v)

		if v.SpO2 != nil && *v.SpO2 < RedFlagSpO2 {
			if got.Priority != PriorityCritical || got.Score != RedFlagScore || !got.RedFlagsDetected {
				t.Fatalf("spo2 %d did not dominate: %+v", *v.SpO2, got)
			}
		}

		if got.RedFlagsDetected {
			if got.Score != RedFlagScore || got.Priority != PriorityCritical {
				t.Fatalf("red flag result not CRITICAL/10: %+v", got)
			}
		} else {
			if got.Priority != PriorityFromScore(got.Score) {
				t.Fatalf("priority %q does not follow score %d", got.Priority, got.Score)
			}
			maxScore = max(maxScore, got.Score)
		}

		if got.Priority == PriorityUnknown {
			t.Fatalf("Decide returned UNKNOWN for %+v", v)
		}
		if got.ABCDE != DeriveABCDE(v) {
			t.Fatalf("ABCDE = %+v, want %+v", got.ABCDE, DeriveABCDE(v))
		}
	})

	if maxScore != MaxAttainableScore {
		t.Errorf("max attainable score = %d, want %d", maxScore, MaxAttainableScore)
	}
}

func TestPriorityFromScore(t *testing.T) {
	t.Parallel()

	for score := -1; score <= MaxAttainableScore; score++ {
		var want Priority
		switch {
		case score < 4:
			want = PriorityStable
		case score < 7:
			want = PriorityUrgent
		default:
			want = PriorityCritical
		}
		if got := PriorityFromScore(score); got != want {
			t.Errorf("PriorityFromScore(%d) = %q, want %q", score, got, want)
		}
	}
}

func TestDecide_Pure(t *testing.T) {
	t.Parallel()

	v := vitals.Vitals{
		SpO2:          i(91),
		HeartRate:     i(130),
		Temperature:   f(39.2),
		Consciousness: vitals.Level(vitals.ConsciousnessDrowsy),
	}
	cp := vitals.Merge(vitals.Vitals{}, &v)

	a, b := Decide(v), Decide(cp)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("results differ:\n%+v\n%+v", a, b)
	}

	ja, err := json.Marshal(a)
	if err != nil {
		t.Fatal(err)
	}
	jb, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(ja, jb) {
		t.Errorf("json differs:\n%s\n%s", ja, jb)
	}

	if *v.SpO2 != 91 || *v.HeartRate != 130 {
		t.Error("Decide mutated its input")
	}
}

func TestDecide_EmptyReasonsMarshalAsArray(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(Decide(vitals.Vitals{}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte(`"reasons":[]`)) {
		t.Errorf("reasons not an empty array: %s", b)
	}
}

func TestDeriveABCDE(t *testing.T) {
	t.Parallel()

	unconscious := vitals.Level(vitals.ConsciousnessUnconscious)

	tests := []struct {
		name string
		v    vitals.Vitals
		want ABCDEStatus
	}{
		{
			"empty",
			vitals.Vitals{},
			ABCDEStatus{AirwayOpen, BreathingUnknown, CirculationUnknown, DisabilityAlert, ExposureUnknown},
		},
		{
			"unconscious with normal spo2",
			vitals.Vitals{Consciousness: unconscious, SpO2: i(97)},
			ABCDEStatus{AirwayAtRisk, BreathingAdequate, CirculationUnknown, DisabilityUnconscious, ExposureUnknown},
		},
		{
			"confused is alert",
			vitals.Vitals{Consciousness: vitals.Level(vitals.ConsciousnessConfused)},
			ABCDEStatus{AirwayOpen, BreathingUnknown, CirculationUnknown, DisabilityAlert, ExposureUnknown},
		},
		{
			"drowsy",
			vitals.Vitals{Consciousness: vitals.Level(vitals.ConsciousnessDrowsy)},
			ABCDEStatus{AirwayOpen, BreathingUnknown, CirculationUnknown, DisabilityDrowsy, ExposureUnknown},
		},
		{
			"critical breathing, shock, hyperthermia",
			vitals.Vitals{SpO2: i(89), SystolicBP: i(89), Temperature: f(40.1)},
			ABCDEStatus{AirwayOpen, BreathingCritical, CirculationShock, DisabilityAlert, ExposureCritical},
		},
		{
			"low normal, fever",
			vitals.Vitals{SpO2: i(91), SystolicBP: i(95), Temperature: f(38.5)},
			ABCDEStatus{AirwayOpen, BreathingLowNormal, CirculationLowNormal, DisabilityAlert, ExposureFever},
		},
		{
			"adequate, hypothermia",
			vitals.Vitals{SpO2: i(92), SystolicBP: i(100), Temperature: f(34.9)},
			ABCDEStatus{AirwayOpen, BreathingAdequate, CirculationAdequate, DisabilityAlert, ExposureCritical},
		},
		{
			"hypertensive, normal temperature",
			vitals.Vitals{SystolicBP: i(181), Temperature: f(38)},
			ABCDEStatus{AirwayOpen, BreathingUnknown, CirculationHypertensive, DisabilityAlert, ExposureNormal},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := DeriveABCDE(tt.v); got != tt.want {
				t.Errorf("DeriveABCDE = %+v, want %+v", got, tt.want)
			}
			if got := Decide(tt.v).ABCDE; got != tt.want {
				t.Errorf("Decide().ABCDE = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecide_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		text     string
		priority Priority
		score    int
		redFlag  bool
		reasons  []string
	}{
		{"A", "spo2 85, hr 130", PriorityCritical, 10, true, []string{ReasonSpO2Critical}},
		{"B", "bp 85/60, feeling drowsy, age 65", PriorityCritical, 10, true, []string{ReasonBPCritical}},
		{"C", "temperature 39, age 65", PriorityStable, 2, false, []string{ReasonTemperature, ReasonAge}},
		{"D", "I feel a bit off", PriorityStable, 0, false, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := Decide(extract.Extract(tt.text))
			if got.Priority != tt.priority {
				t.Errorf("Priority = %q, want %q", got.Priority, tt.priority)
			}
			if got.Score != tt.score {
				t.Errorf("Score = %d, want %d", got.Score, tt.score)
			}
			if got.RedFlagsDetected != tt.redFlag {
				t.Errorf("RedFlagsDetected = %v, want %v", got.RedFlagsDetected, tt.redFlag)
			}
			if !slices.Equal(got.Reasons, tt.reasons) {
				t.Errorf("Reasons = %v, want %v", got.Reasons, tt.reasons)
			}
		})
	}

	got := Decide(extract.Extract("I feel a bit off"))
	if got.NarrativeSummary != "STABLE: all vital signs within normal limits." {
		t.Errorf("scenario D narrative = %q", got.NarrativeSummary)
	}
}

func TestColorFor(t *testing.T) {
	t.Parallel()

	for _, p := range []Priority{PriorityCritical, PriorityUrgent, PriorityStable} {
		c := ColorFor(p)
		if c.Label != string(p) || c.Hex == "" || c.TextColor == "" {
			t.Errorf("ColorFor(%q) = %+v", p, c)
		}
	}
	if got := ColorFor("bogus").Label; got != string(PriorityUnknown) {
		t.Errorf("ColorFor(bogus).Label = %q, want UNKNOWN", got)
	}
}

func BenchmarkDecide(b *testing.B) {
	v := extract.Extract("spo2 91, hr 130, bp 190/100, drowsy, temp 39, age 70")
	for b.Loop() {
		Decide(v)
	}
}
