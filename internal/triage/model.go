package triage

// Priority is the triage classification.
type Priority string

const (
	// PriorityCritical means immediate emergency response
	PriorityCritical Priority = "CRITICAL"

	// PriorityUrgent means hospital assessment soon
	PriorityUrgent Priority = "URGENT"

	// PriorityStable means standard care and monitoring
	PriorityStable Priority = "STABLE"

	// PriorityUnknown means no assessment has run yet. Decide never returns it.
	PriorityUnknown Priority = "UNKNOWN"
)

// Airway status, derived from consciousness.
type Airway string

const (
	AirwayOpen   Airway = "OPEN"
	AirwayAtRisk Airway = "AT_RISK"
)

// Breathing status, derived from SpO2.
type Breathing string

const (
	BreathingUnknown   Breathing = "UNKNOWN"
	BreathingCritical  Breathing = "CRITICAL"
	BreathingLowNormal Breathing = "LOW_NORMAL"
	BreathingAdequate  Breathing = "ADEQUATE"
)

// Circulation status, derived from systolic blood pressure.
type Circulation string

const (
	CirculationUnknown      Circulation = "UNKNOWN"
	CirculationShock        Circulation = "SHOCK"
	CirculationLowNormal    Circulation = "LOW_NORMAL"
	CirculationHypertensive Circulation = "HYPERTENSIVE"
	CirculationAdequate     Circulation = "ADEQUATE"
)

// Disability status, derived from consciousness. Confused maps to ALERT.
type Disability string

const (
	DisabilityUnconscious Disability = "UNCONSCIOUS"
	DisabilityDrowsy      Disability = "DROWSY"
	DisabilityAlert       Disability = "ALERT"
)

// Exposure status, derived from temperature.
type Exposure string

const (
	ExposureUnknown  Exposure = "UNKNOWN"
	ExposureCritical Exposure = "CRITICAL"
	ExposureFever    Exposure = "FEVER"
	ExposureNormal   Exposure = "NORMAL"
)

// ABCDEStatus holds five independently derived categories. None of them
// reads or influences the score.
type ABCDEStatus struct {
	Airway      Airway      `json:"airway"`
	Breathing   Breathing   `json:"breathing"`
	Circulation Circulation `json:"circulation"`
	Disability  Disability  `json:"disability"`
	Exposure    Exposure    `json:"exposure"`
}

// Color is a display hint for a priority.
type Color struct {
	Hex       string `json:"hex"`
	TextColor string `json:"textColor"`
	Label     string `json:"label"`
}

// Result is the outcome of Decide.
type Result struct {
	Priority          Priority    `json:"priority"`
	Score             int         `json:"score"`
	Reasons           []string    `json:"reasons"`
	RedFlagsDetected  bool        `json:"redFlagsDetected"`
	ABCDE             ABCDEStatus `json:"abcdeStatus"`
	NarrativeSummary  string      `json:"narrativeSummary"`
	DecisionPathway   string      `json:"decisionPathway"`
	RecommendedAction string      `json:"recommendedAction"`
	Color             Color       `json:"color"`
}
