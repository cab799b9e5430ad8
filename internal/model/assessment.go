package model

// AnalysisMode indicates where the analyzed features came from.
type AnalysisMode string

// Analysis modes.
const (
	// ModeAuto replays the next day from the pre-generated stream.
	ModeAuto AnalysisMode = "auto"
	// ModeManual analyzes caller-supplied what-if features.
	ModeManual AnalysisMode = "manual"
)

// ManualDayIndex is the sentinel day index reported for manual analyses.
const ManualDayIndex = -1

// FeatureWeight pairs a feature name with its global model importance,
// for UI rendering.
type FeatureWeight struct {
	Name       string  `json:"name"`
	Importance float64 `json:"importance"`
}

// Assessment is the result of one inference pass.
type Assessment struct {
	Mode           AnalysisMode    `json:"mode"`
	DayIndex       int             `json:"day_index"`
	Input          FeatureVector   `json:"-"`
	InputEcho      []float64       `json:"input_echo"`
	RiskLevel      RiskLabel       `json:"risk_level"`
	Confidence     float64         `json:"confidence"`
	Probabilities  []float64       `json:"-"`
	Trend          string          `json:"trend"`
	Explanation    string          `json:"explanation"`
	Counterfactual string          `json:"counterfactual"`
	FeatureData    []FeatureWeight `json:"feature_data"`
}
