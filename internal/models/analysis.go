package models

type NutritionEstimate struct {
	Name        string  `json:"name"`
	Calories    int     `json:"calories"`
	Protein     float64 `json:"protein"`
	Carbs       float64 `json:"carbs"`
	Fat         float64 `json:"fat"`
	Ingredients string  `json:"ingredients"`
	Confidence  int     `json:"confidence"`
}

type AnalysisStatus string

const (
	AnalysisEstimated AnalysisStatus = "estimated"
	AnalysisDegraded  AnalysisStatus = "degraded"
)

const (
	ReasonMalformedResponse   = "malformed_response"
	ReasonUpstreamUnavailable = "upstream_unavailable"
)

// AnalysisResult separates a genuine model estimate from the fixed fallback
// used when the model could not be reached or answered with garbage.
type AnalysisResult struct {
	Estimate NutritionEstimate `json:"estimate"`
	Status   AnalysisStatus    `json:"status"`
	Reason   string            `json:"reason,omitempty"`
}

func (r AnalysisResult) Degraded() bool {
	return r.Status == AnalysisDegraded
}
