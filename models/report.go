package models

import "time"

// ComplianceMetric summarizes verdicts for one regulation
type ComplianceMetric struct {
	TotalRequirements int     `json:"total_requirements"`
	Satisfied         int     `json:"satisfied"`
	Partial           int     `json:"partial"`
	Missing           int     `json:"missing"`
	SatisfiedFraction float64 `json:"satisfied_fraction"`
}

// ReportSummary holds the aggregated statistics of an analysis
type ReportSummary struct {
	TotalClauses         int                                 `json:"total_clauses"`
	ComplianceMetrics    map[RegulationCode]ComplianceMetric `json:"compliance_metrics"`
	RiskAssessment       DocumentRisk                        `json:"risk_assessment"`
	KeyIssues            []string                            `json:"key_issues"`
	Recommendations      []string                            `json:"recommendations"`
	CategoryDistribution map[ClauseCategory]int              `json:"category_distribution"`
	RiskDistribution     map[RiskLevel]int                   `json:"risk_distribution"`
	DegradedSections     []string                            `json:"degraded_sections"`
}

// AnalysisReport represents the complete, immutable result of one analysis
type AnalysisReport struct {
	Document          DocumentRef                            `json:"document"`
	Regulations       []RegulationCode                       `json:"regulations"`
	Clauses           []Clause                               `json:"clauses"`
	ComplianceResults map[RegulationCode][]ComplianceVerdict `json:"compliance_results"`
	Summary           ReportSummary                          `json:"summary"`
	AnalysisTimestamp time.Time                              `json:"analysis_timestamp"`
}

// ErrorDetail is the structured form of a failed analysis
type ErrorDetail struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// BatchItem represents the outcome for one document of a batch request.
// Exactly one of Report and Error is set.
type BatchItem struct {
	FileName string          `json:"file_name"`
	Report   *AnalysisReport `json:"report,omitempty"`
	Error    *ErrorDetail    `json:"error,omitempty"`
}
