package models

import "github.com/google/uuid"

// RiskLevel represents the bucket a risk score falls into
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// RiskLevelFor maps a 0-100 score onto its risk level
func RiskLevelFor(score float64) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 30:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskAssessment represents the compliance exposure attributable to one clause
type RiskAssessment struct {
	ClauseID uuid.UUID `json:"clause_id"`
	Score    float64   `json:"score"`
	Category RiskLevel `json:"category"`
	Factors  []string  `json:"factors"`
}

// DocumentRisk represents the document-level risk assessment
type DocumentRisk struct {
	Score             float64          `json:"score"`
	Category          RiskLevel        `json:"category"`
	ClauseAssessments []RiskAssessment `json:"clause_assessments"`
}

// ForClause returns the assessment for a clause, if any
func (d *DocumentRisk) ForClause(id uuid.UUID) (RiskAssessment, bool) {
	for _, a := range d.ClauseAssessments {
		if a.ClauseID == id {
			return a, true
		}
	}
	return RiskAssessment{}, false
}
