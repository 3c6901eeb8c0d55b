package analysis

import (
	"fmt"
	"math"

	"clausecheck-backend/models"

	"github.com/google/uuid"
)

// RiskWeights are the tunable constants of the risk model
type RiskWeights struct {
	// Confidence is the score a clause gets at zero classification confidence
	Confidence float64
	Critical   float64
	High       float64
	Medium     float64
	Low        float64
}

// DefaultRiskWeights returns the default risk model
func DefaultRiskWeights() RiskWeights {
	return RiskWeights{
		Confidence: 30,
		Critical:   40,
		High:       25,
		Medium:     10,
		Low:        5,
	}
}

// Penalty returns the penalty for an unmet requirement of the given severity
func (w RiskWeights) Penalty(severity models.Severity) float64 {
	switch severity {
	case models.SeverityCritical:
		return w.Critical
	case models.SeverityHigh:
		return w.High
	case models.SeverityMedium:
		return w.Medium
	case models.SeverityLow:
		return w.Low
	default:
		return 0
	}
}

// RiskScorer turns classifications and verdicts into risk scores. It makes no service calls.
type RiskScorer struct {
	weights RiskWeights
}

// NewRiskScorer creates a scorer with the given weights
func NewRiskScorer(weights RiskWeights) *RiskScorer {
	return &RiskScorer{weights: weights}
}

type clauseRisk struct {
	score    float64
	critical int
	factors  []string
}

// Score assesses every clause and the document as a whole.
//
// The document score is a critical-amplified mean, not a normalized weighted
// mean: each clause score counts 1+c times, where c is the number of Critical
// gaps attributed to it, penalties of gaps with no clause are added once, and
// the sum is divided by the clause count and capped at 100. Adding a Critical
// gap therefore never lowers the document score.
func (s *RiskScorer) Score(regulations []models.Regulation, clauses []models.Clause, results map[models.RegulationCode][]models.ComplianceVerdict) models.DocumentRisk {
	byID := make(map[uuid.UUID]*clauseRisk, len(clauses))
	risks := make([]*clauseRisk, len(clauses))
	for i, clause := range clauses {
		r := &clauseRisk{score: (1 - clause.ClassificationConfidence) * s.weights.Confidence}
		if clause.Category == models.CategoryUnclassified {
			r.factors = append(r.factors, "clause could not be classified")
		} else if clause.ClassificationConfidence < 1 {
			r.factors = append(r.factors, fmt.Sprintf("classification confidence %.2f", clause.ClassificationConfidence))
		}
		risks[i] = r
		byID[clause.ID] = r
	}

	unattributed := 0.0
	for _, reg := range regulations {
		verdicts := results[reg.Code]
		for q, req := range reg.Requirements {
			if q >= len(verdicts) {
				break
			}
			v := verdicts[q]
			if v.Status == models.StatusSatisfied {
				continue
			}
			penalty := s.weights.Penalty(req.Severity)
			if v.ClauseID == nil {
				unattributed += penalty
				continue
			}
			r, ok := byID[*v.ClauseID]
			if !ok {
				unattributed += penalty
				continue
			}
			r.score += penalty
			if req.Severity == models.SeverityCritical {
				r.critical++
			}
			r.factors = append(r.factors, fmt.Sprintf("%s %s: %s (%s)", reg.Code, req.ID, v.Status, req.Severity))
		}
	}

	doc := models.DocumentRisk{ClauseAssessments: make([]models.RiskAssessment, len(clauses))}
	weighted := unattributed
	for i, clause := range clauses {
		r := risks[i]
		score := roundScore(math.Min(100, r.score))
		factors := r.factors
		if factors == nil {
			factors = []string{}
		}
		doc.ClauseAssessments[i] = models.RiskAssessment{
			ClauseID: clause.ID,
			Score:    score,
			Category: models.RiskLevelFor(score),
			Factors:  factors,
		}
		weighted += float64(1+r.critical) * score
	}

	if len(clauses) > 0 {
		doc.Score = roundScore(math.Min(100, weighted/float64(len(clauses))))
	}
	doc.Category = models.RiskLevelFor(doc.Score)
	return doc
}

func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
