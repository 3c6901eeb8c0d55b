package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"clausecheck-backend/models"

	"github.com/google/uuid"
)

// DefaultKeyIssueLimit is the number of key issues a report lists
const DefaultKeyIssueLimit = 5

// Aggregator assembles the final report. It is a pure function of its inputs and the clock.
type Aggregator struct {
	keyIssues int
	now       func() time.Time
}

type issue struct {
	regulation  models.Regulation
	requirement models.Requirement
	verdict     models.ComplianceVerdict
	clauseIndex int
	score       float64
}

// Aggregate builds the report. degraded lists pipeline sections that fell back to
// conservative results before compliance evaluation.
func (a *Aggregator) Aggregate(
	doc *models.Document,
	regulations []models.Regulation,
	clauses []models.Clause,
	results map[models.RegulationCode][]models.ComplianceVerdict,
	risk models.DocumentRisk,
	degraded []string,
) *models.AnalysisReport {
	indexByID := make(map[uuid.UUID]int, len(clauses))
	for _, clause := range clauses {
		indexByID[clause.ID] = clause.SequenceIndex
	}

	codes := make([]models.RegulationCode, 0, len(regulations))
	metrics := make(map[models.RegulationCode]models.ComplianceMetric, len(regulations))
	compliance := make(map[models.RegulationCode][]models.ComplianceVerdict, len(regulations))
	sections := append([]string{}, degraded...)
	var issues []issue

	for _, reg := range regulations {
		codes = append(codes, reg.Code)
		verdicts := results[reg.Code]
		if verdicts == nil {
			verdicts = []models.ComplianceVerdict{}
		}
		compliance[reg.Code] = verdicts

		metric := models.ComplianceMetric{TotalRequirements: len(verdicts)}
		for q, v := range verdicts {
			switch v.Status {
			case models.StatusSatisfied:
				metric.Satisfied++
			case models.StatusPartial:
				metric.Partial++
			default:
				metric.Missing++
			}
			if q >= len(reg.Requirements) {
				continue
			}
			req := reg.Requirements[q]
			if v.Degraded {
				sections = append(sections, fmt.Sprintf("compliance %s %s", reg.Code, req.ID))
			}
			if v.Status == models.StatusSatisfied {
				continue
			}
			is := issue{regulation: reg, requirement: req, verdict: v, clauseIndex: -1, score: 100}
			if v.ClauseID != nil {
				if idx, ok := indexByID[*v.ClauseID]; ok {
					is.clauseIndex = idx
				}
				if assessment, ok := risk.ForClause(*v.ClauseID); ok {
					is.score = assessment.Score
				}
			}
			issues = append(issues, is)
		}
		if metric.TotalRequirements > 0 {
			metric.SatisfiedFraction = math.Round(float64(metric.Satisfied)/float64(metric.TotalRequirements)*10000) / 10000
		}
		metrics[reg.Code] = metric
	}

	sort.SliceStable(issues, func(i, j int) bool {
		ri, rj := issues[i].requirement.Severity.Rank(), issues[j].requirement.Severity.Rank()
		if ri != rj {
			return ri > rj
		}
		return issues[i].score > issues[j].score
	})
	if a.keyIssues >= 0 && len(issues) > a.keyIssues {
		issues = issues[:a.keyIssues]
	}

	keyIssues := make([]string, 0, len(issues))
	recommendations := make([]string, 0, len(issues))
	for _, is := range issues {
		keyIssues = append(keyIssues, describeIssue(is))
		recommendations = append(recommendations, recommend(is))
	}

	categories := make(map[models.ClauseCategory]int)
	for _, clause := range clauses {
		categories[clause.Category]++
	}
	levels := map[models.RiskLevel]int{models.RiskHigh: 0, models.RiskMedium: 0, models.RiskLow: 0}
	for _, assessment := range risk.ClauseAssessments {
		levels[assessment.Category]++
	}

	clauseCopy := make([]models.Clause, len(clauses))
	copy(clauseCopy, clauses)

	now := time.Now
	if a.now != nil {
		now = a.now
	}
	return &models.AnalysisReport{
		Document:          models.DocumentRef{ID: doc.ID, FileName: doc.FileName},
		Regulations:       codes,
		Clauses:           clauseCopy,
		ComplianceResults: compliance,
		Summary: models.ReportSummary{
			TotalClauses:         len(clauses),
			ComplianceMetrics:    metrics,
			RiskAssessment:       risk,
			KeyIssues:            keyIssues,
			Recommendations:      recommendations,
			CategoryDistribution: categories,
			RiskDistribution:     levels,
			DegradedSections:     sections,
		},
		AnalysisTimestamp: now().UTC(),
	}
}

func describeIssue(is issue) string {
	where := "no clause addresses it"
	if is.clauseIndex >= 0 {
		where = fmt.Sprintf("clause %d", is.clauseIndex)
	}
	return fmt.Sprintf("[%s] %s %s is %s (%s): %s",
		is.requirement.Severity.Title(), is.regulation.Code, is.requirement.ID, is.verdict.Status, where, is.requirement.Description)
}

func recommend(is issue) string {
	if is.clauseIndex < 0 {
		return fmt.Sprintf("Add a clause covering %s requirement %s: %s", is.regulation.Code, is.requirement.ID, is.requirement.Description)
	}
	return fmt.Sprintf("Strengthen clause %d to meet %s requirement %s: %s", is.clauseIndex, is.regulation.Code, is.requirement.ID, is.requirement.Description)
}
