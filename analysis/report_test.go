package analysis

import (
	"strings"
	"testing"
	"time"

	"clausecheck-backend/models"

	"github.com/google/uuid"
)

func TestAggregate(t *testing.T) {
	doc := &models.Document{ID: uuid.New(), FileName: "msa.pdf"}
	clauses := testClauses(doc,
		clauseSpec{models.CategoryDataPrivacy, 0.9},
		clauseSpec{models.CategorySecurity, 0.8},
		clauseSpec{models.CategoryUnclassified, 0},
	)
	reg := models.Regulation{
		Code: models.RegulationGDPR,
		Requirements: []models.Requirement{
			{ID: "low-gap", Description: "minor", Severity: models.SeverityLow},
			{ID: "critical-gap", Description: "legal basis", Severity: models.SeverityCritical},
			{ID: "met", Description: "security", Severity: models.SeverityHigh},
			{ID: "high-gap", Description: "breach notice", Severity: models.SeverityHigh},
		},
	}
	privacy, security := clauses[0].ID, clauses[1].ID
	results := map[models.RegulationCode][]models.ComplianceVerdict{
		models.RegulationGDPR: {
			{RequirementID: "low-gap", ClauseID: &privacy, Status: models.StatusPartial},
			{RequirementID: "critical-gap", Status: models.StatusMissing, Rationale: noCandidateRationale},
			{RequirementID: "met", ClauseID: &security, Status: models.StatusSatisfied},
			{RequirementID: "high-gap", ClauseID: &security, Status: models.StatusMissing, Degraded: true},
		},
	}
	regs := []models.Regulation{reg}
	risk := NewRiskScorer(DefaultRiskWeights()).Score(regs, clauses, results)

	paris := time.FixedZone("CET", 3600)
	agg := &Aggregator{keyIssues: 2, now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, paris) }}
	report := agg.Aggregate(doc, regs, clauses, results, risk, []string{"classification clause 2"})

	metric := report.Summary.ComplianceMetrics[models.RegulationGDPR]
	want := models.ComplianceMetric{TotalRequirements: 4, Satisfied: 1, Partial: 1, Missing: 2, SatisfiedFraction: 0.25}
	if metric != want {
		t.Errorf("metric = %+v, want %+v", metric, want)
	}

	if len(report.Summary.KeyIssues) != 2 || len(report.Summary.Recommendations) != 2 {
		t.Fatalf("key issues = %q, recommendations = %q", report.Summary.KeyIssues, report.Summary.Recommendations)
	}
	if !strings.Contains(report.Summary.KeyIssues[0], "critical-gap") || !strings.Contains(report.Summary.KeyIssues[1], "high-gap") {
		t.Errorf("key issues not ordered by severity: %q", report.Summary.KeyIssues)
	}
	if !strings.HasPrefix(report.Summary.Recommendations[0], "Add a clause") {
		t.Errorf("recommendation for unattributed gap = %q", report.Summary.Recommendations[0])
	}
	if !strings.HasPrefix(report.Summary.Recommendations[1], "Strengthen clause 1") {
		t.Errorf("recommendation for attributed gap = %q", report.Summary.Recommendations[1])
	}

	if got := report.Summary.DegradedSections; len(got) != 2 || got[1] != "compliance GDPR high-gap" {
		t.Errorf("degraded sections = %q", got)
	}
	if report.Summary.CategoryDistribution[models.CategoryUnclassified] != 1 {
		t.Errorf("category distribution = %v", report.Summary.CategoryDistribution)
	}
	levels := report.Summary.RiskDistribution
	if len(levels) != 3 || levels[models.RiskHigh]+levels[models.RiskMedium]+levels[models.RiskLow] != len(clauses) {
		t.Errorf("risk distribution = %v", levels)
	}

	if report.AnalysisTimestamp.Location() != time.UTC || report.AnalysisTimestamp.Hour() != 11 {
		t.Errorf("timestamp = %v, want 11:00 UTC", report.AnalysisTimestamp)
	}
	if report.Document.FileName != "msa.pdf" || report.Summary.TotalClauses != 3 {
		t.Errorf("document = %+v, total clauses = %d", report.Document, report.Summary.TotalClauses)
	}
}

func TestAggregate_EveryRequestedRegulationPresent(t *testing.T) {
	doc := &models.Document{ID: uuid.New()}
	regs := defaultCatalog(t).Regulations()

	report := (&Aggregator{keyIssues: DefaultKeyIssueLimit}).Aggregate(doc, regs, nil, nil, models.DocumentRisk{}, nil)

	for _, reg := range regs {
		if _, ok := report.ComplianceResults[reg.Code]; !ok {
			t.Errorf("compliance results missing %s", reg.Code)
		}
		if _, ok := report.Summary.ComplianceMetrics[reg.Code]; !ok {
			t.Errorf("compliance metrics missing %s", reg.Code)
		}
	}
	if len(report.Regulations) != len(regs) {
		t.Errorf("regulations = %v", report.Regulations)
	}
}
