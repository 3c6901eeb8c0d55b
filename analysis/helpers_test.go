package analysis

import (
	"strings"
	"testing"

	"clausecheck-backend/catalog"
	"clausecheck-backend/llm"
	"clausecheck-backend/models"
)

const threeClauseContract = "We process personal data of customers to provide the services.\n\n" +
	"Either party may terminate this agreement with written notice.\n\n" +
	"Payment is due within 30 days of the invoice date."

// contractService classifies clauses by keyword and delegates judgments to judge.
func contractService(judge func(req llm.Request) llm.StubResponse) *llm.StubService {
	return llm.NewStub(func(req llm.Request) llm.StubResponse {
		switch req.Task {
		case llm.TaskClassify:
			switch {
			case strings.Contains(req.Input, "personal data"):
				return llm.Text(`{"category": "data_privacy", "confidence": 0.92}`)
			case strings.Contains(req.Input, "terminate"):
				return llm.Text(`{"category": "termination", "confidence": 0.88}`)
			case strings.Contains(req.Input, "Payment"):
				return llm.Text("```json\n{\"category\": \"Payment\", \"confidence\": \"90%\"}\n```")
			}
			return llm.Text(`{"category": "liability", "confidence": 0.2}`)
		case llm.TaskJudge:
			if judge != nil {
				return judge(req)
			}
			return llm.Text(`{"status": "missing", "rationale": "not addressed"}`)
		}
		return llm.Failure(models.KindServiceUnavailable)
	})
}

func lawfulBasisCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.New([]models.Regulation{{
		Code: models.RegulationGDPR,
		Name: "General Data Protection Regulation",
		Requirements: []models.Requirement{{
			ID:                   "gdpr-lawful-basis",
			Description:          "Data processing must specify the legal basis for processing personal data",
			ApplicableCategories: []models.ClauseCategory{models.CategoryDataPrivacy},
			Severity:             models.SeverityCritical,
		}},
	}})
	if err != nil {
		t.Fatalf("catalog.New() error: %v", err)
	}
	return c
}

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() error: %v", err)
	}
	return c
}

type clauseSpec struct {
	category   models.ClauseCategory
	confidence float64
}

func testClauses(doc *models.Document, specs ...clauseSpec) []models.Clause {
	clauses := make([]models.Clause, len(specs))
	for i, s := range specs {
		clauses[i] = models.Clause{
			ID:                       models.ClauseID(doc.ID, i),
			DocumentID:               doc.ID,
			SequenceIndex:            i,
			Text:                     "clause text",
			Category:                 s.category,
			ClassificationConfidence: s.confidence,
		}
	}
	return clauses
}
