package analysis

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"clausecheck-backend/llm"
	"clausecheck-backend/models"

	"github.com/google/uuid"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name           string
		resp           llm.StubResponse
		wantCategory   models.ClauseCategory
		wantConfidence float64
		wantFailed     bool
	}{
		{
			name:           "confident",
			resp:           llm.Text(`{"category": "security", "confidence": 0.83}`),
			wantCategory:   models.CategorySecurity,
			wantConfidence: 0.83,
		},
		{
			name:           "alias and percentage",
			resp:           llm.Text(`{"category": "Intellectual Property", "confidence": 85}`),
			wantCategory:   models.CategoryIPRights,
			wantConfidence: 0.85,
		},
		{
			name:           "string confidence",
			resp:           llm.Text(`{"category": "IP", "confidence": "0.7"}`),
			wantCategory:   models.CategoryIPRights,
			wantConfidence: 0.7,
		},
		{
			name:         "below threshold",
			resp:         llm.Text(`{"category": "payment", "confidence": 0.3}`),
			wantCategory: models.CategoryUnclassified,
		},
		{
			name:         "explicitly unclassified",
			resp:         llm.Text(`{"category": "unclassified", "confidence": 0.95}`),
			wantCategory: models.CategoryUnclassified,
		},
		{
			name:         "other",
			resp:         llm.Text(`{"category": "Other", "confidence": 0.6}`),
			wantCategory: models.CategoryUnclassified,
		},
		{
			name:         "unknown category",
			resp:         llm.Text(`{"category": "weather", "confidence": 0.99}`),
			wantCategory: models.CategoryUnclassified,
			wantFailed:   true,
		},
		{
			name:         "unparseable",
			resp:         llm.Text("This clause is about payments."),
			wantCategory: models.CategoryUnclassified,
			wantFailed:   true,
		},
		{
			name:         "timeout",
			resp:         llm.Failure(models.KindServiceTimeout),
			wantCategory: models.CategoryUnclassified,
			wantFailed:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := llm.NewStub(func(llm.Request) llm.StubResponse { return tt.resp })
			c := &Classifier{service: svc, limit: 2, threshold: DefaultConfidenceThreshold}
			doc := &models.Document{ID: uuid.New()}

			got, failed := c.Classify(context.Background(), testClauses(doc, clauseSpec{}))

			if got[0].Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", got[0].Category, tt.wantCategory)
			}
			if got[0].ClassificationConfidence != tt.wantConfidence {
				t.Errorf("confidence = %v, want %v", got[0].ClassificationConfidence, tt.wantConfidence)
			}
			if (len(failed) > 0) != tt.wantFailed {
				t.Errorf("failed = %v, want failure %v", failed, tt.wantFailed)
			}
		})
	}
}

func TestClassify_CorrelatesByIndex(t *testing.T) {
	categories := []models.ClauseCategory{
		models.CategoryPayment, models.CategorySecurity, models.CategoryLiability,
		models.CategoryTermination, models.CategoryConfidentiality, models.CategoryDataPrivacy,
	}
	svc := llm.NewStub(func(req llm.Request) llm.StubResponse {
		var i int
		fmt.Sscanf(req.Input, "clause %d", &i)
		return llm.Text(fmt.Sprintf(`{"category": %q, "confidence": 0.9}`, categories[i%len(categories)]))
	})
	c := &Classifier{service: svc, limit: 4, threshold: DefaultConfidenceThreshold}

	doc := &models.Document{ID: uuid.New()}
	clauses := make([]models.Clause, 40)
	for i := range clauses {
		clauses[i] = models.Clause{ID: models.ClauseID(doc.ID, i), SequenceIndex: i, Text: fmt.Sprintf("clause %d", i)}
	}

	got, failed := c.Classify(context.Background(), clauses)

	if len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
	for i, clause := range got {
		if clause.SequenceIndex != i || clause.Category != categories[i%len(categories)] {
			t.Errorf("clause %d = %+v, want category %q", i, clause, categories[i%len(categories)])
		}
	}
	if svc.TaskCalls(llm.TaskClassify) != len(clauses) {
		t.Errorf("classify calls = %d, want %d", svc.TaskCalls(llm.TaskClassify), len(clauses))
	}
}

func TestClassify_PromptListsTaxonomy(t *testing.T) {
	instruction := classifyInstruction()
	for _, category := range models.Taxonomy {
		if !strings.Contains(instruction, string(category)) {
			t.Errorf("instruction does not list %q", category)
		}
	}
}
