package analysis

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"clausecheck-backend/llm"
	"clausecheck-backend/models"

	"github.com/google/uuid"
)

func segmentAll(t *testing.T, s *Segmenter, text string) []models.Clause {
	t.Helper()
	doc := &models.Document{ID: uuid.New(), NormalizedText: text}
	var clauses []models.Clause
	for clause := range s.Segment(context.Background(), doc) {
		clauses = append(clauses, clause)
	}
	return clauses
}

func newTestSegmenter(svc llm.Service) *Segmenter {
	return &Segmenter{
		service:         svc,
		minClauseLength: DefaultMinClauseLength,
		minClauseCount:  DefaultMinClauseCount,
		cache:           newSpanCache(4),
	}
}

func clauseTexts(clauses []models.Clause) []string {
	texts := make([]string, len(clauses))
	for i, c := range clauses {
		texts[i] = c.Text
	}
	return texts
}

func assertContiguous(t *testing.T, text string, clauses []models.Clause) {
	t.Helper()
	cursor := 0
	for i, clause := range clauses {
		if clause.SequenceIndex != i {
			t.Errorf("clause %d has sequence index %d", i, clause.SequenceIndex)
		}
		idx := strings.Index(text[cursor:], clause.Text)
		if idx < 0 {
			t.Fatalf("clause %d %q is not a substring of the text after offset %d", i, clause.Text, cursor)
		}
		cursor += idx + len(clause.Text)
	}
}

func TestSegment_StructuralHeadings(t *testing.T) {
	text := "1. Definitions. The following terms apply throughout this agreement.\n" +
		"2. Data Processing. The processor shall process personal data only on documented instructions.\n" +
		"(a) The processor shall keep a record of all processing activities.\n" +
		"3. Termination. Either party may terminate this agreement with 30 days\n" +
		"notice in writing to the other party."
	svc := contractService(nil)

	clauses := segmentAll(t, newTestSegmenter(svc), text)

	if len(clauses) != 4 {
		t.Fatalf("got %d clauses, want 4: %q", len(clauses), clauseTexts(clauses))
	}
	assertContiguous(t, text, clauses)
	if !strings.HasPrefix(clauses[2].Text, "(a)") {
		t.Errorf("clause 2 = %q, want the lettered item", clauses[2].Text)
	}
	if !strings.HasSuffix(clauses[3].Text, "to the other party.") {
		t.Errorf("wrapped line was split from its clause: %q", clauses[3].Text)
	}
	if svc.Calls() != 0 {
		t.Errorf("structural segmentation made %d service calls", svc.Calls())
	}
}

func TestSegment_ShortBlocksAreMerged(t *testing.T) {
	text := "ARTICLE I\n\nThe supplier shall deliver the goods on time and in full.\n\n" +
		"PAYMENT\n\nThe customer shall pay every invoice within thirty days.\n\n" +
		"The agreement is governed by the laws of Ireland.\n\nSigned"

	clauses := segmentAll(t, newTestSegmenter(nil), text)

	if len(clauses) != 3 {
		t.Fatalf("got %d clauses, want 3: %q", len(clauses), clauseTexts(clauses))
	}
	assertContiguous(t, text, clauses)
	if !strings.HasPrefix(clauses[0].Text, "ARTICLE I") || !strings.HasPrefix(clauses[1].Text, "PAYMENT") {
		t.Errorf("headings were not merged forward: %q", clauseTexts(clauses))
	}
	if !strings.HasSuffix(clauses[2].Text, "Signed") {
		t.Errorf("trailing short block was not merged back: %q", clauses[2].Text)
	}
}

func TestSegment_ServiceFallback(t *testing.T) {
	text := "The supplier shall deliver the goods on time. The customer shall pay within thirty days. Either party may terminate for material breach."
	svc := llm.NewStub(func(req llm.Request) llm.StubResponse {
		return llm.Text(`["The supplier shall deliver the goods on time.", "The customer shall pay within thirty days.", "Either party may terminate for material breach."]`)
	})
	s := newTestSegmenter(svc)

	clauses := segmentAll(t, s, text)
	if len(clauses) != 3 {
		t.Fatalf("got %d clauses, want 3", len(clauses))
	}
	assertContiguous(t, text, clauses)
	if svc.TaskCalls(llm.TaskSegment) != 1 {
		t.Errorf("segment calls = %d, want 1", svc.TaskCalls(llm.TaskSegment))
	}

	// cached by text digest
	segmentAll(t, s, text)
	if svc.TaskCalls(llm.TaskSegment) != 1 {
		t.Errorf("segment calls after cache hit = %d, want 1", svc.TaskCalls(llm.TaskSegment))
	}
}

func TestSegment_InvalidServiceOutputFallsBackToParagraphs(t *testing.T) {
	text := "The supplier shall deliver the goods on time and the customer shall pay within thirty days."
	tests := []struct {
		name string
		resp llm.StubResponse
	}{
		{name: "rewritten clause", resp: llm.Text(`{"clauses": ["The supplier delivers goods.", "The customer pays."]}`)},
		{name: "out of order", resp: llm.Text(`{"clauses": ["the customer shall pay within thirty days.", "The supplier shall deliver the goods on time"]}`)},
		{name: "not json", resp: llm.Text("I cannot help with that.")},
		{name: "service down", resp: llm.Failure(models.KindServiceUnavailable)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := llm.NewStub(func(llm.Request) llm.StubResponse { return tt.resp })
			clauses := segmentAll(t, newTestSegmenter(svc), text)
			if len(clauses) != 1 || clauses[0].Text != text {
				t.Errorf("got %q, want the single paragraph", clauseTexts(clauses))
			}
		})
	}
}

func TestSegment_UncoveredTextIsKept(t *testing.T) {
	text := "The supplier shall deliver the goods on time. The customer shall pay within thirty days. " +
		"The processor shall delete all personal data on termination."
	svc := llm.NewStub(func(llm.Request) llm.StubResponse {
		return llm.Text(`{"clauses": ["The supplier shall deliver the goods on time.", "The customer shall pay within thirty days."]}`)
	})
	s := newTestSegmenter(svc)

	clauses := segmentAll(t, s, text)

	if len(clauses) != 3 {
		t.Fatalf("got %d clauses, want 3: %q", len(clauses), clauseTexts(clauses))
	}
	assertContiguous(t, text, clauses)
	if clauses[2].Text != "The processor shall delete all personal data on termination." {
		t.Errorf("tail clause = %q", clauses[2].Text)
	}
	if got := s.Degraded(); len(got) != 1 || got[0] != "segmentation" {
		t.Errorf("degraded = %q, want segmentation", got)
	}
}

func TestSegment_FallbackIsReportedAsDegraded(t *testing.T) {
	text := "The supplier shall deliver the goods on time and the customer shall pay within thirty days."
	svc := llm.NewStub(func(llm.Request) llm.StubResponse { return llm.Failure(models.KindServiceUnavailable) })
	s := newTestSegmenter(svc)

	segmentAll(t, s, text)

	if got := s.Degraded(); len(got) != 1 || got[0] != "segmentation" {
		t.Errorf("degraded = %q, want segmentation", got)
	}

	structural := newTestSegmenter(nil)
	segmentAll(t, structural, threeClauseContract)
	if got := structural.Degraded(); len(got) != 0 {
		t.Errorf("structural segmentation reported degraded sections %q", got)
	}
}

func TestSegment_LongTextIsChunked(t *testing.T) {
	sentences := []string{
		"The supplier shall deliver the goods on time.",
		"The customer shall pay within thirty days.",
		"Either party may terminate for material breach.",
	}
	text := strings.Join(sentences, " ")
	const chunkSize = 60

	var longest int
	svc := llm.NewStub(func(req llm.Request) llm.StubResponse {
		longest = max(longest, len(req.Input))
		var found []string
		for _, sentence := range sentences {
			if strings.Contains(req.Input, sentence) {
				found = append(found, `"`+sentence+`"`)
			}
		}
		return llm.Text(`{"clauses": [` + strings.Join(found, ", ") + `]}`)
	})
	s := newTestSegmenter(svc)
	s.chunkSize = chunkSize

	clauses := segmentAll(t, s, text)

	if got := clauseTexts(clauses); len(got) != 3 || got[2] != sentences[2] {
		t.Fatalf("got %q, want the three sentences", got)
	}
	assertContiguous(t, text, clauses)
	if calls := svc.TaskCalls(llm.TaskSegment); calls != 3 {
		t.Errorf("segment calls = %d, want 3", calls)
	}
	if longest > chunkSize {
		t.Errorf("a segmentation call carried %d bytes, limit %d", longest, chunkSize)
	}
	if len(s.Degraded()) != 0 {
		t.Errorf("fully covered text reported degraded sections %q", s.Degraded())
	}
}

func TestChunkText(t *testing.T) {
	text := strings.Repeat("word ", 50) + "\n\n" + strings.Repeat("más ", 40)
	chunks := chunkText(text, 64)

	if chunks[0].start != 0 || chunks[len(chunks)-1].end != len(text) {
		t.Fatalf("chunks %v do not cover the text", chunks)
	}
	for i, c := range chunks {
		if c.end-c.start > 64 {
			t.Errorf("chunk %d is %d bytes", i, c.end-c.start)
		}
		if i > 0 && c.start != chunks[i-1].end {
			t.Errorf("chunk %d starts at %d, previous ended at %d", i, c.start, chunks[i-1].end)
		}
		if !utf8.ValidString(text[c.start:c.end]) {
			t.Errorf("chunk %d splits a rune", i)
		}
	}
}

func TestSegment_SingleUse(t *testing.T) {
	doc := &models.Document{ID: uuid.New(), NormalizedText: threeClauseContract}
	seq := newTestSegmenter(nil).Segment(context.Background(), doc)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	if first != 3 || second != 0 {
		t.Errorf("first pass = %d, second pass = %d, want 3 and 0", first, second)
	}
}

func TestSegment_ClauseIDsAreStable(t *testing.T) {
	doc := &models.Document{ID: uuid.New(), NormalizedText: threeClauseContract}
	s := newTestSegmenter(nil)

	var a, b []models.Clause
	for c := range s.Segment(context.Background(), doc) {
		a = append(a, c)
	}
	for c := range s.Segment(context.Background(), doc) {
		b = append(b, c)
	}
	for i := range a {
		if a[i].ID != b[i].ID {
			t.Errorf("clause %d id changed between runs", i)
		}
		if a[i].Category != models.CategoryUnclassified {
			t.Errorf("clause %d category = %q before classification", i, a[i].Category)
		}
	}
}
