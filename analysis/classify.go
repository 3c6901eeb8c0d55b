package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"clausecheck-backend/llm"
	"clausecheck-backend/models"
)

// DefaultConfidenceThreshold is the confidence below which a clause stays unclassified
const DefaultConfidenceThreshold = 0.5

const classifySchema = `{"category": "<one category from the list>", "confidence": <number between 0.0 and 1.0>}`

// Classifier assigns a taxonomy category to every clause
type Classifier struct {
	service   llm.Service
	timeout   time.Duration
	limit     int
	threshold float64
}

// Classify returns a copy of clauses with category and confidence set,
// plus the sequence indexes whose classification failed.
// Output order and length always match the input.
func (c *Classifier) Classify(ctx context.Context, clauses []models.Clause) ([]models.Clause, []int) {
	out := make([]models.Clause, len(clauses))
	for i, clause := range clauses {
		clause.Category = models.CategoryUnclassified
		clause.ClassificationConfidence = 0
		out[i] = clause
	}

	failed := make([]bool, len(out))
	forEach(ctx, c.limit, len(out), func(ctx context.Context, i int) {
		category, confidence, err := c.classifyOne(ctx, out[i].Text)
		if err != nil {
			log.Printf("Warning: failed to classify clause %d: %v", out[i].SequenceIndex, err)
			failed[i] = true
			return
		}
		if confidence < c.threshold {
			return
		}
		out[i].Category = category
		out[i].ClassificationConfidence = confidence
	})

	var degraded []int
	for i, f := range failed {
		if f {
			degraded = append(degraded, out[i].SequenceIndex)
		}
	}
	return out, degraded
}

func (c *Classifier) classifyOne(ctx context.Context, text string) (models.ClauseCategory, float64, error) {
	raw, err := callService(ctx, c.service, c.timeout, llm.Request{
		Task:        llm.TaskClassify,
		Instruction: classifyInstruction(),
		Input:       text,
		SchemaHint:  classifySchema,
	})
	if err != nil {
		return models.CategoryUnclassified, 0, err
	}

	var resp struct {
		Category   string    `json:"category"`
		Confidence flexFloat `json:"confidence"`
	}
	if err := llm.DecodeJSON(raw, &resp); err != nil {
		return models.CategoryUnclassified, 0, fmt.Errorf("unparseable classification: %w", err)
	}
	if models.DeclinesCategory(resp.Category) {
		return models.CategoryUnclassified, 0, nil
	}
	category, ok := models.ParseCategory(resp.Category)
	if !ok {
		return models.CategoryUnclassified, 0, fmt.Errorf("unknown category %q", resp.Category)
	}
	return category, resp.Confidence.unit(), nil
}

func classifyInstruction() string {
	var b strings.Builder
	b.WriteString("Classify the contract clause below into exactly one of these categories:\n")
	for _, category := range models.Taxonomy {
		b.WriteString("- ")
		b.WriteString(string(category))
		b.WriteByte('\n')
	}
	b.WriteString("Answer \"unclassified\" when none of them applies.\n")
	b.WriteString("Report how confident you are that the category is correct.")
	return b.String()
}

// flexFloat accepts numbers, numeric strings and percentages
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = 0
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "%")
		v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return fmt.Errorf("invalid confidence %q", s)
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// unit returns the value clamped to [0, 1], treating values up to 100 as percentages
func (f flexFloat) unit() float64 {
	v := float64(f)
	if v > 1 && v <= 100 {
		v /= 100
	}
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
