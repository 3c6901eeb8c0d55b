// Package analysis implements the contract analysis pipeline:
// normalize, segment, classify, evaluate compliance, score risk and aggregate.
package analysis

import (
	"context"
	"fmt"
	"time"

	"clausecheck-backend/catalog"
	"clausecheck-backend/llm"
	"clausecheck-backend/models"

	"github.com/google/uuid"
)

const (
	DefaultMaxConcurrency = 8
	DefaultCallTimeout    = 30 * time.Second
)

// Analyzer runs the full pipeline for one document at a time.
// It holds no per-request state and is safe for concurrent use.
type Analyzer struct {
	service             llm.Service
	catalog             *catalog.Catalog
	maxConcurrency      int
	callTimeout         time.Duration
	minDocumentLength   int
	minClauseLength     int
	minClauseCount      int
	segmentChunkSize    int
	confidenceThreshold float64
	keyIssueLimit       int
	weights             RiskWeights
	now                 func() time.Time
	cache               *spanCache
}

// Option configures an Analyzer
type Option func(*Analyzer)

// WithMaxConcurrency bounds the number of in-flight service calls per document
func WithMaxConcurrency(n int) Option {
	return func(a *Analyzer) {
		if n > 0 {
			a.maxConcurrency = n
		}
	}
}

// WithCallTimeout sets the timeout of each service call
func WithCallTimeout(d time.Duration) Option {
	return func(a *Analyzer) {
		a.callTimeout = d
	}
}

func WithMinDocumentLength(n int) Option {
	return func(a *Analyzer) {
		a.minDocumentLength = n
	}
}

func WithMinClauseLength(n int) Option {
	return func(a *Analyzer) {
		a.minClauseLength = n
	}
}

// WithMinClauseCount sets how many structural clauses are needed before
// segmentation falls back to the service
func WithMinClauseCount(n int) Option {
	return func(a *Analyzer) {
		a.minClauseCount = n
	}
}

// WithSegmentChunkSize bounds the text sent in one segmentation call
func WithSegmentChunkSize(n int) Option {
	return func(a *Analyzer) {
		a.segmentChunkSize = n
	}
}

func WithConfidenceThreshold(t float64) Option {
	return func(a *Analyzer) {
		a.confidenceThreshold = t
	}
}

// WithKeyIssueLimit sets how many key issues a report lists. Negative means all.
func WithKeyIssueLimit(n int) Option {
	return func(a *Analyzer) {
		a.keyIssueLimit = n
	}
}

func WithRiskWeights(w RiskWeights) Option {
	return func(a *Analyzer) {
		a.weights = w
	}
}

// WithClock overrides the clock used for report timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) {
		a.now = now
	}
}

// NewAnalyzer creates an Analyzer backed by the given service and catalog
func NewAnalyzer(service llm.Service, cat *catalog.Catalog, opts ...Option) *Analyzer {
	a := &Analyzer{
		service:             service,
		catalog:             cat,
		maxConcurrency:      DefaultMaxConcurrency,
		callTimeout:         DefaultCallTimeout,
		minDocumentLength:   DefaultMinDocumentLength,
		minClauseLength:     DefaultMinClauseLength,
		minClauseCount:      DefaultMinClauseCount,
		segmentChunkSize:    DefaultSegmentChunkSize,
		confidenceThreshold: DefaultConfidenceThreshold,
		keyIssueLimit:       DefaultKeyIssueLimit,
		weights:             DefaultRiskWeights(),
		now:                 time.Now,
		cache:               newSpanCache(segmentCacheSize),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input is one document to analyze
type Input struct {
	// DocumentID is generated when zero
	DocumentID  uuid.UUID
	FileName    string
	Text        string
	Regulations []string
}

// ResolveRegulations validates requested regulation codes against the catalog
func (a *Analyzer) ResolveRegulations(codes []string) ([]models.Regulation, error) {
	return a.catalog.Resolve(codes)
}

// Catalog returns the regulation catalog the analyzer checks against
func (a *Analyzer) Catalog() *catalog.Catalog {
	return a.catalog
}

// Analyze runs the pipeline. Errors are AnalysisErrors for document-level failures,
// or the context's error when ctx is cancelled.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (*models.AnalysisReport, error) {
	regulations, err := a.ResolveRegulations(in.Regulations)
	if err != nil {
		return nil, err
	}

	normalized, err := Normalize(in.Text, a.minDocumentLength)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		ID:             in.DocumentID,
		FileName:       in.FileName,
		RawText:        in.Text,
		NormalizedText: normalized,
	}
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}

	segmenter := &Segmenter{
		service:         a.service,
		timeout:         a.callTimeout,
		minClauseLength: a.minClauseLength,
		minClauseCount:  a.minClauseCount,
		chunkSize:       a.segmentChunkSize,
		cache:           a.cache,
	}
	var clauses []models.Clause
	for clause := range segmenter.Segment(ctx, doc) {
		clauses = append(clauses, clause)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(clauses) == 0 {
		return nil, models.NewError(models.KindInvalidDocument, "no clauses could be segmented from %q", in.FileName)
	}

	classifier := &Classifier{
		service:   a.service,
		timeout:   a.callTimeout,
		limit:     a.maxConcurrency,
		threshold: a.confidenceThreshold,
	}
	clauses, failed := classifier.Classify(ctx, clauses)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	engine := &RuleEngine{
		service:      a.service,
		timeout:      a.callTimeout,
		limit:        a.maxConcurrency,
		unclassified: len(failed),
	}
	results := engine.Evaluate(ctx, regulations, clauses)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	risk := NewRiskScorer(a.weights).Score(regulations, clauses, results)

	degraded := append([]string(nil), segmenter.Degraded()...)
	for _, idx := range failed {
		degraded = append(degraded, fmt.Sprintf("classification clause %d", idx))
	}

	aggregator := &Aggregator{keyIssues: a.keyIssueLimit, now: a.now}
	report := aggregator.Aggregate(doc, regulations, clauses, results, risk, degraded)
	doc.AnalysisTimestamp = report.AnalysisTimestamp
	return report, nil
}
