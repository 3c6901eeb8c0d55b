package analysis

import (
	"context"
	"iter"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"clausecheck-backend/llm"
	"clausecheck-backend/models"

	"golang.org/x/crypto/blake2b"
)

const (
	DefaultMinClauseLength = 20
	DefaultMinClauseCount  = 3
	// DefaultSegmentChunkSize bounds the bytes of text sent in one segmentation call
	DefaultSegmentChunkSize = 16000

	segmentCacheSize = 128

	// degradedSegmentation is reported when clause boundaries came from heuristics
	// after the service failed or left text uncovered
	degradedSegmentation = "segmentation"

	segmentInstruction = `Split the contract below into its individual clauses.
Copy every clause VERBATIM from the contract, in document order, without rewording,
summarising, merging or skipping text. Each clause must be an exact excerpt of the input.`
	segmentSchema = `{"clauses": ["<exact clause text>", "..."]}`
)

// headingPattern matches lines that open a new clause: numbered or lettered
// headings, named sections and bullet markers.
var headingPattern = regexp.MustCompile(`^(?:` +
	`(?:\d+(?:\.\d+)*[.)]|\d+(?:\.\d+)+)\s+\S` +
	`|\(\d+\)\s+\S` +
	`|\(?[a-zA-Z][.)]\s+\S` +
	`|\(?[ivxlcdmIVXLCDM]+[.)]\s+\S` +
	`|(?i:section|article|clause|schedule|annex|exhibit)\s+[0-9IVXivx]+\b` +
	`|[-*•‣◦▪]\s+\S` +
	`)`)

// span is a half-open byte range of the normalized text
type span struct {
	start, end int
}

// segmentation is a service result. Partial is set when uncovered text had to
// be split by paragraph.
type segmentation struct {
	spans   []span
	partial bool
}

// Segmenter splits normalized text into clause candidates
type Segmenter struct {
	service         llm.Service
	timeout         time.Duration
	minClauseLength int
	minClauseCount  int
	chunkSize       int
	cache           *spanCache

	degraded []string
}

// Degraded lists the sections of the last segmentation that fell back to heuristics
func (s *Segmenter) Degraded() []string {
	return s.degraded
}

// Segment returns the document's clauses in document order.
// The sequence is single-use: ranging over it a second time yields nothing.
func (s *Segmenter) Segment(ctx context.Context, doc *models.Document) iter.Seq[models.Clause] {
	var once sync.Once
	return func(yield func(models.Clause) bool) {
		used := true
		once.Do(func() { used = false })
		if used {
			return
		}

		text := doc.NormalizedText
		spans, degraded := s.spans(ctx, text)
		s.degraded = degraded
		for i, sp := range spans {
			clause := models.Clause{
				ID:            models.ClauseID(doc.ID, i),
				DocumentID:    doc.ID,
				SequenceIndex: i,
				Text:          text[sp.start:sp.end],
				Category:      models.CategoryUnclassified,
			}
			if !yield(clause) {
				return
			}
		}
	}
}

func (s *Segmenter) spans(ctx context.Context, text string) ([]span, []string) {
	structural := mergeShort(text, splitBlocks(text, true), s.minClauseLength)
	if len(structural) >= s.minClauseCount || s.service == nil {
		return structural, nil
	}

	seg, err := s.serviceSpans(ctx, text)
	if err != nil {
		log.Printf("Warning: %v. Falling back to paragraph splitting.", err)
		return mergeShort(text, splitBlocks(text, false), s.minClauseLength), []string{degradedSegmentation}
	}
	if seg.partial {
		log.Printf("Warning: service segmentation left text uncovered, split the remainder by paragraph")
		return seg.spans, []string{degradedSegmentation}
	}
	return seg.spans, nil
}

// serviceSpans asks the text-understanding service for clause boundaries,
// one chunk of text per call, and checks every returned clause against the text.
func (s *Segmenter) serviceSpans(ctx context.Context, text string) (segmentation, error) {
	key := blake2b.Sum256([]byte(text))
	if cached, ok := s.cache.get(key); ok {
		return cached, nil
	}

	size := s.chunkSize
	if size <= 0 {
		size = DefaultSegmentChunkSize
	}

	var located []span
	for _, chunk := range chunkText(text, size) {
		if err := ctx.Err(); err != nil {
			return segmentation{}, models.WrapError(models.KindSegmentation, err, "segmentation cancelled")
		}
		input := text[chunk.start:chunk.end]
		raw, err := callService(ctx, s.service, s.timeout, llm.Request{
			Task:        llm.TaskSegment,
			Instruction: segmentInstruction,
			Input:       input,
			SchemaHint:  segmentSchema,
		})
		if err != nil {
			return segmentation{}, models.WrapError(models.KindSegmentation, err, "segmentation service call failed")
		}

		var resp struct {
			Clauses []string `json:"clauses"`
		}
		if err := llm.DecodeJSON(raw, &resp); err != nil {
			return segmentation{}, models.WrapError(models.KindSegmentation, err, "unparseable segmentation response")
		}

		spans, err := locateClauses(input, resp.Clauses)
		if err != nil {
			return segmentation{}, err
		}
		for _, sp := range spans {
			located = append(located, span{start: chunk.start + sp.start, end: chunk.start + sp.end})
		}
	}
	if len(located) == 0 {
		return segmentation{}, models.NewError(models.KindSegmentation, "service returned no clauses")
	}

	spans, partial := fillGaps(text, located, s.minClauseLength)
	seg := segmentation{spans: spans, partial: partial}
	s.cache.put(key, seg)
	return seg, nil
}

// locateClauses maps clause texts back onto the text, requiring each to be
// a contiguous substring that starts after the previous one.
func locateClauses(text string, clauses []string) ([]span, error) {
	spans := make([]span, 0, len(clauses))
	cursor := 0
	for i, clause := range clauses {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}
		idx := strings.Index(text[cursor:], clause)
		if idx < 0 {
			return nil, models.NewError(models.KindSegmentation, "clause %d returned by the service is not a contiguous substring of the document", i)
		}
		start := cursor + idx
		spans = append(spans, span{start: start, end: start + len(clause)})
		cursor = start + len(clause)
	}
	return spans, nil
}

// fillGaps adds paragraph spans for any text with letters or digits that the
// located spans do not cover, including the head and the tail.
func fillGaps(text string, located []span, minLen int) ([]span, bool) {
	out := make([]span, 0, len(located))
	partial := false
	cursor := 0

	fill := func(end int) {
		gap := text[cursor:end]
		if strings.IndexFunc(gap, isWordRune) < 0 {
			return
		}
		partial = true
		for _, g := range splitBlocks(gap, false) {
			if sp, ok := trimSpan(text, span{start: cursor + g.start, end: cursor + g.end}); ok {
				out = append(out, sp)
			}
		}
	}

	for _, sp := range located {
		fill(sp.start)
		out = append(out, sp)
		cursor = sp.end
	}
	fill(len(text))
	return mergeShort(text, out, minLen), partial
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func trimSpan(text string, sp span) (span, bool) {
	for sp.start < sp.end && isSpace(text[sp.start]) {
		sp.start++
	}
	for sp.end > sp.start && isSpace(text[sp.end-1]) {
		sp.end--
	}
	return sp, sp.end > sp.start
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// chunkText cuts text into spans of at most size bytes, preferring paragraph,
// line, sentence and word boundaries in that order.
func chunkText(text string, size int) []span {
	var chunks []span
	start := 0
	for len(text)-start > size {
		window := text[start : start+size]
		cut := -1
		for _, sep := range []string{"\n\n", "\n", ". ", " "} {
			if idx := strings.LastIndex(window, sep); idx >= size/2 {
				cut = start + idx + len(sep)
				break
			}
		}
		if cut < 0 {
			cut = start + size
			for cut > start && !utf8.RuneStart(text[cut]) {
				cut--
			}
			if cut == start {
				cut = start + size
			}
		}
		chunks = append(chunks, span{start: start, end: cut})
		start = cut
	}
	return append(chunks, span{start: start, end: len(text)})
}

// splitBlocks splits text at blank lines and, when headings is set, before
// every heading or bullet line.
func splitBlocks(text string, headings bool) []span {
	var spans []span
	start, end := -1, 0
	pos := 0

	for _, line := range strings.Split(text, "\n") {
		lineStart, lineEnd := pos, pos+len(line)
		pos = lineEnd + 1

		if line == "" {
			if start >= 0 {
				spans = append(spans, span{start, end})
				start = -1
			}
			continue
		}
		if headings && start >= 0 && headingPattern.MatchString(line) {
			spans = append(spans, span{start, end})
			start = -1
		}
		if start < 0 {
			start = lineStart
		}
		end = lineEnd
	}
	if start >= 0 {
		spans = append(spans, span{start, end})
	}
	return spans
}

// mergeShort folds blocks shorter than minLen (typically bare headings) into
// the following block, or into the previous one at the end of the text.
func mergeShort(text string, spans []span, minLen int) []span {
	out := make([]span, 0, len(spans))
	pending := -1
	for _, sp := range spans {
		if pending >= 0 {
			sp.start = pending
			pending = -1
		}
		if utf8.RuneCountInString(text[sp.start:sp.end]) < minLen {
			pending = sp.start
			continue
		}
		out = append(out, sp)
	}
	if pending >= 0 {
		last := spans[len(spans)-1].end
		if len(out) > 0 {
			out[len(out)-1].end = last
		} else {
			out = append(out, span{pending, last})
		}
	}
	return out
}

// spanCache is a small FIFO cache of service segmentations keyed by text digest
type spanCache struct {
	mu    sync.Mutex
	items map[[32]byte]segmentation
	order [][32]byte
	size  int
}

func newSpanCache(size int) *spanCache {
	return &spanCache{items: make(map[[32]byte]segmentation), size: size}
}

func (c *spanCache) get(key [32]byte) (segmentation, bool) {
	if c == nil {
		return segmentation{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	seg, ok := c.items[key]
	return seg, ok
}

func (c *spanCache) put(key [32]byte, seg segmentation) {
	if c == nil || c.size <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.items[key]; ok {
		return
	}
	if len(c.order) >= c.size {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[key] = seg
	c.order = append(c.order, key)
}
