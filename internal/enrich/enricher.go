package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"samscope/internal/models"
)

// failedExplanation marks a submitted contract whose analysis segment
// could not be parsed.
const failedExplanation = "Analysis failed"

// failedSummary is returned when the summarization call fails.
const failedSummary = "Unable to generate summary due to an error."

// Limits bounds how many records each stage submits to the model and the
// output-token cap per request shape.
type Limits struct {
	AnalyzeRecords int
	SummaryRecords int
	EntityRecords  int
	EnhanceTokens  int
	AnalyzeTokens  int
	SummaryTokens  int
	EntityTokens   int
}

// DefaultLimits are the stock caps: 10 records analyzed, 5 summarized,
// 5 mined for entities.
func DefaultLimits() Limits {
	return Limits{
		AnalyzeRecords: 10,
		SummaryRecords: 5,
		EntityRecords:  5,
		EnhanceTokens:  100,
		AnalyzeTokens:  1000,
		SummaryTokens:  200,
		EntityTokens:   500,
	}
}

// Enricher implements the four model-backed operations. Every operation
// degrades to a usable fallback on model failure instead of propagating
// the error; callers always get a well-formed value.
type Enricher struct {
	model  Completer
	limits Limits
	logger *zap.Logger
}

// Option configures an Enricher.
type Option func(*Enricher)

// WithLogger sets a logger for stage logging.
func WithLogger(l *zap.Logger) Option {
	return func(e *Enricher) { e.logger = l }
}

// NewEnricher creates an enricher using model for completions.
func NewEnricher(model Completer, limits Limits, opts ...Option) *Enricher {
	e := &Enricher{model: model, limits: limits}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EnhanceQuery asks the model to rewrite a search query for government
// contract matching. On any model failure the original query is returned
// unchanged.
func (e *Enricher) EnhanceQuery(ctx context.Context, query string) string {
	prompt := "Enhance the following search query for government contracts: " + query
	out, err := e.model.Complete(ctx, prompt, e.limits.EnhanceTokens)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("query enhancement failed, using original query", zap.Error(err))
		}
		return query
	}
	return strings.TrimSpace(out)
}

// AnalyzeContracts scores each contract's relevance to query. At most
// Limits.AnalyzeRecords contracts are submitted to the model; the rest are
// passed through unanalyzed. Exactly one annotated record is returned per
// input record, in input order. If the model call fails, every record is
// returned unanalyzed.
func (e *Enricher) AnalyzeContracts(ctx context.Context, contracts []*models.Contract, query string) []models.AnnotatedContract {
	annotated := make([]models.AnnotatedContract, len(contracts))
	for i, c := range contracts {
		annotated[i] = models.AnnotatedContract{Contract: c}
	}
	if len(contracts) == 0 {
		return annotated
	}

	submitted := len(contracts)
	if submitted > e.limits.AnalyzeRecords {
		submitted = e.limits.AnalyzeRecords
	}

	var prompt strings.Builder
	prompt.WriteString("Analyze the relevance of the following contracts to this query: ")
	prompt.WriteString(query)
	prompt.WriteString("\n\n")
	for _, c := range contracts[:submitted] {
		b, err := json.Marshal(c.ToRaw())
		if err != nil {
			continue
		}
		prompt.WriteString("Contract: ")
		prompt.Write(b)
		prompt.WriteString("\n")
	}
	prompt.WriteString("\nProvide a relevance score (0-100) and brief explanation for each contract.")

	out, err := e.model.Complete(ctx, prompt.String(), e.limits.AnalyzeTokens)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("contract analysis failed, returning unscored results", zap.Error(err))
		}
		return annotated
	}

	segments := splitSegments(out)
	for i := 0; i < submitted; i++ {
		annotated[i].Analyzed = true
		if i >= len(segments) {
			annotated[i].Explanation = failedExplanation
			continue
		}
		score, explanation, err := parseSegment(segments[i])
		if err != nil {
			if e.logger != nil {
				e.logger.Warn("failed to parse analysis segment", zap.Int("index", i), zap.Error(err))
			}
			annotated[i].Explanation = failedExplanation
			continue
		}
		annotated[i].RelevanceScore = score
		annotated[i].Explanation = explanation
	}
	return annotated
}

// SummarizeResults asks the model for a prose summary of the top analyzed
// results (title, agency, score). Returns a fixed placeholder on failure.
func (e *Enricher) SummarizeResults(ctx context.Context, analyzed []models.AnnotatedContract) string {
	top := analyzed
	if len(top) > e.limits.SummaryRecords {
		top = top[:e.limits.SummaryRecords]
	}

	var prompt strings.Builder
	prompt.WriteString("Summarize the following government contract search results:\n\n")
	for _, a := range top {
		fmt.Fprintf(&prompt, "Title: %s\n", a.Title)
		fmt.Fprintf(&prompt, "Agency: %s\n", a.Agency)
		if a.Analyzed {
			fmt.Fprintf(&prompt, "Relevance: %.0f\n\n", a.RelevanceScore)
		} else {
			prompt.WriteString("Relevance: N/A\n\n")
		}
	}
	prompt.WriteString("Summary:")

	out, err := e.model.Complete(ctx, prompt.String(), e.limits.SummaryTokens)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("summarization failed", zap.Error(err))
		}
		return failedSummary
	}
	return strings.TrimSpace(out)
}

// ExtractEntities asks the model for categorized entities across the first
// Limits.EntityRecords contracts. The response is parsed line by line: a
// line exactly matching a category name switches the active bucket, any
// other non-empty line is appended to it. All categories are present in
// the result; a failed call yields an empty-but-complete map.
func (e *Enricher) ExtractEntities(ctx context.Context, contracts []*models.Contract) models.Entities {
	entities := models.NewEntities()

	limited := contracts
	if len(limited) > e.limits.EntityRecords {
		limited = limited[:e.limits.EntityRecords]
	}

	var prompt strings.Builder
	prompt.WriteString("Extract key entities from the following government contracts. ")
	prompt.WriteString("Focus on Organizations, Locations, Technologies, Key Personnel, and Important Dates.\n\n")
	for _, c := range limited {
		b, err := json.Marshal(c.ToRaw())
		if err != nil {
			continue
		}
		prompt.WriteString("Contract: ")
		prompt.Write(b)
		prompt.WriteString("\n\n")
	}
	prompt.WriteString("Extracted Entities:")

	out, err := e.model.Complete(ctx, prompt.String(), e.limits.EntityTokens)
	if err != nil {
		if e.logger != nil {
			e.logger.Warn("entity extraction failed", zap.Error(err))
		}
		return entities
	}

	current := ""
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		line = strings.TrimSpace(line)
		if _, ok := entities[line]; ok {
			current = line
			continue
		}
		if current != "" && line != "" {
			entities[current] = append(entities[current], line)
		}
	}
	return entities
}

// splitSegments breaks an analysis response into per-contract segments on
// blank lines.
func splitSegments(text string) []string {
	parts := strings.Split(strings.TrimSpace(text), "\n\n")
	segments := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// parseSegment extracts the numeric score token and explanation substring
// from one per-contract segment shaped like
// "Contract N: <score> ...: <explanation>".
func parseSegment(segment string) (float64, string, error) {
	parts := strings.SplitN(segment, ":", 3)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("no score delimiter in segment")
	}
	fields := strings.Fields(parts[1])
	if len(fields) == 0 {
		return 0, "", fmt.Errorf("no score token in segment")
	}
	token := strings.Trim(fields[0], ".,;)")
	token = strings.TrimSuffix(token, "/100")
	score, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, "", fmt.Errorf("unparsable score %q: %w", fields[0], err)
	}
	explanation := ""
	if len(parts) == 3 {
		explanation = strings.TrimSpace(parts[2])
	}
	return score, explanation, nil
}
