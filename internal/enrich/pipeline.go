package enrich

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"samscope/internal/models"
	"samscope/internal/storage"
)

// Result is the single terminal event of a pipeline run: either the full
// enriched response or an error. Only a search-stage storage failure sets
// Err; model failures degrade inside their own stage.
type Result struct {
	models.EnrichedResponse
	Err error
}

// Pipeline runs the four-stage enriched search: rewrite the query, search
// the store with the original filter, score the results, then summarize
// the top results and extract entities. Stages execute strictly in order
// on one background goroutine per run; there is no retry, fan-out, or
// mid-flight cancellation beyond context propagation.
type Pipeline struct {
	enricher    *Enricher
	store       storage.Storage
	searchLimit int
	logger      *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithPipelineLogger sets a logger for run logging.
func WithPipelineLogger(l *zap.Logger) PipelineOption {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline. searchLimit caps how many records the
// search stage feeds into the analysis stages; values <= 0 use 100.
func NewPipeline(enricher *Enricher, store storage.Storage, searchLimit int, opts ...PipelineOption) *Pipeline {
	if searchLimit <= 0 {
		searchLimit = 100
	}
	p := &Pipeline{enricher: enricher, store: store, searchLimit: searchLimit}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run starts one pipeline run in the background and returns a channel that
// delivers exactly one Result. The caller's goroutine is never blocked on
// model round-trips.
func (p *Pipeline) Run(ctx context.Context, filter *models.Filter) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		ch <- p.run(ctx, filter)
		close(ch)
	}()
	return ch
}

func (p *Pipeline) run(ctx context.Context, filter *models.Filter) Result {
	runID := uuid.NewString()
	log := p.logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("run_id", runID))

	query := filter.Serialize()
	enhanced := p.enricher.EnhanceQuery(ctx, query)
	log.Info("query enhanced", zap.String("enhanced_query", enhanced))

	// The search uses the original filter, not the rewritten text; the
	// rewrite only informs the analysis prompt and the caller's display.
	contracts, err := p.store.Search(ctx, filter, p.searchLimit, 0)
	if err != nil {
		log.Error("pipeline search failed", zap.Error(err))
		return Result{
			EnrichedResponse: models.EnrichedResponse{RunID: runID},
			Err:              fmt.Errorf("enriched search failed: %w", err),
		}
	}
	log.Info("initial search complete", zap.Int("contracts", len(contracts)))

	analyzed := p.enricher.AnalyzeContracts(ctx, contracts, enhanced)
	log.Info("analysis complete", zap.Int("contracts", len(analyzed)))

	summary := p.enricher.SummarizeResults(ctx, analyzed)
	entities := p.enricher.ExtractEntities(ctx, contracts)
	log.Info("summary and entity extraction complete")

	return Result{
		EnrichedResponse: models.EnrichedResponse{
			RunID:         runID,
			EnhancedQuery: enhanced,
			Contracts:     analyzed,
			Summary:       summary,
			Entities:      entities,
		},
	}
}
