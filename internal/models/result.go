package models

// SearchRequest is a paginated search over the contract store.
type SearchRequest struct {
	Filter *Filter `json:"filter,omitempty"`
	Limit  int     `json:"limit,omitempty"`
	Offset int     `json:"offset,omitempty"`
}

// SearchResponse is the response for a basic (non-enriched) search.
type SearchResponse struct {
	Contracts []*Contract `json:"contracts"`
	Total     int         `json:"total"`
	Limit     int         `json:"limit"`
	Offset    int         `json:"offset"`
}

// EnrichedResponse is the terminal result of one enrichment pipeline run:
// the rewritten query, the annotated search results, a prose summary of
// the top results, and the categorized entity map.
type EnrichedResponse struct {
	RunID         string              `json:"run_id"`
	EnhancedQuery string              `json:"enhanced_query"`
	Contracts     []AnnotatedContract `json:"contracts"`
	Summary       string              `json:"summary"`
	Entities      Entities            `json:"entities"`
}
