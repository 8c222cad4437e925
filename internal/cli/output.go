// Package cli provides CLI output writers for SAMScope.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"samscope/internal/models"
	"samscope/pkg/utils"
)

// OutputFormat is the format for result output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat returns the OutputFormat for name.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(name) {
	case OutputText, OutputJSON:
		return OutputFormat(name), nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", name)
	}
}

// WriteSearchResults writes a basic search response to w in the given format.
func WriteSearchResults(w io.Writer, response *models.SearchResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d contracts (showing %d from offset %d)\n\n",
		response.Total, len(response.Contracts), response.Offset)
	for _, c := range response.Contracts {
		writeContract(w, c)
	}
	return nil
}

// WriteEnrichedResults writes an enrichment pipeline result to w.
func WriteEnrichedResults(w io.Writer, response *models.EnrichedResponse, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, response)
	}
	fmt.Fprintf(w, "\nEnhanced query: %s\n", response.EnhancedQuery)
	fmt.Fprintf(w, "\nSummary:\n%s\n\n", response.Summary)
	for _, a := range response.Contracts {
		writeContract(w, a.Contract)
		if a.Analyzed {
			fmt.Fprintf(w, "  Relevance: %.0f  %s\n", a.RelevanceScore, a.Explanation)
		} else {
			fmt.Fprintln(w, "  Relevance: not analyzed")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, "Extracted entities:")
	for _, category := range models.EntityCategories {
		fmt.Fprintf(w, "%s:\n", category)
		for _, entity := range response.Entities[category] {
			fmt.Fprintf(w, "- %s\n", entity)
		}
	}
	return nil
}

func writeContract(w io.Writer, c *models.Contract) {
	fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
	fmt.Fprintf(w, "%s  %s\n", c.NoticeID, c.Title)
	fmt.Fprintf(w, "Agency: %s | Posted: %s", c.Agency, c.DatePosted)
	if c.SetAside != "" {
		fmt.Fprintf(w, " | Set-aside: %s", c.SetAside)
	}
	if c.AwardValue != 0 {
		fmt.Fprintf(w, " | Value: $%.2f", c.AwardValue)
	}
	fmt.Fprintln(w)
	if c.Synopsis != "" {
		fmt.Fprintf(w, "%s\n", utils.Truncate(c.Synopsis, 200))
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
