package pipeline

import (
	"fmt"
	"time"

	"github.com/Luc0-0/Samarth/internal/model"
)

// citationStatus values recorded on citations.
const (
	statusOK       = "ok"
	statusFallback = "live_unavailable"
)

// buildCitations emits one citation per dataset actually touched,
// unique by dataset title, in execution order.
func buildCitations(results []Executed) []model.Citation {
	seen := map[string]bool{}
	var out []model.Citation
	for _, res := range results {
		title := res.Planned.Source.Dataset.Title
		if seen[title] {
			continue
		}
		seen[title] = true
		out = append(out, res.Planned.Source.Citation(res.QueryText, statusOK))
	}
	return out
}

// failedCitation records a dataset that was attempted but could not be
// served, so fallback answers still cite the source that failed.
func failedCitation(src Source, reason string) model.Citation {
	return src.Citation(fmt.Sprintf("live fetch failed: %s", reason), statusFallback)
}

// buildProvenance assembles the immutable audit record for one request.
func buildProvenance(requestID string, results []Executed, citations []model.Citation, now time.Time) *model.ProvenanceRecord {
	var queries []string
	for _, res := range results {
		if res.QueryText != "" {
			queries = append(queries, res.QueryText)
		}
	}
	return &model.ProvenanceRecord{
		RequestID:    requestID,
		QueryTexts:   queries,
		DatasetsUsed: citations,
		Timestamp:    now,
	}
}
