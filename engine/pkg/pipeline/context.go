package pipeline

import (
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/quality"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/query"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/stats"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// Bounds on what a fact context may carry. The narrator only ever sees
// this object, so these limits are the hallucination-containment
// boundary: no raw rows beyond what the computed facts explicitly select.
const (
	maxListEntries = 5
	maxWarnings    = 10
	maxAnomalies   = 5
)

// ColumnSummary is the schema surface exposed to the narrator: names,
// types and units only, so it can phrase "%" or "USD" correctly without
// seeing any values.
type ColumnSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Unit string `json:"unit,omitempty"`
}

// FactContext is the single object passed to the narrator.
type FactContext struct {
	Intent     query.Intent    `json:"intent"`
	Facts      stats.Facts     `json:"facts"`
	Quality    quality.Report  `json:"quality"`
	Schema     []ColumnSummary `json:"schema"`
	RowCount   int             `json:"row_count"`
	FilterLog  []string        `json:"filters_applied,omitempty"`
	Warnings   []string        `json:"warnings,omitempty"`
	Years      []int           `json:"extracted_years,omitempty"`
	Entities   []string        `json:"extracted_entities,omitempty"`
}

// Build assembles and bounds the fact context from the stage outputs.
func Build(sch schema.DatasetSchema, pq query.ParsedQuery, filtered query.FilterResult, rep quality.Report, facts stats.Facts) FactContext {
	fc := FactContext{
		Intent:    pq.Intent,
		Quality:   rep,
		RowCount:  filtered.Data.NumRows(),
		FilterLog: filtered.Applied,
		Years:     pq.Years,
		Entities:  truncateStrings(pq.Entities, maxListEntries),
	}

	for _, c := range sch.Columns {
		fc.Schema = append(fc.Schema, ColumnSummary{Name: c.Name, Type: string(c.Type), Unit: c.Unit})
	}

	// Warnings from every stage, in pipeline order, then bounded.
	var warnings []string
	warnings = append(warnings, filtered.Warnings...)
	warnings = append(warnings, facts.Warnings...)
	facts.Warnings = nil
	fc.Facts = boundFacts(facts)
	fc.Warnings = truncateStrings(warnings, maxWarnings)

	if len(fc.Quality.Anomalies) > maxAnomalies {
		fc.Quality.Anomalies = fc.Quality.Anomalies[:maxAnomalies]
	}
	return fc
}

// boundFacts truncates every list a fact can carry so the narrator input
// stays compact. The trend series is kept whole only up to the bound;
// beyond it the endpoints and summary numbers still tell the story.
func boundFacts(f stats.Facts) stats.Facts {
	if f.Ranking != nil {
		r := *f.Ranking
		r.Top = truncateValues(r.Top, maxListEntries)
		r.Bottom = truncateValues(r.Bottom, maxListEntries)
		f.Ranking = &r
	}
	if f.Trend != nil && len(f.Trend.Series) > 2*maxListEntries {
		t := *f.Trend
		// Keep the first and last points of an oversized series.
		head := make([]stats.PeriodValue, maxListEntries)
		copy(head, t.Series[:maxListEntries])
		tail := t.Series[len(t.Series)-maxListEntries:]
		t.Series = append(head, tail...)
		f.Trend = &t
	}
	return f
}

func truncateStrings(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func truncateValues(s []stats.LabeledValue, n int) []stats.LabeledValue {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
