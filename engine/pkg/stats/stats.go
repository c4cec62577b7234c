// Package stats computes the deterministic numeric facts for a classified
// question. Every exported number is guaranteed finite: anything that
// would be NaN or infinite is reported as a null fact plus a warning and
// never reaches the narrator as a number.
package stats

import (
	"fmt"
	"math"
	"strings"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/quality"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/query"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// LabeledValue pairs a display label with a finite numeric value.
type LabeledValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Facts is the tagged union of computed statistics, keyed by intent.
// Compute sets exactly one of the intent-specific fields, except that a
// degraded comparison carries Ranking instead of Comparison. Describe
// sets Aggregation and, if the data is temporal, Trend.
type Facts struct {
	Intent      query.Intent      `json:"intent"`
	Metric      string            `json:"metric"`
	Unit        string            `json:"unit,omitempty"`
	Trend       *TrendFacts       `json:"trend,omitempty"`
	Ranking     *RankingFacts     `json:"ranking,omitempty"`
	Comparison  *ComparisonFacts  `json:"comparison,omitempty"`
	Aggregation *AggregationFacts `json:"aggregation,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// metricPriority orders candidate metric columns when the question does
// not name one outright.
var metricPriority = []string{"value", "score", "rate", "gdp", "population", "count", "total"}

// Compute produces the facts for the classified intent. full is the
// unfiltered dataset (needed for baseline comparisons); filtered is what
// the deterministic filter selected.
func Compute(full, filtered *dataset.Dataset, sch schema.DatasetSchema, pq query.ParsedQuery, rep quality.Report) Facts {
	facts := Facts{Intent: pq.Intent}

	metric, ok := pickMetric(filtered, sch, pq.Raw)
	if !ok {
		facts.Warnings = append(facts.Warnings, "no numeric column available; only descriptive facts can be computed")
		return facts
	}
	facts.Metric = metric.Name
	facts.Unit = metric.Unit

	switch pq.Intent {
	case query.IntentTrend:
		facts.Trend = computeTrend(filtered, sch, metric, &facts)
	case query.IntentRanking:
		facts.Ranking = computeRanking(filtered, sch, metric, &facts)
	case query.IntentComparison:
		computeComparison(full, filtered, sch, metric, pq, &facts)
	default:
		facts.Aggregation = computeAggregation(filtered, metric, &facts)
	}

	if len(rep.Anomalies) > 0 {
		facts.Warnings = append(facts.Warnings, fmt.Sprintf("%d extreme outliers (|z| > 5) present in the data and included in all statistics", len(rep.Anomalies)))
	}
	return facts
}

// pickMetric chooses the numeric target column: one named in the question
// wins, then the priority keyword list, then the first Numeric/Rate/Index
// column in schema order.
func pickMetric(ds *dataset.Dataset, sch schema.DatasetSchema, question string) (schema.ColumnSchema, bool) {
	var numeric []schema.ColumnSchema
	for _, cs := range sch.Columns {
		if cs.Type == schema.Numeric || cs.Type == schema.Rate || cs.Type == schema.Index {
			if _, ok := ds.Column(cs.Name); ok {
				numeric = append(numeric, cs)
			}
		}
	}
	if len(numeric) == 0 {
		return schema.ColumnSchema{}, false
	}

	lower := strings.ToLower(question)
	for _, cs := range numeric {
		name := strings.ToLower(cs.Name)
		if strings.Contains(lower, name) || strings.Contains(lower, strings.ReplaceAll(name, "_", " ")) {
			return cs, true
		}
	}
	for _, kw := range metricPriority {
		for _, cs := range numeric {
			if strings.Contains(strings.ToLower(cs.Name), kw) {
				return cs, true
			}
		}
	}
	return numeric[0], true
}

// pickLabel chooses the column used to label rows in rankings and
// comparisons: geospatial first, then categorical, then temporal.
func pickLabel(sch schema.DatasetSchema) (schema.ColumnSchema, bool) {
	for _, t := range []schema.SemanticType{schema.Geospatial, schema.Categorical, schema.Temporal} {
		if cs, ok := sch.FirstOfType(t); ok {
			return cs, true
		}
	}
	return schema.ColumnSchema{}, false
}

// finiteOrNil converts a computed float into a nullable fact, recording a
// warning when the value is degenerate.
func finiteOrNil(v float64, what string, facts *Facts) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		facts.Warnings = append(facts.Warnings, fmt.Sprintf("%s is undefined for this data", what))
		return nil
	}
	return &v
}

func ptr(v float64) *float64 { return &v }
