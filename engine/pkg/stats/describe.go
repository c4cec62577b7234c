package stats

import (
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// Describe computes whole-dataset facts with no question to steer them:
// an aggregation over the primary metric plus, when the dataset has a
// temporal column, its trend over time. Used for article summaries and
// quizzes, where the facts must describe the dataset rather than answer
// anything.
func Describe(ds *dataset.Dataset, sch schema.DatasetSchema) Facts {
	facts := Facts{}

	metric, ok := pickMetric(ds, sch, "")
	if !ok {
		facts.Warnings = append(facts.Warnings, "no numeric column available; only descriptive facts can be computed")
		return facts
	}
	facts.Metric = metric.Name
	facts.Unit = metric.Unit

	facts.Aggregation = computeAggregation(ds, metric, &facts)
	if _, ok := sch.FirstOfType(schema.Temporal); ok {
		facts.Trend = computeTrend(ds, sch, metric, &facts)
	}
	return facts
}
