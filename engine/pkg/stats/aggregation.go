package stats

import (
	"fmt"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// AggregationFacts holds summary statistics over the metric column.
// Sum is nil when the column is not summable (rates, percentages,
// indices): adding those values is meaningless, so the fact is refused
// rather than computed wrong. Mean/min/max/count stay valid regardless.
type AggregationFacts struct {
	Count int      `json:"count"`
	Sum   *float64 `json:"sum,omitempty"`
	Mean  *float64 `json:"mean,omitempty"`
	Min   *float64 `json:"min,omitempty"`
	Max   *float64 `json:"max,omitempty"`
}

func computeAggregation(ds *dataset.Dataset, metric schema.ColumnSchema, facts *Facts) *AggregationFacts {
	col, ok := ds.Column(metric.Name)
	if !ok {
		facts.Warnings = append(facts.Warnings, fmt.Sprintf("metric column %q missing from filtered data", metric.Name))
		return nil
	}
	vals, _ := col.Numbers()
	af := &AggregationFacts{Count: len(vals)}
	if len(vals) == 0 {
		facts.Warnings = append(facts.Warnings, fmt.Sprintf("no numeric values in %q after filtering", metric.Name))
		return af
	}

	sum, min, max := vals[0], vals[0], vals[0]
	for _, v := range vals[1:] {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	af.Mean = finiteOrNil(sum/float64(len(vals)), "mean", facts)
	af.Min = finiteOrNil(min, "min", facts)
	af.Max = finiteOrNil(max, "max", facts)

	if metric.Summable {
		af.Sum = finiteOrNil(sum, "sum", facts)
	} else {
		unit := metric.Unit
		if unit == "" {
			unit = string(metric.Type)
		}
		facts.Warnings = append(facts.Warnings, fmt.Sprintf("sum of %q refused: %s values are not additive", metric.Name, unit))
	}
	return af
}
