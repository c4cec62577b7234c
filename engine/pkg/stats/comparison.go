package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/query"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// ComparisonFacts holds the paired values for exactly two targets
// (entities or periods) and their difference. RelDiffPct is nullable:
// it is undefined when the second value is zero.
type ComparisonFacts struct {
	A          LabeledValue `json:"a"`
	B          LabeledValue `json:"b"`
	AbsDiff    float64      `json:"abs_diff"`
	RelDiffPct *float64     `json:"rel_diff_pct,omitempty"`

	// BaselineMean is the whole-dataset mean of the metric, included when
	// only one entity resolved so the narrator can still compare.
	BaselineMean *float64 `json:"baseline_mean,omitempty"`
}

// computeComparison resolves exactly two targets. Two entities compare
// their metric means; otherwise two extracted years compare period means.
// Anything else degrades to ranking-style output with a warning rather
// than failing the request.
func computeComparison(full, filtered *dataset.Dataset, sch schema.DatasetSchema, metric schema.ColumnSchema, pq query.ParsedQuery, facts *Facts) {
	if len(pq.Entities) == 2 {
		if cf := compareEntities(filtered, sch, metric, pq.Entities, facts); cf != nil {
			facts.Comparison = cf
			return
		}
	}
	if len(pq.Entities) != 2 && len(pq.Years) == 2 {
		if cf := compareYears(filtered, sch, metric, pq.Years, facts); cf != nil {
			facts.Comparison = cf
			return
		}
	}

	// One entity resolved: compare its subset against the full-dataset
	// baseline instead of failing outright.
	if len(pq.Entities) == 1 {
		if cf := compareAgainstBaseline(full, filtered, metric, pq.Entities[0], facts); cf != nil {
			facts.Comparison = cf
			return
		}
	}

	facts.Warnings = append(facts.Warnings, "comparison needs exactly two resolvable targets; showing a ranking instead")
	facts.Ranking = computeRanking(filtered, sch, metric, facts)
}

func compareEntities(ds *dataset.Dataset, sch schema.DatasetSchema, metric schema.ColumnSchema, entities []string, facts *Facts) *ComparisonFacts {
	a, aok := entityMean(ds, sch, metric.Name, entities[0])
	b, bok := entityMean(ds, sch, metric.Name, entities[1])
	if !aok || !bok {
		return nil
	}
	return buildComparison(LabeledValue{Label: entities[0], Value: a}, LabeledValue{Label: entities[1], Value: b}, facts)
}

func compareYears(ds *dataset.Dataset, sch schema.DatasetSchema, metric schema.ColumnSchema, years []int, facts *Facts) *ComparisonFacts {
	temporal, ok := sch.FirstOfType(schema.Temporal)
	if !ok {
		return nil
	}
	series := buildSeries(ds, temporal.Name, metric.Name)
	var a, b *PeriodValue
	for i := range series {
		if series[i].Period == years[0] {
			a = &series[i]
		}
		if series[i].Period == years[1] {
			b = &series[i]
		}
	}
	if a == nil || b == nil {
		return nil
	}
	return buildComparison(
		LabeledValue{Label: strconv.Itoa(a.Period), Value: a.Value},
		LabeledValue{Label: strconv.Itoa(b.Period), Value: b.Value},
		facts,
	)
}

func compareAgainstBaseline(full, filtered *dataset.Dataset, metric schema.ColumnSchema, entity string, facts *Facts) *ComparisonFacts {
	subsetMean, ok1 := columnMean(filtered, metric.Name)
	globalMean, ok2 := columnMean(full, metric.Name)
	if !ok1 || !ok2 {
		return nil
	}
	facts.Warnings = append(facts.Warnings, fmt.Sprintf("only %q resolved; comparing against the whole-dataset average", entity))
	cf := buildComparison(
		LabeledValue{Label: entity, Value: subsetMean},
		LabeledValue{Label: "dataset average", Value: globalMean},
		facts,
	)
	if cf != nil {
		cf.BaselineMean = ptr(globalMean)
	}
	return cf
}

func buildComparison(a, b LabeledValue, facts *Facts) *ComparisonFacts {
	if math.IsNaN(a.Value) || math.IsNaN(b.Value) || math.IsInf(a.Value, 0) || math.IsInf(b.Value, 0) {
		return nil
	}
	cf := &ComparisonFacts{A: a, B: b, AbsDiff: a.Value - b.Value}
	if b.Value == 0 {
		facts.Warnings = append(facts.Warnings, "relative difference is undefined against a zero value")
	} else {
		cf.RelDiffPct = finiteOrNil(cf.AbsDiff/math.Abs(b.Value)*100, "relative difference", facts)
	}
	return cf
}

// entityMean averages the metric over rows whose Categorical/Geospatial
// value matches the entity.
func entityMean(ds *dataset.Dataset, sch schema.DatasetSchema, metricName, entity string) (float64, bool) {
	mcol, ok := ds.Column(metricName)
	if !ok {
		return 0, false
	}
	var sum float64
	var n int
	for _, cs := range sch.Columns {
		if cs.Type != schema.Categorical && cs.Type != schema.Geospatial {
			continue
		}
		col, found := ds.Column(cs.Name)
		if !found {
			continue
		}
		for i := range col.Cells {
			if col.Cells[i].IsNull || col.Cells[i].Raw != entity {
				continue
			}
			mc := mcol.Cells[i]
			if mc.IsNull || !mc.IsNum {
				continue
			}
			sum += mc.Num
			n++
		}
		if n > 0 {
			break
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func columnMean(ds *dataset.Dataset, name string) (float64, bool) {
	col, ok := ds.Column(name)
	if !ok {
		return 0, false
	}
	vals, _ := col.Numbers()
	if len(vals) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}
