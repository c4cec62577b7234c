package stats

import (
	"math"
	"regexp"
	"sort"
	"strconv"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// PeriodValue is one point of a time series.
type PeriodValue struct {
	Period int     `json:"period"`
	Value  float64 `json:"value"`
}

// TrendFacts describes how the metric moves over the temporal column.
// CAGR and Momentum are nullable: degenerate inputs (zero or negative
// start, single period) report as null with a warning rather than as
// NaN or infinity.
type TrendFacts struct {
	Series      []PeriodValue `json:"series"`
	Direction   string        `json:"direction"` // "up", "down", "flat"
	StartPeriod int           `json:"start_period"`
	EndPeriod   int           `json:"end_period"`
	StartValue  float64       `json:"start_value"`
	EndValue    float64       `json:"end_value"`
	Change      *float64      `json:"change,omitempty"`
	CAGR        *float64      `json:"cagr,omitempty"`     // fraction, not percent
	Momentum    *float64      `json:"momentum,omitempty"` // pct change over the last two periods
	GapPeriods  []int         `json:"gap_periods,omitempty"`
	Frequency   string        `json:"frequency,omitempty"`
}

func computeTrend(ds *dataset.Dataset, sch schema.DatasetSchema, metric schema.ColumnSchema, facts *Facts) *TrendFacts {
	temporal, ok := sch.FirstOfType(schema.Temporal)
	if !ok {
		facts.Warnings = append(facts.Warnings, "no temporal column; trend cannot be computed")
		return nil
	}
	series := buildSeries(ds, temporal.Name, metric.Name)
	if len(series) == 0 {
		facts.Warnings = append(facts.Warnings, "no numeric observations for trend")
		return nil
	}

	tf := &TrendFacts{
		Series:      series,
		StartPeriod: series[0].Period,
		EndPeriod:   series[len(series)-1].Period,
		StartValue:  series[0].Value,
		EndValue:    series[len(series)-1].Value,
		Frequency:   "annual",
	}

	delta := tf.EndValue - tf.StartValue
	tf.Change = finiteOrNil(delta, "absolute change", facts)
	switch {
	case delta > 0:
		tf.Direction = "up"
	case delta < 0:
		tf.Direction = "down"
	default:
		tf.Direction = "flat"
	}

	tf.CAGR = computeCAGR(series, facts)
	tf.Momentum = computeMomentum(series, facts)
	tf.GapPeriods = detectGaps(series)
	return tf
}

// buildSeries groups the metric by period, averaging when a period has
// several rows (e.g. one row per country per year), sorted by period.
func buildSeries(ds *dataset.Dataset, temporalName, metricName string) []PeriodValue {
	tcol, ok1 := ds.Column(temporalName)
	mcol, ok2 := ds.Column(metricName)
	if !ok1 || !ok2 {
		return nil
	}

	sums := make(map[int]float64)
	counts := make(map[int]int)
	for i := range tcol.Cells {
		mc := mcol.Cells[i]
		if mc.IsNull || !mc.IsNum {
			continue
		}
		y, ok := periodOf(tcol.Cells[i])
		if !ok {
			continue
		}
		sums[y] += mc.Num
		counts[y]++
	}

	series := make([]PeriodValue, 0, len(sums))
	for y, s := range sums {
		series = append(series, PeriodValue{Period: y, Value: s / float64(counts[y])})
	}
	sort.Slice(series, func(i, j int) bool { return series[i].Period < series[j].Period })
	return series
}

var trendYearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

func periodOf(cell dataset.Cell) (int, bool) {
	if cell.IsNull {
		return 0, false
	}
	if cell.IsNum {
		y := int(cell.Num)
		if y >= 1000 && y <= 3000 {
			return y, true
		}
		return 0, false
	}
	if m := trendYearPattern.FindString(cell.Raw); m != "" {
		if y, err := strconv.Atoi(m); err == nil {
			return y, true
		}
	}
	return 0, false
}

// computeCAGR guards every degenerate case: fewer than two periods, a
// non-positive start value, or a negative end over a positive start would
// all produce NaN or infinity and are reported as null instead.
func computeCAGR(series []PeriodValue, facts *Facts) *float64 {
	if len(series) < 2 {
		facts.Warnings = append(facts.Warnings, "CAGR is undefined with fewer than two periods")
		return nil
	}
	start, end := series[0], series[len(series)-1]
	periods := end.Period - start.Period
	if periods < 1 {
		facts.Warnings = append(facts.Warnings, "CAGR is undefined over a zero-length span")
		return nil
	}
	if start.Value <= 0 {
		facts.Warnings = append(facts.Warnings, "CAGR is undefined when the starting value is zero or negative")
		return nil
	}
	ratio := end.Value / start.Value
	if ratio <= 0 {
		facts.Warnings = append(facts.Warnings, "CAGR is undefined when the series crosses zero")
		return nil
	}
	cagr := math.Pow(ratio, 1/float64(periods)) - 1
	return finiteOrNil(cagr, "CAGR", facts)
}

// computeMomentum is the percentage change between the last two periods.
func computeMomentum(series []PeriodValue, facts *Facts) *float64 {
	if len(series) < 2 {
		return nil
	}
	prev := series[len(series)-2].Value
	last := series[len(series)-1].Value
	if prev == 0 {
		facts.Warnings = append(facts.Warnings, "recent momentum is undefined when the previous period is zero")
		return nil
	}
	return finiteOrNil((last-prev)/math.Abs(prev)*100, "recent momentum", facts)
}

// detectGaps lists periods missing from an otherwise contiguous series.
func detectGaps(series []PeriodValue) []int {
	if len(series) < 2 {
		return nil
	}
	present := make(map[int]bool, len(series))
	for _, pv := range series {
		present[pv.Period] = true
	}
	var gaps []int
	for y := series[0].Period + 1; y < series[len(series)-1].Period; y++ {
		if !present[y] {
			gaps = append(gaps, y)
		}
	}
	return gaps
}
