package stats

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/quality"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/query"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

func loadCSV(t *testing.T, csv string) (*dataset.Dataset, schema.DatasetSchema) {
	t.Helper()
	ds, err := dataset.FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)
	return ds, schema.Infer(ds)
}

func analyze(t *testing.T, csv, question string) Facts {
	t.Helper()
	ds, sch := loadCSV(t, csv)
	pq := query.Parse(question, sch, ds)
	filtered := query.Apply(ds, sch, pq)
	rep := quality.Score(filtered.Data, sch)
	return Compute(ds, filtered.Data, sch, pq, rep)
}

const gdpCSV = `country,year,gdp_usd
Indonesia,2019,1119
Indonesia,2020,1059
Indonesia,2021,1186
Indonesia,2022,1319
Malaysia,2019,365
Malaysia,2020,337
Malaysia,2021,373
Malaysia,2022,407
`

func TestComputeTrend(t *testing.T) {
	facts := analyze(t, gdpCSV, "bagaimana tren gdp Indonesia")

	assert.Equal(t, query.IntentTrend, facts.Intent)
	assert.Equal(t, "gdp_usd", facts.Metric)
	tf := facts.Trend
	require.NotNil(t, tf)

	assert.Equal(t, 2019, tf.StartPeriod)
	assert.Equal(t, 2022, tf.EndPeriod)
	assert.Equal(t, 1119.0, tf.StartValue)
	assert.Equal(t, 1319.0, tf.EndValue)
	assert.Equal(t, "up", tf.Direction)
	require.NotNil(t, tf.Change)
	assert.Equal(t, 200.0, *tf.Change)
	require.NotNil(t, tf.CAGR)
	assert.InDelta(t, 0.0563, *tf.CAGR, 0.001)
	require.NotNil(t, tf.Momentum)
	assert.Empty(t, tf.GapPeriods)
}

func TestTrendAveragesPeriodsWithMultipleRows(t *testing.T) {
	ds, _ := loadCSV(t, gdpCSV)
	series := buildSeries(ds, "year", "gdp_usd")

	require.Len(t, series, 4)
	assert.Equal(t, 2019, series[0].Period)
	assert.InDelta(t, (1119.0+365.0)/2, series[0].Value, 1e-9)
}

func TestTrendGapDetection(t *testing.T) {
	csv := "year,value\n2019,1\n2020,2\n2023,3\n"
	ds, sch := loadCSV(t, csv)
	pq := query.ParsedQuery{Intent: query.IntentTrend}
	filtered := query.Apply(ds, sch, pq)
	facts := Compute(ds, filtered.Data, sch, pq, quality.Report{})

	require.NotNil(t, facts.Trend)
	assert.Equal(t, []int{2021, 2022}, facts.Trend.GapPeriods)
}

func TestCAGRUndefinedCases(t *testing.T) {
	t.Run("zero start", func(t *testing.T) {
		facts := Facts{}
		got := computeCAGR([]PeriodValue{{2020, 0}, {2021, 10}}, &facts)
		assert.Nil(t, got)
		assert.NotEmpty(t, facts.Warnings)
	})
	t.Run("negative start", func(t *testing.T) {
		facts := Facts{}
		got := computeCAGR([]PeriodValue{{2020, -5}, {2021, 10}}, &facts)
		assert.Nil(t, got)
	})
	t.Run("negative end", func(t *testing.T) {
		facts := Facts{}
		got := computeCAGR([]PeriodValue{{2020, 5}, {2021, -10}}, &facts)
		assert.Nil(t, got)
	})
	t.Run("single period", func(t *testing.T) {
		facts := Facts{}
		got := computeCAGR([]PeriodValue{{2020, 5}}, &facts)
		assert.Nil(t, got)
	})
}

func TestMomentumUndefinedOnZeroPrevious(t *testing.T) {
	facts := Facts{}
	got := computeMomentum([]PeriodValue{{2020, 0}, {2021, 10}}, &facts)
	assert.Nil(t, got)
	assert.NotEmpty(t, facts.Warnings)
}

func TestComputeRanking(t *testing.T) {
	csv := "country,value\nA,10\nB,90\nC,50\nD,70\nE,30\nF,60\nG,20\nH,80\nI,40\nJ,100\nK,55\nL,65\n"
	facts := analyze(t, csv, "which country is highest")

	require.NotNil(t, facts.Ranking)
	rf := facts.Ranking
	assert.Equal(t, "country", rf.LabelColumn)

	require.Len(t, rf.Top, 5)
	assert.Equal(t, LabeledValue{"J", 100}, rf.Top[0])
	assert.Equal(t, LabeledValue{"B", 90}, rf.Top[1])

	require.Len(t, rf.Bottom, 5)
	assert.Equal(t, LabeledValue{"A", 10}, rf.Bottom[0], "bottom list is ascending")

	// Top and bottom never share a label.
	seen := make(map[string]bool)
	for _, lv := range rf.Top {
		seen[lv.Label] = true
	}
	for _, lv := range rf.Bottom {
		assert.False(t, seen[lv.Label], "label %q in both lists", lv.Label)
	}
}

func TestRankingDisjointOnSmallData(t *testing.T) {
	csv := "country,value\nA,1\nB,2\nC,3\nD,4\nE,5\nF,6\nG,7\n"
	ds, sch := loadCSV(t, csv)
	facts := Facts{}
	metric, ok := sch.Column("value")
	require.True(t, ok)

	rf := computeRanking(ds, sch, metric, &facts)
	require.NotNil(t, rf)

	assert.Len(t, rf.Top, 5)
	assert.Len(t, rf.Bottom, 2, "bottom shrinks so the lists stay disjoint")
	assert.Equal(t, "A", rf.Bottom[0].Label)
	assert.Equal(t, "B", rf.Bottom[1].Label)
}

func TestRankingStableTies(t *testing.T) {
	csv := "country,value\nA,50\nB,50\nC,50\nD,50\nE,50\nF,50\n"
	ds, sch := loadCSV(t, csv)
	facts := Facts{}
	metric, ok := sch.Column("value")
	require.True(t, ok)

	rf := computeRanking(ds, sch, metric, &facts)
	require.NotNil(t, rf)
	assert.Equal(t, []LabeledValue{{"A", 50}, {"B", 50}, {"C", 50}, {"D", 50}, {"E", 50}}, rf.Top,
		"ties keep original row order")
}

func TestComputeComparisonTwoEntities(t *testing.T) {
	facts := analyze(t, gdpCSV, "compare Indonesia vs Malaysia")

	require.NotNil(t, facts.Comparison)
	cf := facts.Comparison
	assert.Equal(t, "Indonesia", cf.A.Label)
	assert.Equal(t, "Malaysia", cf.B.Label)
	assert.InDelta(t, 1170.75, cf.A.Value, 1e-9)
	assert.InDelta(t, 370.5, cf.B.Value, 1e-9)
	assert.InDelta(t, 800.25, cf.AbsDiff, 1e-9)
	require.NotNil(t, cf.RelDiffPct)
}

func TestComputeComparisonTwoYears(t *testing.T) {
	facts := analyze(t, gdpCSV, "compare 2020 and 2022")

	require.NotNil(t, facts.Comparison)
	cf := facts.Comparison
	assert.Equal(t, "2020", cf.A.Label)
	assert.Equal(t, "2022", cf.B.Label)
}

func TestComparisonOneEntityUsesBaseline(t *testing.T) {
	facts := analyze(t, gdpCSV, "how does Indonesia compare")

	require.NotNil(t, facts.Comparison)
	cf := facts.Comparison
	assert.Equal(t, "Indonesia", cf.A.Label)
	assert.Equal(t, "dataset average", cf.B.Label)
	require.NotNil(t, cf.BaselineMean)

	found := false
	for _, w := range facts.Warnings {
		if strings.Contains(w, "whole-dataset average") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestComparisonDegradesToRanking(t *testing.T) {
	facts := analyze(t, gdpCSV, "compare everything")

	assert.Nil(t, facts.Comparison)
	assert.NotNil(t, facts.Ranking)
	assert.NotEmpty(t, facts.Warnings)
}

func TestAggregationRefusesSumOfRates(t *testing.T) {
	csv := "country,growth_rate\nA,5.0\nB,3.0\nC,4.0\n"
	facts := analyze(t, csv, "what is the average value")

	require.NotNil(t, facts.Aggregation)
	af := facts.Aggregation
	assert.Nil(t, af.Sum, "summing percentages is refused")
	require.NotNil(t, af.Mean)
	assert.InDelta(t, 4.0, *af.Mean, 1e-9)

	found := false
	for _, w := range facts.Warnings {
		if strings.Contains(w, "not additive") {
			found = true
		}
	}
	assert.True(t, found, "expected a refusal warning, got %v", facts.Warnings)
}

func TestAggregationSummable(t *testing.T) {
	facts := analyze(t, gdpCSV, "total gdp")

	require.NotNil(t, facts.Aggregation)
	af := facts.Aggregation
	assert.Equal(t, 8, af.Count)
	require.NotNil(t, af.Sum)
	assert.InDelta(t, 6165.0, *af.Sum, 1e-9)
	require.NotNil(t, af.Min)
	assert.Equal(t, 337.0, *af.Min)
	require.NotNil(t, af.Max)
	assert.Equal(t, 1319.0, *af.Max)
}

func TestPickMetricPrefersQuestionMention(t *testing.T) {
	csv := "country,population,gdp_usd\nA,100,10\nB,200,20\n"
	ds, sch := loadCSV(t, csv)

	metric, ok := pickMetric(ds, sch, "what is the population here")
	require.True(t, ok)
	assert.Equal(t, "population", metric.Name)
}

func TestComputeNoNumericColumn(t *testing.T) {
	csv := "country,city\nA,X\nB,Y\n"
	facts := analyze(t, csv, "average of what exactly")

	assert.Empty(t, facts.Metric)
	assert.NotEmpty(t, facts.Warnings)
	assert.Nil(t, facts.Aggregation)
}

func TestDescribe(t *testing.T) {
	ds, sch := loadCSV(t, gdpCSV)

	facts := Describe(ds, sch)

	assert.Equal(t, "gdp_usd", facts.Metric)
	require.NotNil(t, facts.Aggregation)
	require.NotNil(t, facts.Trend, "temporal dataset gets a trend in its description")
	assert.Equal(t, 2019, facts.Trend.StartPeriod)
}

func TestDescribeWithoutTemporal(t *testing.T) {
	ds, sch := loadCSV(t, "country,value\nA,1\nB,2\nC,3\n")

	facts := Describe(ds, sch)

	require.NotNil(t, facts.Aggregation)
	assert.Nil(t, facts.Trend)
}
