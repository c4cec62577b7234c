package query

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

func economicData(t *testing.T) (*dataset.Dataset, schema.DatasetSchema) {
	t.Helper()
	csv := strings.Join([]string{
		"country,year,gdp_growth",
		"Indonesia,2020,-2.1",
		"Indonesia,2021,3.7",
		"Indonesia,2022,5.3",
		"Indonesia,2023,5.0",
		"Malaysia,2020,-5.5",
		"Malaysia,2021,3.1",
		"Malaysia,2022,8.7",
		"Malaysia,2023,3.7",
	}, "\n")
	ds, err := dataset.FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)
	return ds, schema.Infer(ds)
}

func TestParseTrendQuestion(t *testing.T) {
	ds, sch := economicData(t)

	pq := Parse("bagaimana tren gdp growth Indonesia 2020-2023", sch, ds)

	assert.Equal(t, IntentTrend, pq.Intent)
	assert.Equal(t, []int{2020, 2023}, pq.Years)
	assert.Equal(t, []string{"Indonesia"}, pq.Entities)
}

func TestParseRankingQuestion(t *testing.T) {
	ds, sch := economicData(t)

	pq := Parse("top 5 negara dengan gdp tertinggi 2023", sch, ds)

	assert.Equal(t, IntentRanking, pq.Intent)
	assert.Equal(t, []int{2023}, pq.Years)
}

func TestParseComparisonQuestion(t *testing.T) {
	ds, sch := economicData(t)

	pq := Parse("compare Indonesia vs Malaysia", sch, ds)

	assert.Equal(t, IntentComparison, pq.Intent)
	assert.ElementsMatch(t, []string{"Indonesia", "Malaysia"}, pq.Entities)
}

func TestParseDefaultsToAggregation(t *testing.T) {
	ds, sch := economicData(t)

	pq := Parse("what is the gdp of Indonesia", sch, ds)

	assert.Equal(t, IntentAggregation, pq.Intent)
}

func TestParseYearBoundsAndDedup(t *testing.T) {
	years := extractYears("in 2021 and 2021 again, plus 12020 and 2150 and 1899")
	assert.Equal(t, []int{2021}, years)
}

func TestParseEntityCaseInsensitive(t *testing.T) {
	ds, sch := economicData(t)

	pq := Parse("how did INDONESIA do", sch, ds)

	assert.Equal(t, []string{"Indonesia"}, pq.Entities)
}

func TestShortValuesNeedWordBoundaries(t *testing.T) {
	csv := "code,v\nUSA,1\nIDN,2\nUSA,3\nIDN,4\n"
	ds, err := dataset.FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)
	sch := schema.Infer(ds)

	assert.Empty(t, Parse("what is the usage pattern", sch, ds).Entities,
		"USA must not match inside 'usage'")
	assert.Equal(t, []string{"USA"}, Parse("how big is usa", sch, ds).Entities)
}
