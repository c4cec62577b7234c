package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
)

func loadCSV(t *testing.T, csv string) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)
	return ds
}

func TestInferEconomicDataset(t *testing.T) {
	ds := loadCSV(t, strings.Join([]string{
		"country,year,gdp_growth,population",
		"Indonesia,2020,-2.1,270000000",
		"Indonesia,2021,3.7,272000000",
		"Malaysia,2020,-5.5,32000000",
		"Malaysia,2021,3.1,32500000",
	}, "\n"))

	sch := Infer(ds)
	require.Len(t, sch.Columns, 4)

	country, ok := sch.Column("country")
	require.True(t, ok)
	assert.Equal(t, Geospatial, country.Type)

	year, ok := sch.Column("year")
	require.True(t, ok)
	assert.Equal(t, Temporal, year.Type)
	assert.Equal(t, "year", year.Unit)

	growth, ok := sch.Column("gdp_growth")
	require.True(t, ok)
	assert.Equal(t, Rate, growth.Type)
	assert.False(t, growth.Summable, "rates must never be summed")

	pop, ok := sch.Column("population")
	require.True(t, ok)
	assert.Equal(t, Numeric, pop.Type)
	assert.Equal(t, "people", pop.Unit)
	assert.True(t, pop.Summable)
}

func TestInferPercentRange(t *testing.T) {
	ds := loadCSV(t, "inflation_rate,score_index\n5.1,101.2\n3.2,99.8\n4.0,100.5\n")

	sch := Infer(ds)

	infl, ok := sch.Column("inflation_rate")
	require.True(t, ok)
	assert.Equal(t, Rate, infl.Type)
	assert.Equal(t, "%", infl.Unit)
	assert.False(t, infl.Summable)

	idx, ok := sch.Column("score_index")
	require.True(t, ok)
	assert.Equal(t, Index, idx.Type)
	assert.False(t, idx.Summable)
}

func TestInferCurrency(t *testing.T) {
	ds := loadCSV(t, "gdp_usd,belanja_idr\n1058424,15000\n337008,12000\n")

	sch := Infer(ds)

	usd, ok := sch.Column("gdp_usd")
	require.True(t, ok)
	assert.Equal(t, "USD", usd.Unit)
	assert.True(t, usd.Summable)

	idr, ok := sch.Column("belanja_idr")
	require.True(t, ok)
	assert.Equal(t, "IDR", idr.Unit)
}

func TestInferEmptyColumnDegradesToText(t *testing.T) {
	ds := loadCSV(t, "a,empty\n1,\n2,\n")

	sch := Infer(ds)
	empty, ok := sch.Column("empty")
	require.True(t, ok)
	assert.Equal(t, Text, empty.Type)
}

func TestInferCategorical(t *testing.T) {
	rows := []string{"label,note"}
	for i := 0; i < 20; i++ {
		status := "active"
		if i%2 == 1 {
			status = "inactive"
		}
		rows = append(rows, status+",free text value number "+strings.Repeat("x", i+1))
	}
	ds := loadCSV(t, strings.Join(rows, "\n"))

	sch := Infer(ds)

	label, ok := sch.Column("label")
	require.True(t, ok)
	assert.Equal(t, Categorical, label.Type)

	note, ok := sch.Column("note")
	require.True(t, ok)
	assert.Equal(t, Text, note.Type)
}

func TestInferDateStrings(t *testing.T) {
	ds := loadCSV(t, "date,v\n2020-01-01,1\n2020-02-01,2\n2020-03-01,3\n")

	sch := Infer(ds)
	date, ok := sch.Column("date")
	require.True(t, ok)
	assert.Equal(t, Temporal, date.Type)
}

func TestFirstOfType(t *testing.T) {
	ds := loadCSV(t, "country,year,gdp\nIndonesia,2020,5\n")
	sch := Infer(ds)

	col, ok := sch.FirstOfType(Temporal)
	require.True(t, ok)
	assert.Equal(t, "year", col.Name)

	_, ok = sch.FirstOfType(Categorical)
	assert.False(t, ok)
}
