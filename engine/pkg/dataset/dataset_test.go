package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromCSV(t *testing.T) {
	csv := strings.Join([]string{
		"country,year,gdp",
		"Indonesia,2020,\"1,058,424\"",
		"Malaysia,2020,337008",
		"Indonesia,2021,",
	}, "\n")

	ds, err := FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	require.Len(t, ds.Columns, 3)

	gdp, ok := ds.Column("gdp")
	require.True(t, ok)
	assert.True(t, gdp.Cells[0].IsNum)
	assert.Equal(t, 1058424.0, gdp.Cells[0].Num) // thousands separators stripped
	assert.True(t, gdp.Cells[2].IsNull)
}

func TestFromCSVEmptyInput(t *testing.T) {
	_, err := FromCSV("test", strings.NewReader(""))
	assert.Error(t, err)
}

func TestFromCSVSkipsBlankLines(t *testing.T) {
	// encoding/csv drops fully empty lines, so they never become null
	// rows. A row wanting a null in every column needs explicit commas.
	csv := "a,b\n1,2\n\n,\n3,4\n"
	ds, err := FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, ds.NumRows())
	a, ok := ds.Column("a")
	require.True(t, ok)
	assert.True(t, a.Cells[1].IsNull)
}

func TestFromCSVShortRowsPadded(t *testing.T) {
	csv := "a,b,c\n1,2\n4,5,6\n"
	ds, err := FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)

	c, ok := ds.Column("c")
	require.True(t, ok)
	require.Len(t, c.Cells, 2)
	assert.True(t, c.Cells[0].IsNull)
	assert.Equal(t, 6.0, c.Cells[1].Num)
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		raw    string
		isNum  bool
		isNull bool
		num    float64
	}{
		{"42", true, false, 42},
		{"-3.5", true, false, -3.5},
		{"5.1%", true, false, 5.1},
		{"1,234.5", true, false, 1234.5},
		{"", false, true, 0},
		{"N/A", false, true, 0},
		{"null", false, true, 0},
		{"-", false, true, 0},
		{"Jakarta", false, false, 0},
	}
	for _, tt := range tests {
		cell := parseCell(tt.raw)
		assert.Equal(t, tt.isNum, cell.IsNum, "raw=%q", tt.raw)
		assert.Equal(t, tt.isNull, cell.IsNull, "raw=%q", tt.raw)
		if tt.isNum {
			assert.Equal(t, tt.num, cell.Num, "raw=%q", tt.raw)
		}
	}
}

func TestFingerprintStable(t *testing.T) {
	csv := "a,b\n1,2\n"
	ds1, err := FromCSV("h1", strings.NewReader(csv))
	require.NoError(t, err)
	ds2, err := FromCSV("h2", strings.NewReader(csv))
	require.NoError(t, err)

	assert.Equal(t, ds1.Fingerprint, ds2.Fingerprint, "fingerprint depends on content, not handle")

	ds3, err := FromCSV("h1", strings.NewReader("a,b\n1,3\n"))
	require.NoError(t, err)
	assert.NotEqual(t, ds1.Fingerprint, ds3.Fingerprint)
}

func TestSelectRows(t *testing.T) {
	csv := "name,v\nA,1\nB,2\nC,3\n"
	ds, err := FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)

	sub := ds.SelectRows([]int{0, 2})
	assert.Equal(t, 2, sub.NumRows())

	name, ok := sub.Column("name")
	require.True(t, ok)
	assert.Equal(t, "A", name.Cells[0].Raw)
	assert.Equal(t, "C", name.Cells[1].Raw)

	// Original is untouched.
	assert.Equal(t, 3, ds.NumRows())
}

func TestColumnHelpers(t *testing.T) {
	csv := "city,v\nJakarta,1\nJakarta,\nBandung,3\n"
	ds, err := FromCSV("test", strings.NewReader(csv))
	require.NoError(t, err)

	city, ok := ds.Column("city")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"Jakarta", "Bandung"}, city.DistinctStrings())

	v, ok := ds.Column("v")
	require.True(t, ok)
	vals, rows := v.Numbers()
	assert.Equal(t, []float64{1, 3}, vals)
	assert.Equal(t, []int{0, 2}, rows)
	assert.InDelta(t, 1.0/3.0, v.NullRate(), 1e-9)
}
