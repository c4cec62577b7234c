// Package schema infers a semantic schema over a dataset. Inference is a
// pure function of the column names and sampled values, so results are
// deterministic and safe to cache by dataset fingerprint.
package schema

import (
	"strings"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
)

// SemanticType classifies what a column means, not just how it is stored.
type SemanticType string

const (
	Temporal    SemanticType = "temporal"
	Geospatial  SemanticType = "geospatial"
	Numeric     SemanticType = "numeric"
	Rate        SemanticType = "rate"
	Index       SemanticType = "index"
	Categorical SemanticType = "categorical"
	Text        SemanticType = "text"
)

// ColumnSchema describes one column. Summable is false whenever summing
// the values would be semantically wrong (rates, percentages, indices).
type ColumnSchema struct {
	Name     string       `json:"name"`
	Type     SemanticType `json:"type"`
	Unit     string       `json:"unit,omitempty"`
	Summable bool         `json:"summable"`
}

// DatasetSchema is the ordered per-column schema plus the fingerprint of
// the dataset it was derived from.
type DatasetSchema struct {
	Columns     []ColumnSchema
	Fingerprint string
}

// Column looks up a column schema by name.
func (s DatasetSchema) Column(name string) (ColumnSchema, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSchema{}, false
}

// FirstOfType returns the first column of the given semantic type.
func (s DatasetSchema) FirstOfType(t SemanticType) (ColumnSchema, bool) {
	for _, c := range s.Columns {
		if c.Type == t {
			return c, true
		}
	}
	return ColumnSchema{}, false
}

// maxSample bounds how many values are inspected per column.
const maxSample = 200

var (
	temporalNames   = []string{"year", "tahun", "date", "time", "periode", "period"}
	geospatialNames = []string{"country", "negara", "region", "provinsi", "province", "city", "kota", "wilayah"}
	rateNames       = []string{"rate", "percent", "persen", "pct", "share", "ratio", "growth", "inflasi", "inflation"}
	indexNames      = []string{"index", "idx", "score", "indeks"}
	currencyUSD     = []string{"usd", "$"}
	currencyIDR     = []string{"idr", "rp", "rupiah"}
	countNames      = []string{"pop", "people", "penduduk", "count", "jumlah"}
)

func nameContains(name string, tokens []string) bool {
	lower := strings.ToLower(name)
	for _, t := range tokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// Infer derives the schema for every column. It never fails: a column
// with no usable values degrades to Text.
func Infer(ds *dataset.Dataset) DatasetSchema {
	out := DatasetSchema{
		Columns:     make([]ColumnSchema, 0, len(ds.Columns)),
		Fingerprint: ds.Fingerprint,
	}
	for i := range ds.Columns {
		out.Columns = append(out.Columns, inferColumn(&ds.Columns[i]))
	}
	return out
}

func inferColumn(col *dataset.Column) ColumnSchema {
	cs := ColumnSchema{Name: col.Name, Type: Text}

	sample := col.Cells
	if len(sample) > maxSample {
		sample = sample[:maxSample]
	}

	numeric, nonNull := 0, 0
	allYears := true
	inPercentRange := true
	for _, cell := range sample {
		if cell.IsNull {
			continue
		}
		nonNull++
		if !cell.IsNum {
			allYears = false
			inPercentRange = false
			continue
		}
		numeric++
		if cell.Num < 1000 || cell.Num > 3000 || cell.Num != float64(int(cell.Num)) {
			allYears = false
		}
		if cell.Num < 0 || cell.Num > 100 {
			inPercentRange = false
		}
	}

	// No usable values: degrade, never raise.
	if nonNull == 0 {
		return cs
	}

	mostlyNumeric := numeric > 0 && float64(numeric) >= 0.8*float64(nonNull)

	switch {
	case nameContains(col.Name, temporalNames) && (mostlyNumeric && allYears || looksLikeDates(sample)):
		cs.Type = Temporal
		cs.Unit = "year"

	case nameContains(col.Name, temporalNames) && mostlyNumeric:
		cs.Type = Temporal
		cs.Unit = "year"

	case !mostlyNumeric && nameContains(col.Name, geospatialNames):
		cs.Type = Geospatial

	case mostlyNumeric:
		cs = classifyNumeric(col.Name, inPercentRange)

	default:
		// Low-cardinality strings are categories, everything else is text.
		distinct := col.DistinctStrings()
		if len(distinct) <= 50 && float64(len(distinct)) <= 0.5*float64(nonNull) {
			cs.Type = Categorical
		}
	}

	return cs
}

// classifyNumeric resolves the numeric subtypes. Non-summable checks run
// first: when in doubt, the safer classification wins.
func classifyNumeric(name string, inPercentRange bool) ColumnSchema {
	cs := ColumnSchema{Name: name}

	switch {
	case strings.Contains(name, "%") || nameContains(name, rateNames) && inPercentRange:
		cs.Type = Rate
		cs.Unit = "%"

	case nameContains(name, rateNames):
		// Rate-named but out of [0,100]: still a rate, just not a percent.
		cs.Type = Rate

	case nameContains(name, indexNames):
		cs.Type = Index
		cs.Unit = "index"

	case nameContains(name, currencyUSD):
		cs.Type = Numeric
		cs.Unit = "USD"
		cs.Summable = true

	case nameContains(name, currencyIDR):
		cs.Type = Numeric
		cs.Unit = "IDR"
		cs.Summable = true

	case nameContains(name, countNames):
		cs.Type = Numeric
		cs.Unit = "people"
		cs.Summable = true

	default:
		cs.Type = Numeric
		cs.Summable = true
	}

	return cs
}

// looksLikeDates reports whether string values resemble dates
// (digit groups separated by - or /).
func looksLikeDates(cells []dataset.Cell) bool {
	checked, matched := 0, 0
	for _, cell := range cells {
		if cell.IsNull || cell.IsNum {
			continue
		}
		checked++
		if isDateShaped(cell.Raw) {
			matched++
		}
		if checked >= 20 {
			break
		}
	}
	return checked > 0 && matched == checked
}

func isDateShaped(s string) bool {
	sep := "-"
	if strings.Contains(s, "/") {
		sep = "/"
	}
	parts := strings.Split(s, sep)
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}
