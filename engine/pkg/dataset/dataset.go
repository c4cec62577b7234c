// Package dataset holds the in-memory tabular model the analysis engine
// operates on. A Dataset is immutable once loaded; filtering produces a
// new Dataset sharing the underlying cells.
package dataset

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Cell is a single scalar value. Raw always holds the original text;
// Num is populated when the text parses as a number.
type Cell struct {
	Raw    string
	Num    float64
	IsNum  bool
	IsNull bool
}

// Column is an ordered sequence of cells under a header name.
type Column struct {
	Name  string
	Cells []Cell
}

// Dataset is an ordered sequence of named columns, all of equal length.
type Dataset struct {
	Handle      string // stable handle, e.g. "post:42/data.csv"
	Fingerprint string // sha256 of the raw CSV bytes
	Columns     []Column
}

var nullTokens = map[string]bool{
	"":     true,
	"null": true,
	"NULL": true,
	"None": true,
	"n/a":  true,
	"N/A":  true,
	"-":    true,
}

func parseCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if nullTokens[trimmed] {
		return Cell{Raw: trimmed, IsNull: true}
	}
	// Tolerate thousands separators and a trailing percent sign.
	numeric := strings.ReplaceAll(trimmed, ",", "")
	numeric = strings.TrimSuffix(numeric, "%")
	if f, err := strconv.ParseFloat(numeric, 64); err == nil {
		return Cell{Raw: trimmed, Num: f, IsNum: true}
	}
	return Cell{Raw: trimmed}
}

// FromCSV decodes a CSV document with a required header row.
func FromCSV(handle string, r io.Reader) (*Dataset, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	cr := csv.NewReader(strings.NewReader(string(raw)))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("dataset %s is empty", handle)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header row: %w", err)
	}

	sum := sha256.Sum256(raw)
	ds := &Dataset{
		Handle:      handle,
		Fingerprint: hex.EncodeToString(sum[:]),
		Columns:     make([]Column, len(header)),
	}
	for i, name := range header {
		ds.Columns[i].Name = strings.TrimSpace(name)
	}

	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		for i := range ds.Columns {
			if i < len(record) {
				ds.Columns[i].Cells = append(ds.Columns[i].Cells, parseCell(record[i]))
			} else {
				// Short rows pad with nulls so columns stay aligned.
				ds.Columns[i].Cells = append(ds.Columns[i].Cells, Cell{IsNull: true})
			}
		}
	}

	return ds, nil
}

// NumRows returns the row count.
func (d *Dataset) NumRows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Cells)
}

// Column looks up a column by header name.
func (d *Dataset) Column(name string) (*Column, bool) {
	for i := range d.Columns {
		if d.Columns[i].Name == name {
			return &d.Columns[i], true
		}
	}
	return nil, false
}

// SelectRows builds a new Dataset containing only the given row indexes,
// preserving their order. Cells are shared, not copied.
func (d *Dataset) SelectRows(rows []int) *Dataset {
	out := &Dataset{
		Handle:      d.Handle,
		Fingerprint: d.Fingerprint,
		Columns:     make([]Column, len(d.Columns)),
	}
	for i := range d.Columns {
		out.Columns[i].Name = d.Columns[i].Name
		out.Columns[i].Cells = make([]Cell, 0, len(rows))
		for _, r := range rows {
			out.Columns[i].Cells = append(out.Columns[i].Cells, d.Columns[i].Cells[r])
		}
	}
	return out
}

// DistinctStrings returns the distinct non-null raw values of a column in
// first-seen order.
func (c *Column) DistinctStrings() []string {
	seen := make(map[string]bool)
	var out []string
	for _, cell := range c.Cells {
		if cell.IsNull || seen[cell.Raw] {
			continue
		}
		seen[cell.Raw] = true
		out = append(out, cell.Raw)
	}
	return out
}

// Numbers returns the non-null numeric values of a column along with the
// row index each came from.
func (c *Column) Numbers() ([]float64, []int) {
	var vals []float64
	var rows []int
	for i, cell := range c.Cells {
		if cell.IsNull || !cell.IsNum {
			continue
		}
		vals = append(vals, cell.Num)
		rows = append(rows, i)
	}
	return vals, rows
}

// NullRate returns the fraction of null cells in a column.
func (c *Column) NullRate() float64 {
	if len(c.Cells) == 0 {
		return 0
	}
	nulls := 0
	for _, cell := range c.Cells {
		if cell.IsNull {
			nulls++
		}
	}
	return float64(nulls) / float64(len(c.Cells))
}
