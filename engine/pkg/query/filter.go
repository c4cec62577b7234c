package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// FilterResult is the filtered subset together with the audit trail of
// what was applied and any warnings raised along the way.
type FilterResult struct {
	Data     *dataset.Dataset
	Applied  []string
	Warnings []string
}

// WarnNoRowsMatched is emitted when the constraints eliminate every row
// and the filter falls back to the unfiltered dataset.
const WarnNoRowsMatched = "no rows matched filters; answering over the full dataset instead"

// Apply filters the dataset by the parsed constraints. Years apply to
// the first Temporal column (exact match for one year, inclusive range
// for two or more); entities apply to Categorical/Geospatial columns.
// No constraints means pass-through. A filter that would eliminate every
// row falls back to the unfiltered data with a warning: a silently empty
// answer is a worse failure than a slightly over-broad one.
func Apply(ds *dataset.Dataset, sch schema.DatasetSchema, pq ParsedQuery) FilterResult {
	res := FilterResult{Data: ds}

	keep := make([]bool, ds.NumRows())
	for i := range keep {
		keep[i] = true
	}
	constrained := false

	if len(pq.Years) > 0 {
		if temporal, ok := sch.FirstOfType(schema.Temporal); ok {
			if col, found := ds.Column(temporal.Name); found {
				applyYearFilter(keep, col, pq.Years)
				constrained = true
				res.Applied = append(res.Applied, fmt.Sprintf("years %v on %q", pq.Years, temporal.Name))
			}
		}
	}

	for _, cf := range groupEntitiesByColumn(ds, sch, pq.Entities) {
		applyEntityFilter(keep, cf.col, cf.values)
		constrained = true
		res.Applied = append(res.Applied, fmt.Sprintf("entities %v on %q", cf.values, cf.col.Name))
	}

	if !constrained {
		return res
	}

	var rows []int
	for i, k := range keep {
		if k {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		res.Warnings = append(res.Warnings, WarnNoRowsMatched)
		return res
	}

	res.Data = ds.SelectRows(rows)
	return res
}

// applyYearFilter keeps rows whose temporal value matches one of the
// years, or falls inside the min..max range when two or more years were
// given (reading "2020-2023" as a span, not an enumeration).
func applyYearFilter(keep []bool, col *dataset.Column, years []int) {
	low, high := years[0], years[len(years)-1]
	exact := len(years) == 1

	for i, cell := range col.Cells {
		if !keep[i] {
			continue
		}
		y, ok := cellYear(cell)
		if !ok {
			keep[i] = false
			continue
		}
		if exact {
			keep[i] = y == low
		} else {
			keep[i] = y >= low && y <= high
		}
	}
}

// cellYear extracts a 4-digit year from a temporal cell, either from its
// numeric value or from a date-shaped string.
func cellYear(cell dataset.Cell) (int, bool) {
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
	if m := yearPattern.FindString(cell.Raw); m != "" {
		y, err := strconv.Atoi(m)
		if err == nil {
			return y, true
		}
	}
	return 0, false
}

type columnFilter struct {
	col    *dataset.Column
	values []string
}

// groupEntitiesByColumn assigns each extracted entity to every
// Categorical/Geospatial column that actually contains it. Within a
// column the values combine with OR (so "Indonesia vs Malaysia" keeps
// both); ACROSS columns the filters combine with AND.
func groupEntitiesByColumn(ds *dataset.Dataset, sch schema.DatasetSchema, entities []string) []columnFilter {
	var out []columnFilter
	for _, cs := range sch.Columns {
		if cs.Type != schema.Categorical && cs.Type != schema.Geospatial {
			continue
		}
		col, ok := ds.Column(cs.Name)
		if !ok {
			continue
		}
		distinct := make(map[string]bool)
		for _, v := range col.DistinctStrings() {
			distinct[v] = true
		}
		var matched []string
		for _, e := range entities {
			if distinct[e] {
				matched = append(matched, e)
			}
		}
		if len(matched) > 0 {
			out = append(out, columnFilter{col: col, values: matched})
		}
	}
	return out
}

func applyEntityFilter(keep []bool, col *dataset.Column, values []string) {
	for i, cell := range col.Cells {
		if !keep[i] {
			continue
		}
		keep[i] = cellMatchesAny(cell, values)
	}
}

func cellMatchesAny(cell dataset.Cell, values []string) bool {
	if cell.IsNull {
		return false
	}
	raw := strings.ToLower(cell.Raw)
	for _, v := range values {
		lv := strings.ToLower(v)
		if raw == lv || strings.Contains(raw, lv) {
			return true
		}
	}
	return false
}
