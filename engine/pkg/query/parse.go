// Package query turns a natural-language question into explicit
// constraints (years, entities) and a coarse intent, then applies those
// constraints to a dataset. Parsing depends only on the question text and
// the dataset's schema and distinct values, never on the model.
package query

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// Intent is the coarse category of analytical question.
type Intent string

const (
	IntentTrend       Intent = "trend"
	IntentRanking     Intent = "ranking"
	IntentComparison  Intent = "comparison"
	IntentAggregation Intent = "aggregation"
)

// ParsedQuery is the immutable result of interpreting a question.
type ParsedQuery struct {
	Raw      string
	Years    []int    // sorted ascending
	Entities []string // distinct values matched in the question, first-seen order
	Intent   Intent
}

var yearPattern = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// intentRules is evaluated in priority order; the first rule with a
// matching keyword wins. Trend and ranking language is more specific than
// generic aggregation words and must not be swallowed by them.
var intentRules = []struct {
	intent   Intent
	keywords []string
}{
	{IntentTrend, []string{"trend", "tren", "growth", "tumbuh", "naik", "turun", "change", "perubahan", "perkembangan"}},
	{IntentRanking, []string{"rank", "top", "bottom", "paling", "tertinggi", "terendah", "teratas", "terbawah", "terbesar", "terkecil", "highest", "lowest"}},
	{IntentComparison, []string{"compare", "comparison", "banding", "dibanding", "perbandingan", "vs", "versus", "beda", "difference"}},
	{IntentAggregation, []string{"rata", "mean", "avg", "average", "sum", "total", "jumlah", "min", "max", "minimum", "maximum"}},
}

// Parse extracts years, entities and intent from a question.
func Parse(text string, sch schema.DatasetSchema, ds *dataset.Dataset) ParsedQuery {
	pq := ParsedQuery{Raw: text, Intent: classifyIntent(text)}
	pq.Years = extractYears(text)
	pq.Entities = extractEntities(text, sch, ds)
	return pq
}

func extractYears(text string) []int {
	seen := make(map[int]bool)
	var years []int
	for _, m := range yearPattern.FindAllString(text, -1) {
		y, err := strconv.Atoi(m)
		if err != nil || y < 1900 || y > 2100 || seen[y] {
			continue
		}
		seen[y] = true
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// extractEntities matches distinct Categorical/Geospatial values against
// the question, case-insensitively. Very short values (3 chars or fewer,
// e.g. ISO codes) require word boundaries so "USA" does not match inside
// "usage"; longer values match as substrings.
func extractEntities(text string, sch schema.DatasetSchema, ds *dataset.Dataset) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var entities []string

	for _, cs := range sch.Columns {
		if cs.Type != schema.Categorical && cs.Type != schema.Geospatial {
			continue
		}
		col, ok := ds.Column(cs.Name)
		if !ok {
			continue
		}
		for _, val := range col.DistinctStrings() {
			if len(val) < 2 || seen[val] {
				continue
			}
			if matchesValue(lower, strings.ToLower(val)) {
				seen[val] = true
				entities = append(entities, val)
			}
		}
	}
	return entities
}

func matchesValue(lowerText, lowerVal string) bool {
	if len(lowerVal) <= 3 {
		re, err := regexp.Compile(`\b` + regexp.QuoteMeta(lowerVal) + `\b`)
		if err != nil {
			return false
		}
		return re.MatchString(lowerText)
	}
	return strings.Contains(lowerText, lowerVal)
}

func classifyIntent(text string) Intent {
	lower := strings.ToLower(text)
	for _, rule := range intentRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.intent
			}
		}
	}
	return IntentAggregation
}
