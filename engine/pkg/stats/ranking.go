package stats

import (
	"sort"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// RankingN is the fixed fan-out for top/bottom lists.
const RankingN = 5

// RankingFacts holds the top-N and bottom-N rows by the metric. The two
// lists never overlap: bottom is drawn from the rows left after the top
// selection, so with 2N rows or fewer the bottom list shrinks.
type RankingFacts struct {
	LabelColumn string         `json:"label_column"`
	Top         []LabeledValue `json:"top"`
	Bottom      []LabeledValue `json:"bottom,omitempty"`
}

func computeRanking(ds *dataset.Dataset, sch schema.DatasetSchema, metric schema.ColumnSchema, facts *Facts) *RankingFacts {
	label, ok := pickLabel(sch)
	if !ok {
		facts.Warnings = append(facts.Warnings, "no label column available for ranking")
		return nil
	}
	rows := labeledRows(ds, label.Name, metric.Name)
	if len(rows) == 0 {
		facts.Warnings = append(facts.Warnings, "no numeric observations to rank")
		return nil
	}

	// Stable sort keeps original row order for ties.
	desc := make([]LabeledValue, len(rows))
	copy(desc, rows)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].Value > desc[j].Value })

	n := RankingN
	if n > len(desc) {
		n = len(desc)
	}

	rf := &RankingFacts{
		LabelColumn: label.Name,
		Top:         desc[:n],
	}

	rest := desc[n:]
	bn := RankingN
	if bn > len(rest) {
		bn = len(rest)
	}
	if bn > 0 {
		// Bottom list in ascending order, smallest first.
		bottom := make([]LabeledValue, bn)
		for i := 0; i < bn; i++ {
			bottom[i] = rest[len(rest)-1-i]
		}
		rf.Bottom = bottom
	}
	return rf
}

// labeledRows pairs each non-null metric value with its row label.
func labeledRows(ds *dataset.Dataset, labelName, metricName string) []LabeledValue {
	lcol, ok1 := ds.Column(labelName)
	mcol, ok2 := ds.Column(metricName)
	if !ok1 || !ok2 {
		return nil
	}
	var out []LabeledValue
	for i := range mcol.Cells {
		mc := mcol.Cells[i]
		if mc.IsNull || !mc.IsNum {
			continue
		}
		lc := lcol.Cells[i]
		if lc.IsNull {
			continue
		}
		out = append(out, LabeledValue{Label: lc.Raw, Value: mc.Num})
	}
	return out
}
