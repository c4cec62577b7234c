// Package quality scores how much a filtered subset can be trusted:
// missing-value density, sample size, and statistical anomalies.
package quality

import (
	"fmt"
	"math"
	"strings"

	"github.com/Fahmialfayadh/mahainsight/engine/pkg/dataset"
	"github.com/Fahmialfayadh/mahainsight/engine/pkg/schema"
)

// Anomaly flags one value whose z-score magnitude exceeds the threshold.
type Anomaly struct {
	Column string  `json:"column"`
	Row    int     `json:"row"`
	Value  float64 `json:"value"`
	ZScore float64 `json:"z_score"`
}

// Report is the quality assessment of one (usually filtered) dataset.
// It is recomputed per subset: filtering can change quality materially.
type Report struct {
	Confidence float64            `json:"confidence"` // in [0,1]
	NullRates  map[string]float64 `json:"null_rates"`
	Anomalies  []Anomaly          `json:"anomalies,omitempty"`
	SampleSize int                `json:"sample_size"`
	Notes      []string           `json:"notes,omitempty"`
}

const zScoreThreshold = 5.0

// Columns whose names signal that negative values are expected.
var negativeOKNames = []string{"change", "delta", "temp", "balance", "net", "growth", "diff"}

// Score computes the quality report for a dataset under its schema.
func Score(ds *dataset.Dataset, sch schema.DatasetSchema) Report {
	rep := Report{
		NullRates:  make(map[string]float64),
		SampleSize: ds.NumRows(),
	}

	var nullSum float64
	var measured int
	for _, cs := range sch.Columns {
		if cs.Type != schema.Numeric && cs.Type != schema.Rate && cs.Type != schema.Index {
			continue
		}
		col, ok := ds.Column(cs.Name)
		if !ok {
			continue
		}
		rate := col.NullRate()
		rep.NullRates[cs.Name] = rate
		nullSum += rate
		measured++

		rep.Anomalies = append(rep.Anomalies, detectAnomalies(cs.Name, col)...)
		if !negativesExpected(cs.Name) {
			if n := countNegatives(col); n > 0 {
				rep.Notes = append(rep.Notes, fmt.Sprintf("%d negative values in %q, unexpected for this metric", n, cs.Name))
			}
		}
	}

	nullDensity := 0.0
	if measured > 0 {
		nullDensity = nullSum / float64(measured)
	}

	rep.Confidence = clamp01(0.6*(1-nullDensity) + 0.4*sizeFactor(rep.SampleSize))
	rep.Notes = append(rep.Notes, tierNotes(rep.SampleSize, nullDensity)...)
	return rep
}

// sizeFactor saturates: a floor below 5 rows, a ceiling at 100 or more.
func sizeFactor(n int) float64 {
	switch {
	case n < 5:
		return 0.2
	case n >= 100:
		return 1.0
	default:
		return 0.2 + 0.8*float64(n-5)/95.0
	}
}

func tierNotes(n int, nullDensity float64) []string {
	var notes []string
	if n < 5 {
		notes = append(notes, fmt.Sprintf("sample is very small (%d rows), results may not be representative", n))
	} else if n < 30 {
		notes = append(notes, fmt.Sprintf("sample is limited (%d rows)", n))
	}
	if nullDensity > 0.3 {
		notes = append(notes, fmt.Sprintf("high missing-value density (%.0f%%), analysis may be biased", nullDensity*100))
	} else if nullDensity > 0.1 {
		notes = append(notes, fmt.Sprintf("missing values detected (%.0f%%)", nullDensity*100))
	}
	return notes
}

// detectAnomalies flags values more than zScoreThreshold standard
// deviations from the column mean. Anomalies are reported, never removed:
// whether to exclude them is an intent-specific decision downstream, and
// must come with its own warning.
func detectAnomalies(name string, col *dataset.Column) []Anomaly {
	vals, rows := col.Numbers()
	if len(vals) < 3 {
		return nil
	}
	mean, std := meanStd(vals)
	if std == 0 {
		return nil
	}
	var out []Anomaly
	for i, v := range vals {
		z := (v - mean) / std
		if math.Abs(z) > zScoreThreshold {
			out = append(out, Anomaly{Column: name, Row: rows[i], Value: v, ZScore: z})
		}
	}
	return out
}

func meanStd(vals []float64) (mean, std float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}
	std = math.Sqrt(ss / float64(len(vals)))
	return mean, std
}

func countNegatives(col *dataset.Column) int {
	vals, _ := col.Numbers()
	n := 0
	for _, v := range vals {
		if v < 0 {
			n++
		}
	}
	return n
}

func negativesExpected(name string) bool {
	lower := strings.ToLower(name)
	for _, t := range negativeOKNames {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func clamp01(f float64) float64 {
	return math.Max(0, math.Min(1, f))
}
