// Package stats aggregates detection and quality snapshots into the summary
// numbers the experiments report: per-variant means with standard errors,
// label breakdowns, and weakest-point quality scores.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/slopscope/slopscope/internal/domain"
)

// Variant names used as summary keys.
const (
	VariantOriginal  = "original"
	VariantUnslopped = "unslopped"
	VariantControl   = "control"
)

// scoreKeys are the quality dimensions, in report order.
var scoreKeys = []string{"coherence", "style", "general"}

// Mean returns the arithmetic mean, or NaN for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdErr returns the sample standard error, or NaN when n < 2.
func StdErr(values []float64) float64 {
	if len(values) < 2 {
		return math.NaN()
	}
	m := Mean(values)
	variance := 0.0
	for _, v := range values {
		variance += (v - m) * (v - m)
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance / float64(len(values)))
}

// LabelCount is one row of a percentage breakdown.
type LabelCount struct {
	Label   string
	Percent float64
	Count   int
}

// PercentBreakdown converts label counts into percentage rows, most common
// first, ties broken by label for deterministic output.
func PercentBreakdown(counts map[string]int, total int) []LabelCount {
	rows := make([]LabelCount, 0, len(counts))
	for label, count := range counts {
		pct := 0.0
		if total > 0 {
			pct = float64(count) / float64(total) * 100
		}
		rows = append(rows, LabelCount{Label: label, Percent: pct, Count: count})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}

// DetectionSummary aggregates one detection snapshot.
type DetectionSummary struct {
	Count        int
	ControlCount int
	FractionAI   map[string][]float64       // variant -> values
	Predictions  map[string]map[string]int  // variant -> prediction_short counts
	Headlines    map[string]map[string]int  // variant -> headline counts
}

// SummarizeDetections collects fraction_ai values and label counts from
// pair records whose original and unslopped detections both completed,
// mirroring how the experiment counts a story.
func SummarizeDetections(records []*domain.Record) *DetectionSummary {
	s := &DetectionSummary{
		FractionAI:  map[string][]float64{},
		Predictions: map[string]map[string]int{VariantOriginal: {}, VariantUnslopped: {}, VariantControl: {}},
		Headlines:   map[string]map[string]int{VariantOriginal: {}, VariantUnslopped: {}, VariantControl: {}},
	}

	collect := func(variant string, det *domain.Detection) {
		s.FractionAI[variant] = append(s.FractionAI[variant], *det.FractionAI)
		if det.PredictionShort != "" {
			s.Predictions[variant][det.PredictionShort]++
		}
		if det.Headline != "" {
			s.Headlines[variant][det.Headline]++
		}
	}

	for _, rec := range records {
		if !rec.OriginalDetection.Complete() || !rec.UnsloppedDetection.Complete() {
			continue
		}
		s.Count++
		collect(VariantOriginal, rec.OriginalDetection)
		collect(VariantUnslopped, rec.UnsloppedDetection)
		if rec.ControlDetection.Complete() {
			s.ControlCount++
			collect(VariantControl, rec.ControlDetection)
		}
	}
	return s
}

// QualitySummary aggregates one quality snapshot.
type QualitySummary struct {
	Count        int
	ControlCount int
	Scores       map[string]map[string][]float64 // variant -> dimension -> values
	WeakestPoint map[string][]float64            // variant -> min-of-three values
}

// SummarizeQuality collects per-dimension scores and the weakest-point
// score from pair records whose original and unslopped evaluations both
// completed. Control evaluations are counted independently, as a control
// may complete on a record whose pair did not.
func SummarizeQuality(records []*domain.Record) *QualitySummary {
	s := &QualitySummary{
		Scores: map[string]map[string][]float64{
			VariantOriginal:  {},
			VariantUnslopped: {},
			VariantControl:   {},
		},
		WeakestPoint: map[string][]float64{},
	}

	collect := func(variant string, scores *domain.Scores) {
		vals := []float64{*scores.Coherence, *scores.Style, *scores.General}
		for i, key := range scoreKeys {
			s.Scores[variant][key] = append(s.Scores[variant][key], vals[i])
		}
		s.WeakestPoint[variant] = append(s.WeakestPoint[variant],
			math.Min(vals[0], math.Min(vals[1], vals[2])))
	}

	for _, rec := range records {
		if rec.OriginalEval.Complete() && rec.UnsloppedEval.Complete() {
			s.Count++
			collect(VariantOriginal, rec.OriginalEval.Scores)
			collect(VariantUnslopped, rec.UnsloppedEval.Scores)
		}
		if rec.ControlEval.Complete() {
			s.ControlCount++
			collect(VariantControl, rec.ControlEval.Scores)
		}
	}
	return s
}

// WriteReport prints both summaries in the report layout the experiment
// scripts produced. Either summary may be nil.
func WriteReport(w io.Writer, det *DetectionSummary, qual *QualitySummary) {
	if det != nil {
		fmt.Fprintf(w, "Count: %d\n", det.Count)
		fmt.Fprintf(w, "Original fraction_ai mean: %.6f (stderr %.6f)\n",
			Mean(det.FractionAI[VariantOriginal]), StdErr(det.FractionAI[VariantOriginal]))
		fmt.Fprintf(w, "Unslopped fraction_ai mean: %.6f (stderr %.6f)\n",
			Mean(det.FractionAI[VariantUnslopped]), StdErr(det.FractionAI[VariantUnslopped]))
		if det.ControlCount > 0 {
			fmt.Fprintf(w, "Control fraction_ai mean: %.6f (stderr %.6f)\n",
				Mean(det.FractionAI[VariantControl]), StdErr(det.FractionAI[VariantControl]))
		}

		writeBreakdown(w, "Original prediction_short breakdown:",
			PercentBreakdown(det.Predictions[VariantOriginal], det.Count))
		writeBreakdown(w, "Unslopped prediction_short breakdown:",
			PercentBreakdown(det.Predictions[VariantUnslopped], det.Count))
		if det.ControlCount > 0 {
			writeBreakdown(w, "Control prediction_short breakdown:",
				PercentBreakdown(det.Predictions[VariantControl], det.ControlCount))
		}
		writeBreakdown(w, "Original headline breakdown:",
			PercentBreakdown(det.Headlines[VariantOriginal], det.Count))
		writeBreakdown(w, "Unslopped headline breakdown:",
			PercentBreakdown(det.Headlines[VariantUnslopped], det.Count))
		if det.ControlCount > 0 {
			writeBreakdown(w, "Control headline breakdown:",
				PercentBreakdown(det.Headlines[VariantControl], det.ControlCount))
		}
	}

	if qual != nil {
		fmt.Fprintf(w, "\nQuality eval count: %d\n", qual.Count)
		if qual.ControlCount > 0 {
			fmt.Fprintf(w, "Control quality eval count: %d\n", qual.ControlCount)
		}
		for _, key := range scoreKeys {
			fmt.Fprintf(w, "Original %s mean: %.6f (stderr %.6f)\n",
				key, Mean(qual.Scores[VariantOriginal][key]), StdErr(qual.Scores[VariantOriginal][key]))
			fmt.Fprintf(w, "Unslopped %s mean: %.6f (stderr %.6f)\n",
				key, Mean(qual.Scores[VariantUnslopped][key]), StdErr(qual.Scores[VariantUnslopped][key]))
			if qual.ControlCount > 0 {
				fmt.Fprintf(w, "Control %s mean: %.6f (stderr %.6f)\n",
					key, Mean(qual.Scores[VariantControl][key]), StdErr(qual.Scores[VariantControl][key]))
			}
		}
		fmt.Fprintf(w, "Original weakest-point mean: %.6f (stderr %.6f)\n",
			Mean(qual.WeakestPoint[VariantOriginal]), StdErr(qual.WeakestPoint[VariantOriginal]))
		fmt.Fprintf(w, "Unslopped weakest-point mean: %.6f (stderr %.6f)\n",
			Mean(qual.WeakestPoint[VariantUnslopped]), StdErr(qual.WeakestPoint[VariantUnslopped]))
		if qual.ControlCount > 0 {
			fmt.Fprintf(w, "Control weakest-point mean: %.6f (stderr %.6f)\n",
				Mean(qual.WeakestPoint[VariantControl]), StdErr(qual.WeakestPoint[VariantControl]))
		}
	}
}

func writeBreakdown(w io.Writer, title string, rows []LabelCount) {
	fmt.Fprintln(w, title)
	for _, row := range rows {
		fmt.Fprintf(w, "  %s: %.1f%% (%d)\n", row.Label, row.Percent, row.Count)
	}
}
