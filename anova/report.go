package anova

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/YuminosukeSato/modeleval/evaluation"
	"github.com/YuminosukeSato/modeleval/pkg/errors"
	"github.com/YuminosukeSato/modeleval/pkg/log"
)

// Report packages everything a consumer needs from one analysis: the ANOVA
// table, the least-squares means, the Tukey-Kramer p-value matrix and the
// treatment labels. An external visualizer can render its
// multiple-comparisons-similarity diagram from these fields alone;
// String() renders the fixed-width text report.
type Report struct {
	Metric string
	Anova  *Table

	// LSMeans holds the model-adjusted mean per treatment level, in
	// ascending treatment-id order. GroupMeans and GroupSizes are the
	// raw per-treatment means and row counts on the same ordering.
	LSMeans    []float64
	GroupMeans []float64
	GroupSizes []int

	Pairwise   *PairwiseMatrix
	Treatments []evaluation.TreatmentLevel

	// SingleDescriptor is set when only one descriptor set is present,
	// in which case the treatment factor is semantically "Method".
	SingleDescriptor bool
}

// Analyze runs the statistical comparison on one metric of an imputed
// table: the two-factor variance decomposition, the least-squares means
// and the Tukey-Kramer pairwise matrix. The table must be complete; a
// remaining missing value is a caller error (run Impute first).
func Analyze(table *evaluation.MetricTable, metric string) (report *Report, err error) {
	defer errors.Recover(&err, "anova.Analyze")

	if table == nil || table.Len() == 0 {
		return nil, errors.NewValueError("anova.Analyze", "empty metric table")
	}
	if !table.HasMetric(metric) {
		return nil, errors.NewUnsupportedMetricError(metric, table.Kind.String())
	}

	treatments := table.Treatments()
	if len(treatments) == 0 {
		treatments = table.AssignTreatments()
	}

	splitLevels := make(map[int]int)
	for _, id := range table.SplitIDs() {
		splitLevels[id] = len(splitLevels)
	}

	records := table.Records()
	y := make([]float64, len(records))
	splitIdx := make([]int, len(records))
	trtIdx := make([]int, len(records))
	for i, rec := range records {
		v, ok := rec.Values[metric]
		if !ok || math.IsNaN(v) {
			return nil, errors.NewValueError("anova.Analyze", "missing metric values present; run Impute first")
		}
		y[i] = v
		splitIdx[i] = splitLevels[rec.Split]
		trtIdx[i] = rec.Treatment - 1 // dense ids are 1-based
	}

	single := table.SingleDescriptor()
	treatmentLabel := "Treatment"
	if single {
		treatmentLabel = "Method"
	}

	anovaTable, f, err := decompose(y, splitIdx, trtIdx, len(splitLevels), len(treatments), treatmentLabel)
	if err != nil {
		return nil, err
	}

	pairwise, groupMeans, groupSizes, err := tukeyKramer(y, trtIdx, len(treatments))
	if err != nil {
		return nil, err
	}

	slog.Debug("analysis complete",
		log.MetricKey, metric,
		log.RowsKey, len(records),
		log.TreatmentKey, len(treatments),
	)

	return &Report{
		Metric:           metric,
		Anova:            anovaTable,
		LSMeans:          lsMeans(f),
		GroupMeans:       groupMeans,
		GroupSizes:       groupSizes,
		Pairwise:         pairwise,
		Treatments:       treatments,
		SingleDescriptor: single,
	}, nil
}

// DescriptorLabels returns the distinct descriptor display labels in
// first-seen treatment order.
func (r *Report) DescriptorLabels() []string {
	return distinct(r.Treatments, func(t evaluation.TreatmentLevel) string { return t.Label })
}

// MethodLabels returns the distinct method labels in first-seen treatment
// order.
func (r *Report) MethodLabels() []string {
	return distinct(r.Treatments, func(t evaluation.TreatmentLevel) string { return t.Method })
}

func distinct(levels []evaluation.TreatmentLevel, pick func(evaluation.TreatmentLevel) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, level := range levels {
		s := pick(level)
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// String renders the two fixed-width ANOVA tables and the summary block.
func (r *Report) String() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analysis of Variance: %s\n\n", r.Metric)

	fmt.Fprintf(&b, "%-18s %4s %18s %18s %10s %8s\n",
		"Source", "DF", "Sum of Squares", "Mean Square", "F Value", "Pr > F")
	writeRow(&b, r.Anova.Model, true)
	writeRow(&b, r.Anova.Error, false)
	writeRow(&b, r.Anova.Total, false)
	b.WriteString("\n")

	fmt.Fprintf(&b, "%-12s %-12s %-12s %s Mean\n", "R-Square", "Coeff Var", "Root MSE", r.Metric)
	fmt.Fprintf(&b, "%-12.6f %-12.6f %-12.6f %.6f\n\n",
		r.Anova.RSquared, r.Anova.CoefVar, r.Anova.RootMSE, r.Anova.Mean)

	fmt.Fprintf(&b, "%-18s %4s %18s %18s %10s %8s\n",
		"Source", "DF", "Type I SS", "Mean Square", "F Value", "Pr > F")
	writeRow(&b, r.Anova.Split, true)
	writeRow(&b, r.Anova.Treatment, true)

	return b.String()
}

// writeRow emits one source line; error and total lines carry no F test,
// and the total line carries no mean square.
func writeRow(b *strings.Builder, row Row, withF bool) {
	fmt.Fprintf(b, "%-18s %4d %18.6f", row.Source, row.DF, row.SS)
	if row.MS != 0 || withF || row.Source == "Error" {
		fmt.Fprintf(b, " %18.6f", row.MS)
	}
	if withF {
		fmt.Fprintf(b, " %10.2f %8s", row.F, row.P)
	}
	b.WriteString("\n")
}
