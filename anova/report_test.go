package anova

import (
	"math"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modeleval/evaluation"
	"github.com/YuminosukeSato/modeleval/pkg/errors"
)

func init() {
	errors.SetWarningHandler(func(w error) {})
}

func predMatrix(n int, methods []string, cols ...[]float64) *evaluation.PredictionMatrix {
	data := mat.NewDense(n, len(cols)+1, nil)
	for i := 0; i < n; i++ {
		data.Set(i, 0, float64(i+1))
	}
	for j, col := range cols {
		for i := 0; i < n; i++ {
			data.Set(i, j+1, col[i])
		}
	}
	return &evaluation.PredictionMatrix{Data: data, Methods: methods}
}

// pipelineTable builds a real table through the metric engine: two splits,
// two descriptor sets, two methods each, continuous response.
func pipelineTable(t *testing.T) *evaluation.MetricTable {
	t.Helper()
	response, err := evaluation.NewResponseVector([]float64{1, 2, 3, 4, 5, 6, 7, 8}, evaluation.Continuous)
	if err != nil {
		t.Fatal(err)
	}

	good := [][]float64{
		{1.1, 2.1, 2.9, 4.2, 4.9, 6.1, 7.1, 7.8},
		{0.8, 2.4, 3.2, 3.7, 5.4, 5.8, 7.3, 8.4},
	}
	sloppy := [][]float64{
		{2.0, 1.0, 4.5, 3.0, 6.5, 5.0, 8.5, 7.0},
		{1.5, 3.5, 2.0, 5.5, 4.0, 7.5, 6.0, 8.8},
	}

	makeSplit := func(id int, jitter float64) evaluation.Split {
		shift := func(cols [][]float64) [][]float64 {
			out := make([][]float64, len(cols))
			for i, col := range cols {
				c := make([]float64, len(col))
				for j, v := range col {
					c[j] = v + jitter*float64(j%3)
				}
				out[i] = c
			}
			return out
		}
		g := shift(good)
		s := shift(sloppy)
		return evaluation.Split{
			ID: id,
			Descriptors: []evaluation.DescriptorSet{
				{Name: "Atom pairs", Predictions: predMatrix(8, []string{"lm", "rf"}, g[0], g[1])},
				{Name: "Fragments", Predictions: predMatrix(8, []string{"lm", "rf"}, s[0], s[1])},
			},
		}
	}

	table, err := evaluation.ComputeMetrics(
		[]evaluation.Split{makeSplit(1, 0.05), makeSplit(2, -0.04)},
		response,
		evaluation.EvalOptions{Metrics: []string{"rmse"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestAnalyzeEndToEnd(t *testing.T) {
	table := pipelineTable(t)
	if err := table.Impute("rmse"); err != nil {
		t.Fatal(err)
	}

	report, err := Analyze(table, "rmse")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if report.Metric != "rmse" {
		t.Errorf("Metric = %q, want rmse", report.Metric)
	}
	if len(report.Treatments) != 4 {
		t.Fatalf("got %d treatments, want 4", len(report.Treatments))
	}
	if len(report.LSMeans) != 4 || len(report.GroupMeans) != 4 {
		t.Fatalf("lsmeans/means length = %d/%d, want 4/4", len(report.LSMeans), len(report.GroupMeans))
	}
	if report.Pairwise.Dim() != 4 {
		t.Fatalf("pairwise dim = %d, want 4", report.Pairwise.Dim())
	}
	if report.SingleDescriptor {
		t.Error("SingleDescriptor = true with two descriptor sets")
	}

	a := report.Anova
	if a.Total.DF != a.Model.DF+a.Error.DF {
		t.Errorf("DF additivity violated: %d != %d + %d", a.Total.DF, a.Model.DF, a.Error.DF)
	}
	if d := math.Abs(a.Total.SS - (a.Model.SS + a.Error.SS)); d > 1e-6*a.Total.SS {
		t.Errorf("SS additivity violated: %v != %v + %v", a.Total.SS, a.Model.SS, a.Error.SS)
	}
	if d := math.Abs(a.Model.SS - (a.Split.SS + a.Treatment.SS)); d > 1e-6*math.Max(a.Model.SS, 1e-12) {
		t.Errorf("nested additivity violated: %v != %v + %v", a.Model.SS, a.Split.SS, a.Treatment.SS)
	}
	if a.Treatment.Source != "Treatment" {
		t.Errorf("treatment label = %q, want Treatment", a.Treatment.Source)
	}

	// Pairwise matrix symmetry with a NaN diagonal.
	for i := 0; i < 4; i++ {
		if !math.IsNaN(report.Pairwise.At(i, i)) {
			t.Errorf("diagonal (%d,%d) not NaN", i, i)
		}
		for j := i + 1; j < 4; j++ {
			if report.Pairwise.At(i, j) != report.Pairwise.At(j, i) {
				t.Errorf("pairwise asymmetry at (%d,%d)", i, j)
			}
		}
	}

	if got := report.DescriptorLabels(); len(got) != 2 || got[0] != "Atom" || got[1] != "Frag" {
		t.Errorf("DescriptorLabels() = %v, want [Atom Frag]", got)
	}
	if got := report.MethodLabels(); len(got) != 2 || got[0] != "lm" || got[1] != "rf" {
		t.Errorf("MethodLabels() = %v, want [lm rf]", got)
	}
}

func TestAnalyzeSingleDescriptorLabel(t *testing.T) {
	response, err := evaluation.NewResponseVector([]float64{1, 2, 3, 4, 5, 6, 7, 8}, evaluation.Continuous)
	if err != nil {
		t.Fatal(err)
	}
	makeSplit := func(id int, jitter float64) evaluation.Split {
		base := [][]float64{
			{1.1, 2.1, 2.9, 4.2, 4.9, 6.1, 7.1, 7.8},
			{2.0, 1.0, 4.5, 3.0, 6.5, 5.0, 8.5, 7.0},
		}
		cols := make([][]float64, len(base))
		for i, col := range base {
			c := make([]float64, len(col))
			for j, v := range col {
				c[j] = v + jitter*float64(j%2)
			}
			cols[i] = c
		}
		return evaluation.Split{ID: id, Descriptors: []evaluation.DescriptorSet{
			{Name: "Atom pairs", Predictions: predMatrix(8, []string{"lm", "rf"}, cols[0], cols[1])},
		}}
	}

	table, err := evaluation.ComputeMetrics(
		[]evaluation.Split{makeSplit(1, 0.1), makeSplit(2, -0.1), makeSplit(3, 0.05)},
		response,
		evaluation.EvalOptions{Metrics: []string{"rmse"}},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := table.Impute("rmse"); err != nil {
		t.Fatal(err)
	}

	report, err := Analyze(table, "rmse")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if !report.SingleDescriptor {
		t.Error("SingleDescriptor = false, want true")
	}
	if report.Anova.Treatment.Source != "Method" {
		t.Errorf("treatment label = %q, want Method in single-descriptor mode", report.Anova.Treatment.Source)
	}
}

func TestAnalyzeRejectsMissingValues(t *testing.T) {
	table := pipelineTable(t)
	// Knock one value out and skip imputation.
	table.Records()[0].Values["rmse"] = math.NaN()

	_, err := Analyze(table, "rmse")
	if err == nil {
		t.Fatal("Analyze accepted a table with missing values")
	}
}

func TestAnalyzeUnknownMetric(t *testing.T) {
	table := pipelineTable(t)
	_, err := Analyze(table, "auc")
	var target *errors.UnsupportedMetricError
	if !errors.As(err, &target) {
		t.Fatalf("error type = %T, want *UnsupportedMetricError", err)
	}
}

func TestReportString(t *testing.T) {
	table := pipelineTable(t)
	if err := table.Impute("rmse"); err != nil {
		t.Fatal(err)
	}
	report, err := Analyze(table, "rmse")
	if err != nil {
		t.Fatal(err)
	}

	text := report.String()
	for _, want := range []string{
		"Analysis of Variance: rmse",
		"Source",
		"Model",
		"Error",
		"Corrected Total",
		"R-Square",
		"Type I SS",
		"Split",
		"Treatment",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("report text missing %q:\n%s", want, text)
		}
	}
}
