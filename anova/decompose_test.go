package anova

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/modeleval/pkg/errors"
)

// The 2-split, 2-treatment oracle: cells S1/T1=10, S1/T2=20, S2/T1=12,
// S2/T2=18. Hand-derived sums of squares: total 68, split 0, treatment 64,
// error 4.
func oracleData() ([]float64, []int, []int) {
	y := []float64{10, 20, 12, 18}
	splitIdx := []int{0, 0, 1, 1}
	trtIdx := []int{0, 1, 0, 1}
	return y, splitIdx, trtIdx
}

func TestDecomposeOracle(t *testing.T) {
	y, splitIdx, trtIdx := oracleData()

	table, f, err := decompose(y, splitIdx, trtIdx, 2, 2, "Treatment")
	if err != nil {
		t.Fatalf("decompose() error = %v", err)
	}

	const tol = 1e-9
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"total SS", table.Total.SS, 68},
		{"split SS", table.Split.SS, 0},
		{"treatment SS", table.Treatment.SS, 64},
		{"model SS", table.Model.SS, 64},
		{"error SS", table.Error.SS, 4},
		{"model MS", table.Model.MS, 32},
		{"error MS", table.Error.MS, 4},
		{"model F", table.Model.F, 8},
		{"treatment F", table.Treatment.F, 16},
		{"split F", table.Split.F, 0},
		{"R-square", table.RSquared, 64.0 / 68.0},
		{"root MSE", table.RootMSE, 2},
		{"coeff var", table.CoefVar, 100 * 2.0 / 15.0},
		{"mean", table.Mean, 15},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.want) > tol {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	dfChecks := []struct {
		name string
		got  int
		want int
	}{
		{"model DF", table.Model.DF, 2},
		{"error DF", table.Error.DF, 1},
		{"total DF", table.Total.DF, 3},
		{"split DF", table.Split.DF, 1},
		{"treatment DF", table.Treatment.DF, 1},
	}
	for _, c := range dfChecks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	// F(2,1) right tail at 8 is 1/sqrt(17); F(1,1) at 16 is
	// 2*(0.5 - atan(4)/pi).
	if got, want := table.Model.P.Value, 1/math.Sqrt(17); math.Abs(got-want) > 1e-9 {
		t.Errorf("model p = %v, want %v", got, want)
	}
	if got, want := table.Treatment.P.Value, 2*(0.5-math.Atan(4)/math.Pi); math.Abs(got-want) > 1e-9 {
		t.Errorf("treatment p = %v, want %v", got, want)
	}
	if got := table.Split.P.Value; math.Abs(got-1) > 1e-9 {
		t.Errorf("split p = %v, want 1", got)
	}

	// lsmeans from the balanced additive fit are the treatment means.
	means := lsMeans(f)
	if math.Abs(means[0]-11) > tol || math.Abs(means[1]-19) > tol {
		t.Errorf("lsmeans = %v, want [11 19]", means)
	}
}

func TestDecomposeAdditivityInvariants(t *testing.T) {
	// 3 splits × 3 treatments with unbalanced-looking values; the
	// decomposition must still be exactly additive.
	y := []float64{
		5.1, 6.3, 7.0,
		5.6, 6.1, 7.9,
		4.9, 6.8, 7.4,
	}
	splitIdx := []int{0, 0, 0, 1, 1, 1, 2, 2, 2}
	trtIdx := []int{0, 1, 2, 0, 1, 2, 0, 1, 2}

	table, _, err := decompose(y, splitIdx, trtIdx, 3, 3, "Treatment")
	if err != nil {
		t.Fatalf("decompose() error = %v", err)
	}

	relTol := 1e-6
	if d := math.Abs(table.Total.SS - (table.Model.SS + table.Error.SS)); d > relTol*table.Total.SS {
		t.Errorf("Total SS %v != Model %v + Error %v", table.Total.SS, table.Model.SS, table.Error.SS)
	}
	if d := math.Abs(table.Model.SS - (table.Split.SS + table.Treatment.SS)); d > relTol*table.Model.SS {
		t.Errorf("Model SS %v != Split %v + Treatment %v", table.Model.SS, table.Split.SS, table.Treatment.SS)
	}
	if table.Total.DF != table.Model.DF+table.Error.DF {
		t.Errorf("Total DF %d != Model DF %d + Error DF %d", table.Total.DF, table.Model.DF, table.Error.DF)
	}
	if table.RSquared < 0 || table.RSquared > 1 {
		t.Errorf("R-square out of range: %v", table.RSquared)
	}
}

func TestDecomposeConstantResponse(t *testing.T) {
	y := []float64{3, 3, 3, 3, 3, 3}
	splitIdx := []int{0, 0, 0, 1, 1, 1}
	trtIdx := []int{0, 1, 2, 0, 1, 2}

	_, _, err := decompose(y, splitIdx, trtIdx, 2, 3, "Treatment")
	var target *errors.NumericDegeneracyError
	if !errors.As(err, &target) {
		t.Fatalf("error type = %T, want *NumericDegeneracyError", err)
	}
}

func TestDecomposeZeroMeanCoefVar(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(func(w error) {})

	// Values centered on zero: the coefficient of variation is undefined.
	y := []float64{10, -10, 12, -12}
	splitIdx := []int{0, 0, 1, 1}
	trtIdx := []int{0, 1, 0, 1}

	table, _, err := decompose(y, splitIdx, trtIdx, 2, 2, "Treatment")
	if err != nil {
		t.Fatalf("decompose() error = %v", err)
	}
	if table.CoefVar != 0 {
		t.Errorf("coeff var = %v, want 0 at zero grand mean", table.CoefVar)
	}
	var target *errors.UndefinedMetricWarning
	if !errors.As(warned, &target) {
		t.Fatalf("warning type = %T, want *UndefinedMetricWarning", warned)
	}
}

func TestDecomposeNeedsTwoTreatments(t *testing.T) {
	y := []float64{1, 2, 3}
	_, _, err := decompose(y, []int{0, 1, 2}, []int{0, 0, 0}, 3, 1, "Treatment")
	if err == nil {
		t.Fatal("decompose accepted a single treatment")
	}
}

func TestPValueString(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{0.2425, "0.2425"},
		{0.05, "0.0500"},
		{1e-4, "0.0001"},
		{9e-5, "<.0001"},
		{0, "<.0001"},
	}
	for _, tt := range tests {
		if got := (PValue{tt.value}).String(); got != tt.want {
			t.Errorf("PValue(%v).String() = %q, want %q", tt.value, got, tt.want)
		}
	}
}
