package anova

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/stat/distuv"
)

// For two groups the studentized range is sqrt(2)|t|, so the adjusted
// p-value must equal the two-sided t p-value on the same degrees of
// freedom. This cross-checks the quadrature against an independent
// implementation.
func TestStudentizedRangeTwoGroupIdentity(t *testing.T) {
	for _, df := range []float64{2, 5, 10, 30} {
		for _, q := range []float64{0.5, 1, 2, 3.5, 5} {
			sr := StudentizedRange{K: 2, Df: df}
			tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}

			got := sr.Survival(q)
			want := 2 * tDist.Survival(q/math.Sqrt2)
			if math.Abs(got-want) > 5e-4 {
				t.Errorf("Survival(q=%v, k=2, df=%v) = %v, want %v (t identity)", q, df, got, want)
			}
		}
	}
}

// Upper 5% critical values from the standard studentized range tables.
func TestStudentizedRangeCriticalValues(t *testing.T) {
	tests := []struct {
		k  int
		df float64
		q  float64
	}{
		{3, 10, 3.877},
		{4, 20, 3.958},
		{5, 60, 3.977},
		{3, math.Inf(1), 3.314},
	}

	for _, tt := range tests {
		sr := StudentizedRange{K: tt.k, Df: tt.df}
		got := sr.Survival(tt.q)
		if math.Abs(got-0.05) > 2e-3 {
			t.Errorf("Survival(q=%v, k=%d, df=%v) = %v, want 0.05", tt.q, tt.k, tt.df, got)
		}
	}
}

func TestStudentizedRangeCDFShape(t *testing.T) {
	sr := StudentizedRange{K: 4, Df: 12}

	if got := sr.CDF(0); got != 0 {
		t.Errorf("CDF(0) = %v, want 0", got)
	}
	if got := sr.CDF(-1); got != 0 {
		t.Errorf("CDF(-1) = %v, want 0", got)
	}
	if got := sr.CDF(50); got < 0.9999 {
		t.Errorf("CDF(50) = %v, want ~1", got)
	}

	prev := 0.0
	for q := 0.5; q <= 8; q += 0.5 {
		cur := sr.CDF(q)
		if cur < prev-1e-9 {
			t.Fatalf("CDF not monotone at q=%v: %v < %v", q, cur, prev)
		}
		if cur < 0 || cur > 1 {
			t.Fatalf("CDF(%v) = %v out of [0,1]", q, cur)
		}
		prev = cur
	}
}

func TestStudentizedRangeInfiniteDf(t *testing.T) {
	// With effectively infinite df the scale integral must vanish:
	// a huge finite df and Inf agree.
	big := StudentizedRange{K: 3, Df: 2e5}
	inf := StudentizedRange{K: 3, Df: math.Inf(1)}
	for _, q := range []float64{1, 2, 3, 4} {
		if d := math.Abs(big.CDF(q) - inf.CDF(q)); d > 1e-4 {
			t.Errorf("CDF mismatch at q=%v between df=2e5 and df=Inf: %v", q, d)
		}
	}
}

func TestStudentizedRangeInvalidParams(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("K=1 did not panic")
		}
	}()
	StudentizedRange{K: 1, Df: 10}.CDF(1)
}
