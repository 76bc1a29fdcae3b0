package anova

import "fmt"

// PValue carries a numeric p-value together with its display convention:
// values below 1e-4 render as "<.0001" while the exact number stays
// available for programmatic checks.
type PValue struct {
	Value float64
}

func (p PValue) String() string {
	if p.Value < 1e-4 {
		return "<.0001"
	}
	return fmt.Sprintf("%.4f", p.Value)
}
