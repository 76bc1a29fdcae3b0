// Package evaluation reduces raw per-observation predictions from repeated
// train/test splits into a tidy table of scalar performance values, one row
// per (split, descriptor set, method) combination, and prepares that table
// for the two-factor analysis in package anova.
package evaluation

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modeleval/pkg/errors"
)

// ResponseKind distinguishes continuous from binary 0/1 responses.
type ResponseKind int

const (
	// Continuous marks a numeric response.
	Continuous ResponseKind = iota
	// Binary marks a 0/1 response.
	Binary
)

func (k ResponseKind) String() string {
	if k == Binary {
		return "binary"
	}
	return "continuous"
}

// ResponseVector holds the shared ground-truth values. Immutable once
// constructed; every prediction matrix references the same observation
// ordering.
type ResponseVector struct {
	y    *mat.VecDense
	kind ResponseKind
}

// NewResponseVector wraps values as a response of the given kind. Binary
// responses must contain only 0/1.
func NewResponseVector(values []float64, kind ResponseKind) (*ResponseVector, error) {
	if len(values) == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "NewResponseVector")
	}
	if kind == Binary {
		for _, v := range values {
			if v != 0 && v != 1 {
				return nil, errors.NewValueError("NewResponseVector", "binary response must contain only 0/1 labels")
			}
		}
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return &ResponseVector{y: mat.NewVecDense(len(cp), cp), kind: kind}, nil
}

// Len returns the number of observations.
func (r *ResponseVector) Len() int { return r.y.Len() }

// Kind returns the response kind.
func (r *ResponseVector) Kind() ResponseKind { return r.kind }

// Vec returns the underlying vector. Callers must not mutate it.
func (r *ResponseVector) Vec() *mat.VecDense { return r.y }

// PredictionMatrix is one split's predictions for one descriptor set.
// Column 0 of Data is the observation identifier; columns 1..c-1 hold one
// method's predicted scores each, named by Methods.
type PredictionMatrix struct {
	Data    *mat.Dense
	Methods []string
}

// Validate checks the method names line up with the data columns.
func (pm *PredictionMatrix) Validate() error {
	if pm.Data == nil {
		return errors.NewValueError("PredictionMatrix", "nil data")
	}
	_, c := pm.Data.Dims()
	if c >= 2 && len(pm.Methods) != c-1 {
		return errors.NewDimensionError("PredictionMatrix", c-1, len(pm.Methods), 1)
	}
	return nil
}

// HasMethods reports whether any method columns are present beyond the
// identifier column.
func (pm *PredictionMatrix) HasMethods() bool {
	if pm == nil || pm.Data == nil {
		return false
	}
	_, c := pm.Data.Dims()
	return c > 1
}

// MethodColumn extracts method j's score column as a vector.
func (pm *PredictionMatrix) MethodColumn(j int) *mat.VecDense {
	r, _ := pm.Data.Dims()
	col := make([]float64, r)
	mat.Col(col, j+1, pm.Data)
	return mat.NewVecDense(r, col)
}

// DescriptorSet bundles one descriptor set's prediction matrix and, for a
// binary response, its probability matrix (nil when the trainer produced
// none).
type DescriptorSet struct {
	Name          string
	Predictions   *PredictionMatrix
	Probabilities *PredictionMatrix
}

// Split is one train/test fold assignment with predictions per descriptor
// set. ID is the blocking-factor level in the ANOVA.
type Split struct {
	ID          int
	Descriptors []DescriptorSet
}

// MetricRecord is one row of the tidy table: the scalar metric values for
// one (split, descriptor, method) combination. A NaN value marks a missing
// cell (the model produced no usable score for that split).
//
// Descriptor is the full descriptor-set name and is part of the record's
// identity; Label is the short display form and carries no identity.
type MetricRecord struct {
	Split      int
	Descriptor string
	Label      string
	Method     string
	// Treatment is the dense id of the (Descriptor, Method) pair,
	// assigned by AssignTreatments; 0 until then.
	Treatment int
	Values    map[string]float64
}

type recordKey struct {
	split              int
	descriptor, method string
}

// TreatmentLevel describes one (descriptor, method) combination in
// first-seen order. Degenerate is set when imputation found no valid value
// in any split. Label is the descriptor's display form.
type TreatmentLevel struct {
	ID         int
	Descriptor string
	Label      string
	Method     string
	Degenerate bool
}

// MetricTable is the assembled record set. Records keep insertion order:
// splits in input order, descriptor sets and methods in matrix order, so
// downstream reports are reproducible.
type MetricTable struct {
	Kind    ResponseKind
	Metrics []string

	records    []*MetricRecord
	index      map[recordKey]int
	treatments []TreatmentLevel
}

func newMetricTable(kind ResponseKind, metrics []string) *MetricTable {
	return &MetricTable{
		Kind:    kind,
		Metrics: metrics,
		index:   make(map[recordKey]int),
	}
}

// add inserts a record unless the (split, descriptor, method) triple is
// already present; the first writer wins, which is how probability-based
// estimates shadow prediction-based ones for the same combination.
func (t *MetricTable) add(rec *MetricRecord) {
	key := recordKey{rec.Split, rec.Descriptor, rec.Method}
	if _, ok := t.index[key]; ok {
		return
	}
	t.index[key] = len(t.records)
	t.records = append(t.records, rec)
}

// Records returns the rows in insertion order.
func (t *MetricTable) Records() []*MetricRecord { return t.records }

// Len returns the number of rows.
func (t *MetricTable) Len() int { return len(t.records) }

// Treatments returns the treatment levels in ascending id order, or nil
// before AssignTreatments has run.
func (t *MetricTable) Treatments() []TreatmentLevel { return t.treatments }

// HasMetric reports whether the table carries values for the named metric.
func (t *MetricTable) HasMetric(metric string) bool {
	for _, m := range t.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// SplitIDs returns the distinct split ids in first-seen order.
func (t *MetricTable) SplitIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for _, rec := range t.records {
		if !seen[rec.Split] {
			seen[rec.Split] = true
			ids = append(ids, rec.Split)
		}
	}
	return ids
}

// SingleDescriptor reports whether only one descriptor set is present, in
// which case the treatment factor is semantically "Method" alone.
func (t *MetricTable) SingleDescriptor() bool {
	var first string
	for i, rec := range t.records {
		if i == 0 {
			first = rec.Descriptor
			continue
		}
		if rec.Descriptor != first {
			return false
		}
	}
	return true
}

// descriptorIdentity returns the name a descriptor set is keyed on: the
// trimmed original name, or a positional placeholder when the name is empty
// or a generic "descriptor". Identity never depends on abbreviation, so
// distinct names sharing a prefix stay distinct records.
func descriptorIdentity(name string, i int) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "descriptor") || strings.EqualFold(trimmed, "desc") {
		return fmt.Sprintf("Des%d", i+1)
	}
	return trimmed
}

// descriptorLabels returns one display label per descriptor set: the
// 4-character abbreviation, made unique within the run so two long names
// sharing a prefix remain distinguishable in reports.
func descriptorLabels(descriptors []DescriptorSet) []string {
	labels := make([]string, len(descriptors))
	seen := make(map[string]bool, len(descriptors))
	for i, ds := range descriptors {
		label := abbreviateDescriptor(ds.Name, i)
		if seen[label] {
			label = fmt.Sprintf("Des%d", i+1)
		}
		if seen[label] {
			label = descriptorIdentity(ds.Name, i)
		}
		seen[label] = true
		labels[i] = label
	}
	return labels
}

// abbreviateDescriptor shortens a descriptor display name to at most four
// characters; empty or placeholder names become Des1, Des2, and so on by
// position.
func abbreviateDescriptor(name string, i int) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || strings.EqualFold(trimmed, "descriptor") || strings.EqualFold(trimmed, "desc") {
		return fmt.Sprintf("Des%d", i+1)
	}
	runes := []rune(trimmed)
	if len(runes) > 4 {
		return string(runes[:4])
	}
	return trimmed
}
