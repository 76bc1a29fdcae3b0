package evaluation

import (
	"log/slog"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/YuminosukeSato/modeleval/pkg/errors"
	"github.com/YuminosukeSato/modeleval/pkg/log"
)

// AssignTreatments maps every (descriptor, method) pair to a dense 1-based
// treatment id in first-seen order and annotates each record with it. The
// mapping is an opaque dictionary, so any number of methods per descriptor
// set is fine, and ascending id order equals first-occurrence order.
// Calling it again reassigns from scratch and returns the same levels.
func (t *MetricTable) AssignTreatments() []TreatmentLevel {
	type pairKey struct{ descriptor, method string }
	ids := make(map[pairKey]int)
	t.treatments = t.treatments[:0]

	for _, rec := range t.records {
		key := pairKey{rec.Descriptor, rec.Method}
		id, ok := ids[key]
		if !ok {
			id = len(t.treatments) + 1
			ids[key] = id
			label := rec.Label
			if label == "" {
				label = rec.Descriptor
			}
			t.treatments = append(t.treatments, TreatmentLevel{
				ID:         id,
				Descriptor: rec.Descriptor,
				Label:      label,
				Method:     rec.Method,
			})
		}
		rec.Treatment = id
	}
	return t.treatments
}

// Impute fills missing cells of the named metric with the mean of the
// treatment's non-missing values across splits. Per-treatment means are
// computed over the original table before any cell is touched, so the
// result does not depend on row order and re-running on a complete table
// is a no-op.
//
// A treatment with no valid value in any split is imputed to zero, flagged
// degenerate and reported through the warning handler: the treatment stays
// in the analysis as a known bad model.
func (t *MetricTable) Impute(metric string) error {
	if !t.HasMetric(metric) {
		return errors.NewUnsupportedMetricError(metric, t.Kind.String())
	}
	if len(t.treatments) == 0 {
		t.AssignTreatments()
	}

	// Pool the non-missing values per treatment first; mutating while
	// scanning would make later rows see partially imputed means.
	pools := make(map[int][]float64)
	for _, rec := range t.records {
		v, ok := rec.Values[metric]
		if !ok || math.IsNaN(v) {
			continue
		}
		pools[rec.Treatment] = append(pools[rec.Treatment], v)
	}

	means := make(map[int]float64, len(t.treatments))
	for i := range t.treatments {
		level := &t.treatments[i]
		pool := pools[level.ID]
		if len(pool) == 0 {
			means[level.ID] = 0
			if !level.Degenerate {
				level.Degenerate = true
				w := errors.NewDegenerateTreatmentWarning(level.ID, level.Descriptor, level.Method, metric)
				errors.Warn(w)
				slog.Warn("degenerate treatment imputed to zero",
					log.TreatmentKey, level.ID,
					log.DescriptorKey, level.Descriptor,
					log.MethodKey, level.Method,
					log.MetricKey, metric,
				)
			}
			continue
		}
		mean, err := stats.Mean(pool)
		if err != nil {
			return errors.Wrap(err, "Impute")
		}
		means[level.ID] = mean
	}

	for _, rec := range t.records {
		if v, ok := rec.Values[metric]; ok && !math.IsNaN(v) {
			continue
		}
		rec.Values[metric] = means[rec.Treatment]
	}
	return nil
}
