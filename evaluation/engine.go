package evaluation

import (
	"log/slog"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modeleval/core/parallel"
	"github.com/YuminosukeSato/modeleval/metrics"
	"github.com/YuminosukeSato/modeleval/pkg/errors"
	"github.com/YuminosukeSato/modeleval/pkg/log"
)

// EvalOptions is the configuration surface of the metric computation
// engine. Zero values select the documented defaults.
type EvalOptions struct {
	// Metrics lists the requested metric names. Continuous responses
	// accept "enhancement", "r2", "rmse", "rho"; binary responses accept
	// "enhancement", "error rate", "sensitivity", "specificity", "ppv",
	// "fmeasure", "auc".
	Metrics []string

	// Depth is the evaluation depth m. Zero means auto:
	// min(300, ceil(n/4)) for enhancement, the full set otherwise.
	// A positive depth also opts the contingency metrics into the
	// top-m-ranked subset.
	Depth int

	// Threshold is the probability cut for classifying an observation as
	// positive. Zero means the 0.5 default.
	Threshold float64
}

var continuousMetrics = map[string]bool{
	"enhancement": true,
	"r2":          true,
	"rmse":        true,
	"rho":         true,
}

var binaryMetrics = map[string]bool{
	"enhancement": true,
	"error rate":  true,
	"sensitivity": true,
	"specificity": true,
	"ppv":         true,
	"fmeasure":    true,
	"auc":         true,
}

// DefaultEnhancementDepth returns the auto depth for enhancement:
// min(300, ceil(n/4)).
func DefaultEnhancementDepth(n int) int {
	m := (n + 3) / 4
	if m > 300 {
		m = 300
	}
	if m < 1 {
		m = 1
	}
	return m
}

// ComputeMetrics evaluates every requested metric for every split,
// descriptor set and method column and assembles the tidy metric table.
//
// For a binary response two passes run per split: first over the
// probability matrices, then over the hard-prediction matrices. When both
// passes cover the same (split, descriptor, method) combination the
// probability-based estimate wins. Splits are evaluated in parallel; output
// row order is deterministic regardless.
func ComputeMetrics(splits []Split, response *ResponseVector, opts EvalOptions) (*MetricTable, error) {
	if response == nil || response.Len() == 0 {
		return nil, errors.NewValueError("ComputeMetrics", "empty response")
	}
	if len(splits) == 0 {
		return nil, errors.NewValueError("ComputeMetrics", "no splits")
	}
	if len(opts.Metrics) == 0 {
		return nil, errors.NewValueError("ComputeMetrics", "no metrics requested")
	}

	n := response.Len()
	if opts.Depth < 0 {
		return nil, errors.NewValueError("ComputeMetrics", "evaluation depth must not be negative")
	}
	if opts.Depth > n {
		return nil, errors.NewInvalidDepthError(opts.Depth, n)
	}
	if err := validateMetrics(opts.Metrics, response.Kind()); err != nil {
		return nil, err
	}

	thresh := opts.Threshold
	if thresh == 0 {
		thresh = metrics.DefaultThreshold
	}
	if thresh <= 0 || thresh >= 1 {
		return nil, errors.NewValueError("ComputeMetrics", "threshold must be in (0, 1)")
	}

	for _, sp := range splits {
		for _, ds := range sp.Descriptors {
			for _, pm := range []*PredictionMatrix{ds.Predictions, ds.Probabilities} {
				if pm == nil {
					continue
				}
				if err := pm.Validate(); err != nil {
					return nil, err
				}
				if r, _ := pm.Data.Dims(); r != n {
					return nil, errors.NewDimensionError("ComputeMetrics", n, r, 0)
				}
			}
		}
	}

	// Each split writes into its own slot; flattening afterwards keeps
	// the (split, descriptor, method) insertion order deterministic.
	start := time.Now()
	perSplit := make([][]*MetricRecord, len(splits))
	splitErrs := make([]error, len(splits))

	parallel.ParallelizeWithThreshold(len(splits), 1, func(start, end int) {
		for i := start; i < end; i++ {
			perSplit[i], splitErrs[i] = evaluateSplit(&splits[i], response, opts.Metrics, opts.Depth, thresh)
		}
	})

	for i, err := range splitErrs {
		if err != nil {
			return nil, errors.Wrapf(err, "split %d", splits[i].ID)
		}
	}

	table := newMetricTable(response.Kind(), opts.Metrics)
	for i, recs := range perSplit {
		for _, rec := range recs {
			table.add(rec)
		}
		slog.Debug("split evaluated",
			log.SplitKey, splits[i].ID,
			log.RowsKey, len(recs),
			log.ObservationsKey, n,
		)
	}
	slog.Debug("metric table assembled",
		log.RowsKey, table.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return table, nil
}

func validateMetrics(names []string, kind ResponseKind) error {
	known := continuousMetrics
	if kind == Binary {
		known = binaryMetrics
	}
	for _, name := range names {
		if !known[name] {
			return errors.NewUnsupportedMetricError(name, kind.String())
		}
	}
	return nil
}

// evaluateSplit produces the records of one split. For a binary response
// the probability pass runs first, so its records take the slot when the
// prediction pass revisits the same combination.
func evaluateSplit(sp *Split, response *ResponseVector, names []string, depth int, thresh float64) ([]*MetricRecord, error) {
	var recs []*MetricRecord

	labels := descriptorLabels(sp.Descriptors)
	appendPass := func(pick func(DescriptorSet) *PredictionMatrix) error {
		for di, ds := range sp.Descriptors {
			pm := pick(ds)
			if pm == nil || !pm.HasMethods() {
				continue
			}
			name := descriptorIdentity(ds.Name, di)
			for j, method := range pm.Methods {
				scores := pm.MethodColumn(j)
				values, err := evaluateColumn(scores, response, names, depth, thresh)
				if err != nil {
					return errors.Wrapf(err, "descriptor %s method %s", name, method)
				}
				recs = append(recs, &MetricRecord{
					Split:      sp.ID,
					Descriptor: name,
					Label:      labels[di],
					Method:     method,
					Values:     values,
				})
			}
		}
		return nil
	}

	if response.Kind() == Binary {
		if err := appendPass(func(ds DescriptorSet) *PredictionMatrix { return ds.Probabilities }); err != nil {
			return nil, err
		}
	}
	if err := appendPass(func(ds DescriptorSet) *PredictionMatrix { return ds.Predictions }); err != nil {
		return nil, err
	}
	return recs, nil
}

// evaluateColumn computes every requested metric for one method's score
// column. A column containing NaN marks a model that failed on this split:
// all its values are recorded as missing for the imputer to fill.
func evaluateColumn(scores *mat.VecDense, response *ResponseVector, names []string, depth int, thresh float64) (map[string]float64, error) {
	values := make(map[string]float64, len(names))

	if hasNaN(scores) {
		for _, name := range names {
			values[name] = math.NaN()
		}
		return values, nil
	}

	n := response.Len()
	y := response.Vec()

	for _, name := range names {
		var v float64
		var err error
		switch name {
		case "enhancement":
			m := depth
			if m == 0 {
				m = DefaultEnhancementDepth(n)
			}
			v, err = metrics.Enhancement(scores, y, m)
		case "r2":
			v, err = metrics.RSquared(y, scores)
		case "rmse":
			v, err = metrics.RMSE(y, scores)
		case "rho":
			v, err = metrics.SpearmanRho(y, scores)
		case "auc":
			v, err = metrics.AUC(scores, y)
		case "error rate":
			v, err = metrics.ErrorRate(scores, y, thresh, depth)
		case "sensitivity":
			v, err = metrics.Sensitivity(scores, y, thresh, depth)
		case "specificity":
			v, err = metrics.Specificity(scores, y, thresh, depth)
		case "ppv":
			v, err = metrics.PPV(scores, y, thresh, depth)
		case "fmeasure":
			v, err = metrics.FMeasure(scores, y, thresh, depth)
		default:
			err = errors.NewUnsupportedMetricError(name, response.Kind().String())
		}
		if err != nil {
			return nil, err
		}
		values[name] = v
	}
	return values, nil
}

func hasNaN(v *mat.VecDense) bool {
	for i := 0; i < v.Len(); i++ {
		if math.IsNaN(v.AtVec(i)) {
			return true
		}
	}
	return false
}
