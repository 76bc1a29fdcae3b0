package metrics

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/modeleval/pkg/errors"
)

// DefaultThreshold is the probability cut used to classify an observation
// as positive when no threshold is configured.
const DefaultThreshold = 0.5

// contingency holds the 2x2 table of a thresholded binary classifier.
type contingency struct {
	tp, fp, tn, fn int
}

func (c contingency) total() int {
	return c.tp + c.fp + c.tn + c.fn
}

// buildContingency thresholds the probabilities and counts the 2x2 table.
// When 0 < m < n the table is restricted to the m observations ranked
// highest by predicted probability; m = 0 means the full set.
func buildContingency(op string, probs, yTrue *mat.VecDense, thresh float64, m int) (contingency, error) {
	n, err := validatePair(op, yTrue, probs)
	if err != nil {
		return contingency{}, err
	}
	if thresh <= 0 || thresh >= 1 {
		return contingency{}, errors.NewValueError(op, "threshold must be in (0, 1)")
	}
	if m < 0 {
		return contingency{}, errors.NewValueError(op, "depth m must not be negative")
	}
	if m > n {
		return contingency{}, errors.NewInvalidDepthError(m, n)
	}
	if err := checkBinary(op, yTrue); err != nil {
		return contingency{}, err
	}

	idx := make([]int, 0, n)
	if m > 0 && m < n {
		order := DescendingOrder(probs)
		idx = append(idx, order[:m]...)
	} else {
		for i := 0; i < n; i++ {
			idx = append(idx, i)
		}
	}

	var c contingency
	for _, i := range idx {
		predicted := probs.AtVec(i) > thresh
		actual := yTrue.AtVec(i) == 1
		switch {
		case predicted && actual:
			c.tp++
		case predicted && !actual:
			c.fp++
		case !predicted && actual:
			c.fn++
		default:
			c.tn++
		}
	}
	return c, nil
}

// checkBinary fails with a ValueError unless every value is 0 or 1.
func checkBinary(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "response must contain only 0/1 labels")
		}
	}
	return nil
}

// ErrorRate computes the misclassification rate of the thresholded
// classifier. With all probabilities on the wrong side of the threshold
// this is exactly 1.
func ErrorRate(probs, yTrue *mat.VecDense, thresh float64, m int) (float64, error) {
	c, err := buildContingency("ErrorRate", probs, yTrue, thresh, m)
	if err != nil {
		return 0, err
	}
	return float64(c.fp+c.fn) / float64(c.total()), nil
}

// Sensitivity computes the true positive rate TP/(TP+FN).
func Sensitivity(probs, yTrue *mat.VecDense, thresh float64, m int) (float64, error) {
	c, err := buildContingency("Sensitivity", probs, yTrue, thresh, m)
	if err != nil {
		return 0, err
	}
	if c.tp+c.fn == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("sensitivity", "no actual positives", 0))
		return 0, nil
	}
	return float64(c.tp) / float64(c.tp+c.fn), nil
}

// Specificity computes the true negative rate TN/(TN+FP).
func Specificity(probs, yTrue *mat.VecDense, thresh float64, m int) (float64, error) {
	c, err := buildContingency("Specificity", probs, yTrue, thresh, m)
	if err != nil {
		return 0, err
	}
	if c.tn+c.fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("specificity", "no actual negatives", 0))
		return 0, nil
	}
	return float64(c.tn) / float64(c.tn+c.fp), nil
}

// PPV computes the positive predictive value (precision) TP/(TP+FP).
func PPV(probs, yTrue *mat.VecDense, thresh float64, m int) (float64, error) {
	c, err := buildContingency("PPV", probs, yTrue, thresh, m)
	if err != nil {
		return 0, err
	}
	if c.tp+c.fp == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("ppv", "no predicted positives", 0))
		return 0, nil
	}
	return float64(c.tp) / float64(c.tp+c.fp), nil
}

// FMeasure computes the harmonic mean of precision and sensitivity.
func FMeasure(probs, yTrue *mat.VecDense, thresh float64, m int) (float64, error) {
	c, err := buildContingency("FMeasure", probs, yTrue, thresh, m)
	if err != nil {
		return 0, err
	}
	var ppv, sens float64
	if c.tp+c.fp > 0 {
		ppv = float64(c.tp) / float64(c.tp+c.fp)
	}
	if c.tp+c.fn > 0 {
		sens = float64(c.tp) / float64(c.tp+c.fn)
	}
	if ppv+sens == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("fmeasure", "zero precision and sensitivity", 0))
		return 0, nil
	}
	return 2 * ppv * sens / (ppv + sens), nil
}

// AUC computes the area under the ROC curve over the full ranking using
// the rank-sum (Mann-Whitney) formulation with tied probabilities given
// midranks. A response with a single class present is an undefined case
// and yields 0.5 with an UndefinedMetricWarning.
func AUC(probs, yTrue *mat.VecDense) (float64, error) {
	n, err := validatePair("AUC", yTrue, probs)
	if err != nil {
		return 0, err
	}
	if err := checkBinary("AUC", yTrue); err != nil {
		return 0, err
	}

	var nPos int
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
		}
	}
	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present", 0.5))
		return 0.5, nil
	}

	ranks := AverageRanks(probs)
	var rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			rankSum += ranks[i]
		}
	}
	// U statistic over the number of (positive, negative) pairs.
	u := rankSum - float64(nPos)*float64(nPos+1)/2
	return u / (float64(nPos) * float64(nNeg)), nil
}
