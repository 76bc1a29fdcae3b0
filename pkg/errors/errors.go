// Package errors provides the error handling and warning system for the
// whole project. Errors are structured types carrying cockroachdb/errors
// stack traces; warnings are error-shaped values routed through a global
// handler so callers can decide whether a degenerate treatment or an
// ill-defined metric aborts a run or merely gets logged.
package errors

import (
	"fmt"
	"log"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Global warning handling
//
// ===========================================================================

var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// Default handler logs to the standard logger.
		log.Printf("modeleval-warning: %v\n", w)
	}
	// zerolog sink, injected lazily to avoid an import cycle with pkg/log.
	zerologWarnFunc func(warning error)
)

// SetWarningHandler replaces the library-wide warning handler.
// Passing a no-op function silences all warnings.
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc installs a zerolog-backed warning sink. When set it
// takes precedence over the plain handler.
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn emits a warning through the configured sink.
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	Warning types
//
// ===========================================================================

// DegenerateTreatmentWarning is emitted when every split is missing a value
// for one treatment, so the imputer fell back to zero. The treatment stays
// in the analysis but its mean is meaningless ("bad model").
type DegenerateTreatmentWarning struct {
	Treatment  int
	Descriptor string
	Method     string
	Metric     string
}

func (w *DegenerateTreatmentWarning) Error() string {
	return fmt.Sprintf("treatment %d (%s/%s) has no valid %s value in any split; imputed to zero",
		w.Treatment, w.Descriptor, w.Method, w.Metric)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *DegenerateTreatmentWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Int("treatment", w.Treatment).
		Str("descriptor", w.Descriptor).
		Str("method", w.Method).
		Str("metric", w.Metric).
		Str("type", "DegenerateTreatmentWarning")
}

// NewDegenerateTreatmentWarning creates a new DegenerateTreatmentWarning.
func NewDegenerateTreatmentWarning(treatment int, descriptor, method, metric string) *DegenerateTreatmentWarning {
	return &DegenerateTreatmentWarning{Treatment: treatment, Descriptor: descriptor, Method: method, Metric: metric}
}

// UndefinedMetricWarning is emitted when a metric is ill-defined for the
// given input, e.g. precision with no predicted positives or AUC with a
// single class present. Result is the value returned in that condition.
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject adds structured warning fields to a zerolog event.
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning creates a new UndefinedMetricWarning.
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	Structured error types
//
// ===========================================================================

// UnsupportedMetricError is returned when a requested metric does not apply
// to the response type, e.g. RMSE on a binary response. This is a fatal
// configuration error, surfaced before any computation runs.
type UnsupportedMetricError struct {
	Metric       string
	ResponseKind string
}

func (e *UnsupportedMetricError) Error() string {
	return fmt.Sprintf("modeleval: metric %q is not supported for a %s response", e.Metric, e.ResponseKind)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *UnsupportedMetricError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("metric", e.Metric).
		Str("response_kind", e.ResponseKind).
		Str("type", "UnsupportedMetricError")
}

// NewUnsupportedMetricError creates a new UnsupportedMetricError with a stack trace.
func NewUnsupportedMetricError(metric, responseKind string) error {
	err := &UnsupportedMetricError{Metric: metric, ResponseKind: responseKind}
	return errors.WithStack(err)
}

// InvalidDepthError is returned when the evaluation depth m exceeds the
// number of observations. Checked before any metric is computed.
type InvalidDepthError struct {
	Depth        int
	Observations int
}

func (e *InvalidDepthError) Error() string {
	return fmt.Sprintf("modeleval: evaluation depth %d exceeds the number of observations %d", e.Depth, e.Observations)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *InvalidDepthError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("depth", e.Depth).
		Int("observations", e.Observations).
		Str("type", "InvalidDepthError")
}

// NewInvalidDepthError creates a new InvalidDepthError with a stack trace.
func NewInvalidDepthError(depth, observations int) error {
	err := &InvalidDepthError{Depth: depth, Observations: observations}
	return errors.WithStack(err)
}

// NumericDegeneracyError is returned when a statistic cannot be computed
// without producing NaN or Inf: zero-variance input to a correlation, a
// zero error mean square under an F statistic, a singular design matrix.
// Failing loudly here keeps NaN out of the report.
type NumericDegeneracyError struct {
	Op     string
	Reason string
}

func (e *NumericDegeneracyError) Error() string {
	return fmt.Sprintf("modeleval: %s: numeric degeneracy: %s", e.Op, e.Reason)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *NumericDegeneracyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("reason", e.Reason).
		Str("type", "NumericDegeneracyError")
}

// NewNumericDegeneracyError creates a new NumericDegeneracyError with a stack trace.
func NewNumericDegeneracyError(op, reason string) error {
	err := &NumericDegeneracyError{Op: op, Reason: reason}
	return errors.WithStack(err)
}

// DimensionError is returned when aligned inputs disagree in length.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns
}

func (e *DimensionError) Error() string {
	axisName := "columns"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("modeleval: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error fields to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ValueError is returned when an argument value is invalid, e.g. a
// classification threshold outside (0,1) or an empty response vector.
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("modeleval: %s: %s", e.Op, e.Message)
}

// NewValueError creates a new ValueError with a stack trace.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates an error with a stack trace.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error variables
//
// ===========================================================================

var (
	// ErrEmptyData is returned when empty data is passed in.
	ErrEmptyData = New("empty data")

	// ErrSingularMatrix is returned when a design matrix cannot be solved.
	ErrSingularMatrix = New("singular matrix")
)
