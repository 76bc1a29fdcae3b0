package log

// Standard attribute keys. Using the same keys everywhere keeps the log
// stream filterable by metric, split or treatment.
const (
	// ErrAttrKey is the attribute under which errors are logged; the
	// ErrFmtHandler extracts stack traces from it.
	ErrAttrKey = "error"

	// StacktraceAttrKey carries the extracted stack trace.
	StacktraceAttrKey = "stacktrace"

	// MetricKey names the performance metric being computed or analyzed.
	// Examples: "enhancement", "auc", "rmse"
	MetricKey = "eval.metric"

	// SplitKey identifies the train/test split being evaluated.
	SplitKey = "eval.split"

	// DescriptorKey names the descriptor set.
	DescriptorKey = "eval.descriptor"

	// MethodKey names the modeling method.
	MethodKey = "eval.method"

	// TreatmentKey carries the dense treatment id of a
	// (descriptor, method) combination.
	TreatmentKey = "eval.treatment"

	// ObservationsKey is the number of observations in the response.
	ObservationsKey = "data.observations"

	// RowsKey is the number of rows in a metric table.
	RowsKey = "data.rows"

	// DurationMsKey is the elapsed wall time of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"
)
