package types

import "slices"

// StrategyName identifies a deserialization strategy.
type StrategyName string

// Strategy names in the order the loader attempts them.
const (
	StrategyRawArray      StrategyName = "raw-array"
	StrategyGenericObject StrategyName = "generic-object"
	StrategyTabular       StrategyName = "tabular"
)

// Cause classifies why a load failed. It is informational only.
type Cause string

// Failure causes.
const (
	CauseNone       Cause = ""
	CauseMissing    Cause = "missing"
	CauseUnreadable Cause = "unreadable"
	CauseCorrupt    Cause = "corrupt"
)

// Attempt is the outcome of one strategy against one file.
type Attempt struct {
	Strategy StrategyName

	// Err is the underlying error; nil on success.
	Err error

	// Diagnostic is Err's message truncated to the loader's preview length.
	Diagnostic string
}

// Succeeded reports whether the attempt produced a dataset.
func (a Attempt) Succeeded() bool { return a.Err == nil }

// LoadResult is the outcome of loading one file. It is immutable once
// returned by the loader.
type LoadResult struct {
	path        string
	description string
	data        Dataset
	strategy    StrategyName
	attempts    []Attempt
	cause       Cause
}

// NewSuccess builds a result for data produced by strategy after attempts.
// The last attempt is expected to be the successful one.
func NewSuccess(path, description string, data Dataset, strategy StrategyName, attempts []Attempt) *LoadResult {
	return &LoadResult{
		path:        path,
		description: description,
		data:        data,
		strategy:    strategy,
		attempts:    slices.Clone(attempts),
	}
}

// NewFailure builds a terminal failure carrying every attempt.
func NewFailure(path, description string, attempts []Attempt, cause Cause) *LoadResult {
	return &LoadResult{
		path:        path,
		description: description,
		attempts:    slices.Clone(attempts),
		cause:       cause,
	}
}

// OK reports whether a strategy succeeded.
func (r *LoadResult) OK() bool { return r.data != nil }

// Data returns the loaded dataset, or nil on failure.
func (r *LoadResult) Data() Dataset { return r.data }

// Strategy returns the strategy that succeeded, or "" on failure.
func (r *LoadResult) Strategy() StrategyName { return r.strategy }

// Path returns the loaded file path.
func (r *LoadResult) Path() string { return r.path }

// Description returns the caller's label.
func (r *LoadResult) Description() string { return r.description }

// Cause returns the failure classification, or CauseNone on success.
func (r *LoadResult) Cause() Cause { return r.cause }

// Attempts returns a copy of every attempt in order.
func (r *LoadResult) Attempts() []Attempt { return slices.Clone(r.attempts) }

// Failures returns the failed attempts in order.
func (r *LoadResult) Failures() []Attempt {
	var out []Attempt
	for _, a := range r.attempts {
		if !a.Succeeded() {
			out = append(out, a)
		}
	}
	return out
}

// Diagnostics returns the truncated error messages of failed attempts in
// order.
func (r *LoadResult) Diagnostics() []string {
	var out []string
	for _, a := range r.attempts {
		if !a.Succeeded() {
			out = append(out, a.Diagnostic)
		}
	}
	return out
}

// Len returns the loaded element count, or 0 on failure.
func (r *LoadResult) Len() int {
	if r.data == nil {
		return 0
	}
	return r.data.Len()
}
