package ratemod

import (
	"errors"
	"strings"
)

// Sentinel errors for the model core. Callers match them with errors.Is;
// call sites wrap them with context via fmt.Errorf and %w.
var (
	// ErrLoad indicates a model source that could not be parsed or that
	// contains no recognizable model.
	ErrLoad = errors.New("cannot load model")

	// ErrUnsupportedFormat indicates an unknown model language tag.
	ErrUnsupportedFormat = errors.New("unsupported model format")

	// ErrUnknownEntity indicates an id that is not present in the model
	// although its existence was assumed.
	ErrUnknownEntity = errors.New("unknown entity")

	// ErrUnresolvedReference indicates an estimated-parameter reference
	// with no corresponding nominal value.
	ErrUnresolvedReference = errors.New("unresolved parameter reference")

	// ErrNotSupported indicates an operation that is meaningless for the
	// model variant it was invoked on.
	ErrNotSupported = errors.New("operation not supported for this model variant")
)

// ValidationError collects multiple validation issues
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid model: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "model validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}
