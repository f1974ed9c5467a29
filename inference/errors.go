package inference

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is a client input error.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnknownClassIndex means the classifier and the label set disagree.
	ErrUnknownClassIndex = errors.New("unknown class index")
	// ErrMetricsUnavailable means no metrics report was loaded.
	ErrMetricsUnavailable = errors.New("metrics unavailable")
	// ErrNotReady means the service never finished loading its artifacts.
	ErrNotReady = errors.New("inference service not ready")
	// ErrClassifier wraps failures raised by the classifier itself.
	ErrClassifier = errors.New("classifier failure")
)

// InvalidInputError names the offending feature.
type InvalidInputError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid value for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid value for %s: %v is not a finite number", e.Field, e.Value)
}

func (e *InvalidInputError) Is(target error) bool { return target == ErrInvalidInput }

type UnknownClassIndexError struct {
	Index int
}

func (e *UnknownClassIndexError) Error() string {
	return fmt.Sprintf("classifier returned class index %d outside 0..%d", e.Index, NumClasses-1)
}

func (e *UnknownClassIndexError) Is(target error) bool { return target == ErrUnknownClassIndex }

// NotReadyError is returned by every operation of an uninitialized service.
// Cause is the artifact load failure, if one was recorded.
type NotReadyError struct {
	Cause error
}

func (e *NotReadyError) Error() string {
	if e.Cause == nil {
		return ErrNotReady.Error()
	}
	return fmt.Sprintf("%s: %v", ErrNotReady, e.Cause)
}

func (e *NotReadyError) Is(target error) bool { return target == ErrNotReady }

func (e *NotReadyError) Unwrap() error { return e.Cause }

// IsClientError reports whether err was caused by the request rather than the service.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}
