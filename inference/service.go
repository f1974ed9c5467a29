// Package inference validates prediction requests, runs the loaded
// classifier and serves the stored metrics report.
package inference

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"irisserve/artifact"
)

// State is the service lifecycle. A service never returns to Uninitialized.
type State int

const (
	Uninitialized State = iota
	Ready
)

func (s State) String() string {
	if s == Ready {
		return "ready"
	}
	return "uninitialized"
}

// Option configures a Service.
type Option func(*options)

type options struct {
	cacheSize int
	logger    *zap.Logger
}

// WithPredictionCache memoizes up to size predictions. Zero disables caching.
func WithPredictionCache(size int) Option {
	return func(o *options) { o.cacheSize = size }
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// Service is safe for concurrent use. All state is fixed at construction.
type Service struct {
	store       *artifact.Store
	cause       error
	cache       *predictionCache
	logger      *zap.Logger
	metricsJSON []byte
}

// NewService returns a Ready service over store.
func NewService(store *artifact.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("new inference service: %w", ErrNotReady)
	}
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Service{store: store, logger: o.logger}
	if o.cacheSize > 0 {
		cache, err := newPredictionCache(o.cacheSize)
		if err != nil {
			return nil, err
		}
		s.cache = cache
	}
	if report, ok := store.Metrics(); ok {
		payload, err := json.Marshal(report)
		if err != nil {
			return nil, fmt.Errorf("encode metrics report: %w", err)
		}
		s.metricsJSON = payload
	}
	return s, nil
}

// Unavailable returns an Uninitialized service whose operations fail with a
// *NotReadyError wrapping cause.
func Unavailable(cause error) *Service {
	return &Service{cause: cause, logger: zap.NewNop()}
}

func (s *Service) State() State {
	if s == nil || s.store == nil {
		return Uninitialized
	}
	return Ready
}

// HasMetrics reports whether a metrics report is being served.
func (s *Service) HasMetrics() bool {
	return s.State() == Ready && s.metricsJSON != nil
}

func (s *Service) notReady() error {
	if s == nil {
		return &NotReadyError{}
	}
	return &NotReadyError{Cause: s.cause}
}

// Predict classifies a single feature vector. It does no I/O, so a cancelled
// ctx does not abort it.
func (s *Service) Predict(ctx context.Context, v FeatureVector) (ClassLabel, error) {
	if s.State() != Ready {
		return 0, s.notReady()
	}
	if err := v.Validate(); err != nil {
		return 0, err
	}
	if label, ok := s.cache.get(v); ok {
		return label, nil
	}

	features, err := v.Ordered(s.store.FeatureNames())
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	idx, err := s.store.Classifier().Predict(features)
	if err != nil {
		s.logger.Error("classifier prediction failed",
			zap.Float64s("features", features),
			zap.Error(err),
		)
		return 0, fmt.Errorf("%w: %v", ErrClassifier, err)
	}
	label, err := LabelFromIndex(idx)
	if err != nil {
		s.logger.Error("classifier returned class index outside label set",
			zap.Int("index", idx),
			zap.Float64s("features", features),
			zap.Int("num_classes", NumClasses),
		)
		return 0, err
	}
	s.cache.add(v, label)
	return label, nil
}

// Metrics returns a copy of the stored report.
func (s *Service) Metrics(ctx context.Context) (*artifact.MetricsReport, error) {
	if s.State() != Ready {
		return nil, s.notReady()
	}
	report, ok := s.store.Metrics()
	if !ok {
		return nil, ErrMetricsUnavailable
	}
	return report, nil
}

// MetricsJSON returns the report encoded once at construction. Callers must
// not modify the returned slice.
func (s *Service) MetricsJSON() ([]byte, error) {
	if s.State() != Ready {
		return nil, s.notReady()
	}
	if s.metricsJSON == nil {
		return nil, ErrMetricsUnavailable
	}
	return s.metricsJSON, nil
}

// FeatureNames returns the classifier's feature order.
func (s *Service) FeatureNames() ([]string, error) {
	if s.State() != Ready {
		return nil, s.notReady()
	}
	return s.store.FeatureNames(), nil
}

func (s *Service) cachedPredictions() int {
	return s.cache.len()
}
