// Package artifact loads the classifier, feature names and metrics report
// produced by training and holds them read-only for the process lifetime.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"irisserve/ml"
)

// DefaultClassCount is the size of the iris label set.
const DefaultClassCount = 3

// Paths locates the three artifacts on disk.
type Paths struct {
	Model        string
	ModelType    string
	FeatureNames string
	Metrics      string
}

// LoadOptions controls how strictly Load treats the metrics artifact.
type LoadOptions struct {
	// RequireMetrics makes a missing metrics file fatal. When false the store
	// loads without metrics.
	RequireMetrics bool
	// ClassCount is the number of classes metrics must cover. Zero means
	// DefaultClassCount.
	ClassCount int
}

// Store owns the loaded artifacts. It has no mutating methods, so it is safe
// to share across goroutines.
type Store struct {
	classifier   ml.Classifier
	featureNames []string
	metrics      *MetricsReport
}

// Load reads every artifact. Any failure is an *ArtifactLoadError and no
// partially loaded store is returned.
func Load(paths Paths, opts LoadOptions) (*Store, error) {
	if err := requireFile(KindClassifier, paths.Model); err != nil {
		return nil, err
	}
	classifier, err := ml.LoadModel(paths.ModelType, paths.Model)
	if err != nil {
		return nil, loadError(KindClassifier, paths.Model, err)
	}

	if err := requireFile(KindFeatureNames, paths.FeatureNames); err != nil {
		return nil, err
	}
	names, err := loadFeatureNames(paths.FeatureNames)
	if err != nil {
		return nil, loadError(KindFeatureNames, paths.FeatureNames, err)
	}

	var metrics *MetricsReport
	switch err := requireFile(KindMetrics, paths.Metrics); {
	case err == nil:
		metrics, err = loadMetrics(paths.Metrics)
		if err != nil {
			return nil, loadError(KindMetrics, paths.Metrics, err)
		}
	case opts.RequireMetrics || !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	store, err := NewStore(classifier, names, metrics, opts.ClassCount)
	if err != nil {
		return nil, err
	}
	return store, nil
}

// NewStore assembles a store from already decoded artifacts. metrics may be nil.
func NewStore(classifier ml.Classifier, featureNames []string, metrics *MetricsReport, classCount int) (*Store, error) {
	if classifier == nil {
		return nil, loadError(KindClassifier, "", errors.New("classifier is nil"))
	}
	names, err := ValidateFeatureNames(featureNames)
	if err != nil {
		return nil, loadError(KindFeatureNames, "", err)
	}
	if n := classifier.NumFeatures(); n > 0 && n > len(names) {
		return nil, loadError(KindClassifier, "", fmt.Errorf("classifier expects %d features, feature list has %d", n, len(names)))
	}
	if classCount <= 0 {
		classCount = DefaultClassCount
	}
	if metrics != nil {
		if err := metrics.Validate(classCount); err != nil {
			return nil, loadError(KindMetrics, "", err)
		}
	}
	return &Store{classifier: classifier, featureNames: names, metrics: metrics.Clone()}, nil
}

func (s *Store) Classifier() ml.Classifier {
	return s.classifier
}

// FeatureNames returns the canonical feature keys in classifier order.
func (s *Store) FeatureNames() []string {
	return append([]string(nil), s.featureNames...)
}

// Metrics returns a copy of the report and whether one was loaded.
func (s *Store) Metrics() (*MetricsReport, bool) {
	return s.metrics.Clone(), s.metrics != nil
}

func requireFile(kind, path string) error {
	if path == "" {
		return loadError(kind, path, fmt.Errorf("no path configured: %w", fs.ErrNotExist))
	}
	info, err := os.Stat(path)
	if err != nil {
		return loadError(kind, path, err)
	}
	if info.IsDir() {
		return loadError(kind, path, errors.New("path is a directory"))
	}
	return nil
}
