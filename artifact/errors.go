package artifact

import (
	"errors"
	"fmt"
)

// ErrArtifactLoad matches every *ArtifactLoadError via errors.Is.
var ErrArtifactLoad = errors.New("artifact load failed")

// Artifact kinds reported in ArtifactLoadError.
const (
	KindClassifier   = "classifier"
	KindFeatureNames = "feature_names"
	KindMetrics      = "metrics"
)

// ArtifactLoadError reports an artifact that is missing, unreadable or malformed.
type ArtifactLoadError struct {
	Artifact string
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("load %s artifact: %v", e.Artifact, e.Err)
	}
	return fmt.Sprintf("load %s artifact %q: %v", e.Artifact, e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }

func (e *ArtifactLoadError) Is(target error) bool { return target == ErrArtifactLoad }

func loadError(kind, path string, err error) error {
	return &ArtifactLoadError{Artifact: kind, Path: path, Err: err}
}
