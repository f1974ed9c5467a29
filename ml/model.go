package ml

// Classifier is an inference-only multi-class model loaded from an artifact.
type Classifier interface {
	// Predict returns the class index for a single sample.
	Predict(features []float64) (int, error)
	// NumFeatures reports how many inputs the model expects, or 0 if the
	// artifact does not say.
	NumFeatures() int
}
