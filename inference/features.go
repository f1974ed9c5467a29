package inference

import (
	"fmt"
	"math"

	"irisserve/artifact"
)

// FeatureVector holds the four iris measurements, in centimetres.
type FeatureVector struct {
	SepalLength float64 `json:"sepal_length"`
	SepalWidth  float64 `json:"sepal_width"`
	PetalLength float64 `json:"petal_length"`
	PetalWidth  float64 `json:"petal_width"`
}

func (v FeatureVector) value(key string) (float64, bool) {
	switch key {
	case artifact.SepalLength:
		return v.SepalLength, true
	case artifact.SepalWidth:
		return v.SepalWidth, true
	case artifact.PetalLength:
		return v.PetalLength, true
	case artifact.PetalWidth:
		return v.PetalWidth, true
	}
	return 0, false
}

// Validate rejects NaN and infinite values. Zero is a valid measurement.
func (v FeatureVector) Validate() error {
	for _, key := range artifact.CanonicalFeatures {
		x, _ := v.value(key)
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return &InvalidInputError{Field: key, Value: x}
		}
	}
	return nil
}

// Ordered returns the measurements in the order given by names, which must be
// canonical feature keys.
func (v FeatureVector) Ordered(names []string) ([]float64, error) {
	out := make([]float64, len(names))
	for i, name := range names {
		x, ok := v.value(name)
		if !ok {
			return nil, fmt.Errorf("unknown feature %q", name)
		}
		out[i] = x
	}
	return out, nil
}

// IsZero reports whether every measurement is exactly zero.
func (v FeatureVector) IsZero() bool {
	return v == FeatureVector{}
}
