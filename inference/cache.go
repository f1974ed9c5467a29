package inference

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// predictionCache memoizes labels per feature vector. Inputs are validated
// before lookup, so NaN never reaches the map.
type predictionCache struct {
	entries *lru.Cache[FeatureVector, ClassLabel]
}

func newPredictionCache(size int) (*predictionCache, error) {
	entries, err := lru.New[FeatureVector, ClassLabel](size)
	if err != nil {
		return nil, fmt.Errorf("create prediction cache: %w", err)
	}
	return &predictionCache{entries: entries}, nil
}

func (c *predictionCache) get(v FeatureVector) (ClassLabel, bool) {
	if c == nil {
		return 0, false
	}
	return c.entries.Get(v)
}

func (c *predictionCache) add(v FeatureVector, label ClassLabel) {
	if c == nil {
		return
	}
	c.entries.Add(v, label)
}

func (c *predictionCache) len() int {
	if c == nil {
		return 0
	}
	return c.entries.Len()
}
