package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
)

// LogisticRegression is a multinomial linear model: one weight row and one
// intercept per class. Prediction is the argmax of the class scores.
type LogisticRegression struct {
	Coef      [][]float64 `json:"coef"`
	Intercept []float64   `json:"intercept"`
}

func (lr *LogisticRegression) Predict(features []float64) (int, error) {
	if len(lr.Coef) == 0 {
		return 0, errors.New("model not loaded")
	}
	best := -1
	bestScore := math.Inf(-1)
	for class, weights := range lr.Coef {
		if len(weights) != len(features) {
			return 0, fmt.Errorf("expected %d features, got %d", len(weights), len(features))
		}
		score := lr.Intercept[class]
		for i, w := range weights {
			score += w * features[i]
		}
		if score > bestScore {
			bestScore = score
			best = class
		}
	}
	if best < 0 {
		return 0, errors.New("no finite class score")
	}
	return best, nil
}

func (lr *LogisticRegression) NumFeatures() int {
	if len(lr.Coef) == 0 {
		return 0
	}
	return len(lr.Coef[0])
}

func (lr *LogisticRegression) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var model LogisticRegression
	if err := json.Unmarshal(payload, &model); err != nil {
		return fmt.Errorf("decode logistic regression: %w", err)
	}
	if len(model.Coef) == 0 {
		return errors.New("logistic regression has no classes")
	}
	if len(model.Intercept) != len(model.Coef) {
		return fmt.Errorf("intercept has %d entries for %d classes", len(model.Intercept), len(model.Coef))
	}
	width := len(model.Coef[0])
	for class, weights := range model.Coef {
		if len(weights) != width || width == 0 {
			return fmt.Errorf("class %d: inconsistent weight row", class)
		}
	}
	*lr = model
	return nil
}
