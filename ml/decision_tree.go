package ml

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// DecisionTree is a binary tree stored as a flat node array, root at index 0.
type DecisionTree struct {
	nodes       []TreeNode
	numFeatures int
}

type TreeNode struct {
	FeatureIdx int     `json:"feature_idx"`
	Threshold  float64 `json:"threshold"`
	LeftChild  int     `json:"left_child"`
	RightChild int     `json:"right_child"`
	ClassLabel int     `json:"class_label"`
	IsLeaf     bool    `json:"is_leaf"`
}

// NewDecisionTree builds a tree from already decoded nodes.
func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	dt := &DecisionTree{nodes: append([]TreeNode(nil), nodes...)}
	dt.numFeatures = maxFeatureIdx(dt.nodes) + 1
	return dt, nil
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	if len(dt.nodes) == 0 {
		return 0, errors.New("model not loaded")
	}
	idx := 0
	// A well-formed tree reaches a leaf in fewer than len(nodes) steps.
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.ClassLabel, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, fmt.Errorf("feature index %d out of range", node.FeatureIdx)
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
	}
	return 0, errors.New("invalid tree state: cycle detected")
}

func (dt *DecisionTree) NumFeatures() int {
	return dt.numFeatures
}

func (dt *DecisionTree) Load(path string) error {
	payload, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var nodes []TreeNode
	if err := json.Unmarshal(payload, &nodes); err != nil {
		return fmt.Errorf("decode decision tree: %w", err)
	}
	if err := validateNodes(nodes); err != nil {
		return err
	}
	dt.nodes = nodes
	dt.numFeatures = maxFeatureIdx(nodes) + 1
	return nil
}

func validateNodes(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("decision tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			continue
		}
		if node.FeatureIdx < 0 {
			return fmt.Errorf("node %d: negative feature index", i)
		}
		if node.LeftChild < 0 || node.LeftChild >= len(nodes) || node.RightChild < 0 || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d: child index out of range", i)
		}
	}
	return nil
}

func maxFeatureIdx(nodes []TreeNode) int {
	best := -1
	for _, node := range nodes {
		if !node.IsLeaf && node.FeatureIdx > best {
			best = node.FeatureIdx
		}
	}
	return best
}
