package model

// Random Forest Classifier
//
// A bagged ensemble of binary CART decision trees for presence/absence
// classification on acoustic feature rows.
//
// 1. Each tree trains on a bootstrap sample of the training rows.
// 2. At every node a random subset of feature columns is considered; the
//    split minimizing weighted Gini impurity wins.
// 3. Growth stops when a node is pure, holds fewer than MinSamplesSplit
//    rows, or no split reduces impurity.
// 4. Prediction averages the positive-class fraction of the leaves each
//    tree routes the row to; the 0.5 threshold yields the class label.
//
// Trees serialize to JSON so a fitted forest can be persisted next to its
// scaler and reloaded for scoring.

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// ForestParams are the tunable random-forest hyperparameters.
type ForestParams struct {
	// NEstimators is the number of trees in the ensemble.
	NEstimators int `json:"n_estimators"`
	// MaxFeatures is the number of feature columns sampled per split;
	// zero or negative means sqrt(total features).
	MaxFeatures int `json:"max_features"`
	// MinSamplesSplit is the smallest node that may still be split.
	MinSamplesSplit int `json:"min_samples_split"`
}

// RandomForest is a fitted ensemble.
type RandomForest struct {
	Params ForestParams `json:"params"`
	Trees  []*TreeNode  `json:"trees"`
}

// TreeNode is one CART node. Leaves carry the positive-class fraction of
// the training rows that reached them.
type TreeNode struct {
	Leaf      bool      `json:"leaf"`
	Prob      float64   `json:"prob,omitempty"`
	Feature   int       `json:"feature,omitempty"`
	Threshold float64   `json:"threshold,omitempty"`
	Left      *TreeNode `json:"left,omitempty"`
	Right     *TreeNode `json:"right,omitempty"`
}

// TrainForest fits a random forest on a binary-labeled feature matrix. The
// seed pins bootstrap and feature sampling so training is reproducible.
func TrainForest(X [][]float64, y []int, params ForestParams, seed int64) (*RandomForest, error) {
	if len(X) == 0 {
		return nil, errors.New("no training rows")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("row count %d does not match label count %d", len(X), len(y))
	}
	if params.NEstimators < 1 {
		return nil, fmt.Errorf("n_estimators must be positive, got %d", params.NEstimators)
	}
	if params.MinSamplesSplit < 2 {
		params.MinSamplesSplit = 2
	}

	featureCount := len(X[0])
	maxFeatures := params.MaxFeatures
	if maxFeatures <= 0 || maxFeatures > featureCount {
		maxFeatures = int(math.Sqrt(float64(featureCount)))
		if maxFeatures < 1 {
			maxFeatures = 1
		}
	}

	rng := rand.New(rand.NewSource(seed))
	trees := make([]*TreeNode, params.NEstimators)
	for t := range trees {
		indices := make([]int, len(X))
		for i := range indices {
			indices[i] = rng.Intn(len(X))
		}
		trees[t] = growTree(X, y, indices, maxFeatures, params.MinSamplesSplit, rng)
	}

	return &RandomForest{Params: params, Trees: trees}, nil
}

// PredictProba returns the ensemble's positive-class probability for one row.
func (f *RandomForest) PredictProba(row []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.classify(row)
	}
	return sum / float64(len(f.Trees))
}

// Predict returns the 0/1 class label for one row.
func (f *RandomForest) Predict(row []float64) int {
	if f.PredictProba(row) >= 0.5 {
		return 1
	}
	return 0
}

// PredictAll classifies every row of a matrix.
func (f *RandomForest) PredictAll(X [][]float64) []int {
	out := make([]int, len(X))
	for i, row := range X {
		out[i] = f.Predict(row)
	}
	return out
}

// ProbaAll scores every row of a matrix.
func (f *RandomForest) ProbaAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		out[i] = f.PredictProba(row)
	}
	return out
}

func (n *TreeNode) classify(row []float64) float64 {
	node := n
	for !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Prob
}

func growTree(X [][]float64, y, indices []int, maxFeatures, minSamplesSplit int, rng *rand.Rand) *TreeNode {
	positives := 0
	for _, idx := range indices {
		positives += y[idx]
	}

	prob := float64(positives) / float64(len(indices))
	if positives == 0 || positives == len(indices) || len(indices) < minSamplesSplit {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	feature, threshold, ok := bestSplit(X, y, indices, maxFeatures, rng)
	if !ok {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	var left, right []int
	for _, idx := range indices {
		if X[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Leaf: true, Prob: prob}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(X, y, left, maxFeatures, minSamplesSplit, rng),
		Right:     growTree(X, y, right, maxFeatures, minSamplesSplit, rng),
	}
}

// bestSplit scans a random feature subset for the threshold with the lowest
// weighted Gini impurity. Returns ok=false when no candidate split separates
// the node at all.
func bestSplit(X [][]float64, y, indices []int, maxFeatures int, rng *rand.Rand) (int, float64, bool) {
	featureCount := len(X[0])
	features := rng.Perm(featureCount)[:maxFeatures]

	bestGini := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	values := make([]float64, 0, len(indices))
	for _, feature := range features {
		values = values[:0]
		for _, idx := range indices {
			values = append(values, X[idx][feature])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			threshold := (values[i] + values[i-1]) / 2

			leftN, leftPos, rightN, rightPos := 0, 0, 0, 0
			for _, idx := range indices {
				if X[idx][feature] <= threshold {
					leftN++
					leftPos += y[idx]
				} else {
					rightN++
					rightPos += y[idx]
				}
			}

			gini := weightedGini(leftN, leftPos, rightN, rightPos)
			if gini < bestGini {
				bestGini = gini
				bestFeature = feature
				bestThreshold = threshold
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}

func weightedGini(leftN, leftPos, rightN, rightPos int) float64 {
	total := float64(leftN + rightN)
	return float64(leftN)/total*gini(leftN, leftPos) + float64(rightN)/total*gini(rightN, rightPos)
}

func gini(n, pos int) float64 {
	if n == 0 {
		return 0
	}
	p := float64(pos) / float64(n)
	return 2 * p * (1 - p)
}
