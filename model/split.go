package model

import (
	"fmt"
	"math/rand"
)

// StratifiedSplit partitions row indices into train and test sets, preserving
// the class ratio in both. testFraction is the share of each class assigned
// to the test set; every class keeps at least one row on each side when it
// has two or more rows.
func StratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, fmt.Errorf("test fraction must be in (0, 1), got %v", testFraction)
	}

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		n := len(indices)
		testN := int(float64(n)*testFraction + 0.5)
		if n >= 2 {
			if testN < 1 {
				testN = 1
			}
			if testN >= n {
				testN = n - 1
			}
		}

		test = append(test, indices[:testN]...)
		train = append(train, indices[testN:]...)
	}

	if len(train) == 0 || len(test) == 0 {
		return nil, nil, fmt.Errorf("split left an empty side (%d train, %d test)", len(train), len(test))
	}
	return train, test, nil
}

// StratifiedFolds assigns each row to one of k cross-validation folds,
// distributing both classes round-robin so every fold sees positives when
// enough exist.
func StratifiedFolds(y []int, k int, seed int64) ([][]int, error) {
	if k < 2 {
		return nil, fmt.Errorf("need at least 2 folds, got %d", k)
	}
	if k > len(y) {
		return nil, fmt.Errorf("%d folds for %d rows", k, len(y))
	}

	byClass := map[int][]int{}
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	rng := rand.New(rand.NewSource(seed))
	folds := make([][]int, k)
	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		for i, idx := range indices {
			folds[i%k] = append(folds[i%k], idx)
		}
	}
	return folds, nil
}

// gather selects the rows of X (and labels of y) named by indices.
func gather(X [][]float64, y, indices []int) ([][]float64, []int) {
	subX := make([][]float64, len(indices))
	subY := make([]int, len(indices))
	for i, idx := range indices {
		subX[i] = X[idx]
		subY[i] = y[idx]
	}
	return subX, subY
}
