package model

import (
	"encoding/json"
	"math/rand"
	"testing"
)

// separableData builds two Gaussian-ish clusters that a forest should
// separate almost perfectly.
func separableData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, 0, 2*n)
	y := make([]int, 0, 2*n)
	for i := 0; i < n; i++ {
		X = append(X, []float64{rng.Float64(), rng.Float64(), rng.Float64() * 0.3})
		y = append(y, 0)
		X = append(X, []float64{rng.Float64() + 3, rng.Float64() + 3, rng.Float64() * 0.3})
		y = append(y, 1)
	}
	return X, y
}

func TestStratifiedSplitPreservesClasses(t *testing.T) {
	t.Parallel()

	y := []int{1, 0, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0}
	train, test, err := StratifiedSplit(y, 0.33, 1)
	if err != nil {
		t.Fatalf("StratifiedSplit returned error: %v", err)
	}
	if len(train)+len(test) != len(y) {
		t.Fatalf("split lost rows: %d + %d != %d", len(train), len(test), len(y))
	}

	count := func(indices []int) (pos, neg int) {
		for _, idx := range indices {
			if y[idx] == 1 {
				pos++
			} else {
				neg++
			}
		}
		return pos, neg
	}
	trainPos, trainNeg := count(train)
	testPos, testNeg := count(test)
	if trainPos == 0 || trainNeg == 0 || testPos == 0 || testNeg == 0 {
		t.Fatalf("both sides need both classes: train %d/%d, test %d/%d",
			trainPos, trainNeg, testPos, testNeg)
	}

	seen := make(map[int]bool, len(y))
	for _, idx := range append(append([]int{}, train...), test...) {
		if seen[idx] {
			t.Fatalf("index %d assigned twice", idx)
		}
		seen[idx] = true
	}
}

func TestStratifiedFoldsCoverEveryRow(t *testing.T) {
	t.Parallel()

	y := []int{1, 0, 1, 0, 1, 0, 0, 0}
	folds, err := StratifiedFolds(y, 3, 7)
	if err != nil {
		t.Fatalf("StratifiedFolds returned error: %v", err)
	}
	if len(folds) != 3 {
		t.Fatalf("got %d folds, want 3", len(folds))
	}

	seen := make(map[int]bool)
	for _, fold := range folds {
		for _, idx := range fold {
			if seen[idx] {
				t.Fatalf("index %d in two folds", idx)
			}
			seen[idx] = true
		}
	}
	if len(seen) != len(y) {
		t.Fatalf("folds cover %d rows, want %d", len(seen), len(y))
	}
}

func TestForestSeparatesClusters(t *testing.T) {
	t.Parallel()

	X, y := separableData(30, 3)
	forest, err := TrainForest(X, y, ForestParams{NEstimators: 20, MinSamplesSplit: 2}, 3)
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}

	correct := 0
	for i, row := range X {
		if forest.Predict(row) == y[i] {
			correct++
		}
	}
	if accuracy := float64(correct) / float64(len(y)); accuracy < 0.95 {
		t.Fatalf("training accuracy %v on separable data", accuracy)
	}
}

func TestForestIsDeterministicForSeed(t *testing.T) {
	t.Parallel()

	X, y := separableData(10, 5)
	a, err := TrainForest(X, y, ForestParams{NEstimators: 5}, 42)
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}
	b, err := TrainForest(X, y, ForestParams{NEstimators: 5}, 42)
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}

	aJSON, _ := json.Marshal(a)
	bJSON, _ := json.Marshal(b)
	if string(aJSON) != string(bJSON) {
		t.Fatalf("same seed should reproduce the same forest")
	}
}

func TestForestRoundTripsThroughJSON(t *testing.T) {
	t.Parallel()

	X, y := separableData(10, 9)
	forest, err := TrainForest(X, y, ForestParams{NEstimators: 5}, 9)
	if err != nil {
		t.Fatalf("TrainForest returned error: %v", err)
	}

	data, err := json.Marshal(forest)
	if err != nil {
		t.Fatalf("marshal forest: %v", err)
	}
	var restored RandomForest
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal forest: %v", err)
	}

	for _, row := range X {
		if forest.Predict(row) != restored.Predict(row) {
			t.Fatalf("restored forest predicts differently")
		}
	}
}

func TestTrainerFitEndToEnd(t *testing.T) {
	t.Parallel()

	X, y := separableData(24, 11)
	trainer := &Trainer{
		Grid: GridParams{
			NEstimators:     []int{10, 20},
			MinSamplesSplit: []int{2},
		},
		Seed: 11,
	}

	forest, scaler, report, err := trainer.Fit(X, y)
	if err != nil {
		t.Fatalf("Fit returned error: %v", err)
	}
	if forest == nil || scaler == nil {
		t.Fatalf("Fit must return the fitted estimator and scaler")
	}

	if report.Folds < 2 {
		t.Fatalf("fold count = %d", report.Folds)
	}
	if report.Test.ROCAUC < 0.9 {
		t.Fatalf("test ROC-AUC %v on separable data", report.Test.ROCAUC)
	}
	if report.Test.F1 < 0.8 {
		t.Fatalf("test F1 %v on separable data", report.Test.F1)
	}
	if report.Best.NEstimators != 10 && report.Best.NEstimators != 20 {
		t.Fatalf("best params outside the grid: %+v", report.Best)
	}

	cm := report.Test.Confusion
	total := cm.TruePositive + cm.FalsePositive + cm.TrueNegative + cm.FalseNegative
	if total == 0 || total >= len(y) {
		t.Fatalf("test confusion covers %d rows of %d", total, len(y))
	}
}

func TestTrainerRejectsSingleClass(t *testing.T) {
	t.Parallel()

	X := [][]float64{{1}, {2}, {3}}
	trainer := &Trainer{Seed: 1}
	if _, _, _, err := trainer.Fit(X, []int{1, 1, 1}); err == nil {
		t.Fatalf("expected error for single-class targets")
	}
}
