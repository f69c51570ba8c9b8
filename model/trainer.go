package model

import (
	"errors"
	"fmt"
	"log/slog"
)

// GridParams enumerates the hyperparameter candidates searched during
// training. Empty lists fall back to a single default candidate.
type GridParams struct {
	NEstimators     []int `json:"n_estimators"`
	MaxFeatures     []int `json:"max_features"`
	MinSamplesSplit []int `json:"min_samples_split"`
}

// SplitMetrics reports classifier quality on one data split.
type SplitMetrics struct {
	ROCAUC    float64         `json:"roc_auc"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Confusion ConfusionMatrix `json:"confusion"`
}

// TrainReport summarizes one training run: the winning hyperparameters, the
// cross-validation fold count, and train/test metrics.
type TrainReport struct {
	Best  ForestParams `json:"best_params"`
	Folds int          `json:"cv_folds"`
	Train SplitMetrics `json:"train"`
	Test  SplitMetrics `json:"test"`
}

// Trainer runs the per-species training loop: stratified split, min-max
// scaling fit on the training side, grid search over the forest
// hyperparameters with cross-validation, and final metric evaluation.
type Trainer struct {
	Grid         GridParams
	TestFraction float64
	Seed         int64
	Logger       *slog.Logger
}

// Fit trains a classifier on one species' feature matrix and binary targets.
// Returns the selected forest and the fitted scaler for persistence, plus
// the metric report.
func (t *Trainer) Fit(X [][]float64, y []int) (*RandomForest, *MinMaxScaler, *TrainReport, error) {
	if len(X) == 0 || len(X) != len(y) {
		return nil, nil, nil, fmt.Errorf("matrix has %d rows for %d targets", len(X), len(y))
	}

	pos, neg := 0, 0
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, nil, nil, errors.New("training needs both positive and negative examples")
	}

	testFraction := t.TestFraction
	if testFraction == 0 {
		testFraction = 0.33
	}

	trainIdx, testIdx, err := StratifiedSplit(y, testFraction, t.Seed)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("train/test split: %w", err)
	}
	trainX, trainY := gather(X, y, trainIdx)
	testX, testY := gather(X, y, testIdx)

	scaler, err := FitMinMaxScaler(trainX)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fit scaler: %w", err)
	}
	trainX = scaler.TransformMatrix(trainX)
	testX = scaler.TransformMatrix(testX)

	folds := cvFoldCount(trainY)
	best, err := t.searchGrid(trainX, trainY, folds)
	if err != nil {
		return nil, nil, nil, err
	}

	forest, err := TrainForest(trainX, trainY, best, t.Seed)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("train final forest: %w", err)
	}

	report := &TrainReport{
		Best:  best,
		Folds: folds,
		Train: evaluate(forest, trainX, trainY),
		Test:  evaluate(forest, testX, testY),
	}
	if t.Logger != nil {
		t.Logger.Info("classifier trained",
			slog.Int("n_estimators", best.NEstimators),
			slog.Int("cv_folds", folds),
			slog.Float64("test_roc_auc", report.Test.ROCAUC),
			slog.Float64("test_f1", report.Test.F1))
	}
	return forest, scaler, report, nil
}

// cvFoldCount follows the positive-count rule: one fold per training
// positive, bounded below by 2 and above by the minority-class count.
func cvFoldCount(y []int) int {
	pos, neg := 0, 0
	for _, label := range y {
		if label == 1 {
			pos++
		} else {
			neg++
		}
	}
	folds := pos
	if minority := min(pos, neg); folds > minority {
		folds = minority
	}
	if folds < 2 {
		folds = 2
	}
	return folds
}

func (t *Trainer) searchGrid(X [][]float64, y []int, folds int) (ForestParams, error) {
	candidates := t.Grid.combinations()

	// Too few rows for cross-validation: take the first candidate.
	if folds > len(y) {
		return candidates[0], nil
	}

	foldSets, err := StratifiedFolds(y, folds, t.Seed)
	if err != nil {
		return ForestParams{}, fmt.Errorf("cross-validation folds: %w", err)
	}

	best := candidates[0]
	bestScore := -1.0
	for _, params := range candidates {
		var total float64
		for f, holdout := range foldSets {
			var fitIdx []int
			for g, fold := range foldSets {
				if g != f {
					fitIdx = append(fitIdx, fold...)
				}
			}
			fitX, fitY := gather(X, y, fitIdx)
			valX, valY := gather(X, y, holdout)

			forest, err := TrainForest(fitX, fitY, params, t.Seed)
			if err != nil {
				return ForestParams{}, fmt.Errorf("grid search fold: %w", err)
			}
			total += ROCAUC(forest.ProbaAll(valX), valY)
		}

		score := total / float64(len(foldSets))
		if score > bestScore {
			bestScore = score
			best = params
		}
	}
	return best, nil
}

func (g GridParams) combinations() []ForestParams {
	nEst := g.NEstimators
	if len(nEst) == 0 {
		nEst = []int{100}
	}
	maxFeat := g.MaxFeatures
	if len(maxFeat) == 0 {
		maxFeat = []int{0}
	}
	minSplit := g.MinSamplesSplit
	if len(minSplit) == 0 {
		minSplit = []int{2}
	}

	out := make([]ForestParams, 0, len(nEst)*len(maxFeat)*len(minSplit))
	for _, n := range nEst {
		for _, mf := range maxFeat {
			for _, ms := range minSplit {
				out = append(out, ForestParams{NEstimators: n, MaxFeatures: mf, MinSamplesSplit: ms})
			}
		}
	}
	return out
}

func evaluate(forest *RandomForest, X [][]float64, y []int) SplitMetrics {
	cm := Confusion(y, forest.PredictAll(X))
	return SplitMetrics{
		ROCAUC:    ROCAUC(forest.ProbaAll(X), y),
		Precision: cm.Precision(),
		Recall:    cm.Recall(),
		F1:        cm.F1(),
		Confusion: cm,
	}
}
