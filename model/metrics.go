package model

import "sort"

// ConfusionMatrix counts binary classification outcomes.
type ConfusionMatrix struct {
	TruePositive  int `json:"true_positive"`
	FalsePositive int `json:"false_positive"`
	TrueNegative  int `json:"true_negative"`
	FalseNegative int `json:"false_negative"`
}

// Confusion tallies predictions against truth.
func Confusion(yTrue, yPred []int) ConfusionMatrix {
	var cm ConfusionMatrix
	for i, truth := range yTrue {
		switch {
		case truth == 1 && yPred[i] == 1:
			cm.TruePositive++
		case truth == 0 && yPred[i] == 1:
			cm.FalsePositive++
		case truth == 0 && yPred[i] == 0:
			cm.TrueNegative++
		default:
			cm.FalseNegative++
		}
	}
	return cm
}

// Precision is TP / (TP + FP), zero when nothing was predicted positive.
func (cm ConfusionMatrix) Precision() float64 {
	denom := cm.TruePositive + cm.FalsePositive
	if denom == 0 {
		return 0
	}
	return float64(cm.TruePositive) / float64(denom)
}

// Recall is TP / (TP + FN), zero when there are no positives.
func (cm ConfusionMatrix) Recall() float64 {
	denom := cm.TruePositive + cm.FalseNegative
	if denom == 0 {
		return 0
	}
	return float64(cm.TruePositive) / float64(denom)
}

// F1 is the harmonic mean of precision and recall, zero when both are zero.
func (cm ConfusionMatrix) F1() float64 {
	p, r := cm.Precision(), cm.Recall()
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// ROCAUC computes the area under the ROC curve from positive-class scores
// using the rank-statistic form, with average ranks for tied scores. A label
// vector with only one class has no curve; 0.5 is returned for it.
func ROCAUC(scores []float64, yTrue []int) float64 {
	pos, neg := 0, 0
	for _, t := range yTrue {
		if t == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return 0.5
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return scores[order[i]] < scores[order[j]]
	})

	ranks := make([]float64, len(scores))
	for i := 0; i < len(order); {
		j := i
		for j < len(order) && scores[order[j]] == scores[order[i]] {
			j++
		}
		// 1-based average rank across the tie group.
		avg := float64(i+j+1) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		i = j
	}

	var posRankSum float64
	for i, t := range yTrue {
		if t == 1 {
			posRankSum += ranks[i]
		}
	}

	u := posRankSum - float64(pos)*float64(pos+1)/2
	return u / (float64(pos) * float64(neg))
}
