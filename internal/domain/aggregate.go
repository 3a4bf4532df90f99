package domain

// AggregateScores computes the arithmetic mean of all per-criterion scores.
// This is the default aggregation. Full float64 precision is retained;
// rounding is a presentation concern.
//
// Returns ErrEmptyScores for an empty score set.
func AggregateScores(scores []EvaluationScore) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyScores
	}
	var sum float64
	for _, s := range scores {
		sum += float64(s.Score)
	}
	return sum / float64(len(scores)), nil
}

// AggregateScoresWeighted computes the weighted mean
// sum(score_i * weight_i) / sum(weight_i) with weights keyed by criterion
// name. A criterion absent from the weight map contributes weight zero.
//
// Returns ErrEmptyScores for an empty score set, ErrNegativeWeight for any
// negative weight, and ErrZeroWeights when the weights sum to zero.
func AggregateScoresWeighted(scores []EvaluationScore, weights map[string]float64) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyScores
	}
	var weightedSum, weightSum float64
	for _, s := range scores {
		w := weights[s.CriterionName]
		if w < 0 {
			return 0, ErrNegativeWeight
		}
		weightedSum += float64(s.Score) * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0, ErrZeroWeights
	}
	return weightedSum / weightSum, nil
}

// AggregateScoresConfidenceWeighted computes the mean of scores weighted by
// each score's reported confidence. This is an explicit opt-in variant;
// default aggregation treats confidence as descriptive metadata only.
// Scores without a reported confidence contribute weight zero.
//
// Returns ErrEmptyScores for an empty score set and ErrZeroWeights when no
// score carries a positive confidence.
func AggregateScoresConfidenceWeighted(scores []EvaluationScore) (float64, error) {
	if len(scores) == 0 {
		return 0, ErrEmptyScores
	}
	var weightedSum, weightSum float64
	for _, s := range scores {
		if s.Confidence == nil {
			continue
		}
		weightedSum += float64(s.Score) * *s.Confidence
		weightSum += *s.Confidence
	}
	if weightSum == 0 {
		return 0, ErrZeroWeights
	}
	return weightedSum / weightSum, nil
}
