package molecule

import (
	"math"

	"github.com/turtacn/molmatch/pkg/errors"
)

// SimilarityMetric defines the algorithm used for fingerprint similarity.
type SimilarityMetric string

const (
	MetricTanimoto SimilarityMetric = "tanimoto"
	MetricDice     SimilarityMetric = "dice"
	MetricCosine   SimilarityMetric = "cosine"
)

// IsValid checks if the similarity metric is known.
func (m SimilarityMetric) IsValid() bool {
	switch m {
	case MetricTanimoto, MetricDice, MetricCosine:
		return true
	}
	return false
}

// String returns the string representation of the similarity metric.
func (m SimilarityMetric) String() string {
	return string(m)
}

// ParseSimilarityMetric parses a string into a SimilarityMetric; the empty
// string selects Tanimoto.
func ParseSimilarityMetric(s string) (SimilarityMetric, error) {
	if s == "" {
		return MetricTanimoto, nil
	}
	m := SimilarityMetric(s)
	if m.IsValid() {
		return m, nil
	}
	return "", errors.New(errors.ErrCodeValidation, "unsupported similarity metric: "+s)
}

// SimilarityCalculator scores two fingerprints in [0, 1].
type SimilarityCalculator interface {
	Calculate(fp1, fp2 *Fingerprint) (float64, error)
	Metric() SimilarityMetric
}

func checkComparable(fp1, fp2 *Fingerprint) error {
	if fp1 == nil || fp2 == nil {
		return errors.New(errors.ErrCodeValidation, "fingerprint is nil")
	}
	if fp1.Length != fp2.Length {
		return errors.New(errors.ErrCodeValidation, "fingerprints must have the same length")
	}
	return nil
}

// TanimotoCalculator implements Tanimoto similarity (Jaccard index).
type TanimotoCalculator struct{}

// Calculate computes |a∧b| / |a∨b|; two empty fingerprints score 0.
func (c *TanimotoCalculator) Calculate(fp1, fp2 *Fingerprint) (float64, error) {
	if err := checkComparable(fp1, fp2); err != nil {
		return 0, err
	}
	common := fp1.Common(fp2)
	union := fp1.NumOnBits + fp2.NumOnBits - common
	if union == 0 {
		return 0, nil
	}
	return float64(common) / float64(union), nil
}

// Metric returns MetricTanimoto.
func (c *TanimotoCalculator) Metric() SimilarityMetric { return MetricTanimoto }

// DiceCalculator implements Dice similarity.
type DiceCalculator struct{}

// Calculate computes 2|a∧b| / (|a|+|b|).
func (c *DiceCalculator) Calculate(fp1, fp2 *Fingerprint) (float64, error) {
	if err := checkComparable(fp1, fp2); err != nil {
		return 0, err
	}
	denominator := fp1.NumOnBits + fp2.NumOnBits
	if denominator == 0 {
		return 0, nil
	}
	return 2 * float64(fp1.Common(fp2)) / float64(denominator), nil
}

// Metric returns MetricDice.
func (c *DiceCalculator) Metric() SimilarityMetric { return MetricDice }

// CosineCalculator implements the cosine (Ochiai) coefficient on bit vectors.
type CosineCalculator struct{}

// Calculate computes |a∧b| / sqrt(|a||b|).
func (c *CosineCalculator) Calculate(fp1, fp2 *Fingerprint) (float64, error) {
	if err := checkComparable(fp1, fp2); err != nil {
		return 0, err
	}
	if fp1.NumOnBits == 0 || fp2.NumOnBits == 0 {
		return 0, nil
	}
	return float64(fp1.Common(fp2)) / math.Sqrt(float64(fp1.NumOnBits)*float64(fp2.NumOnBits)), nil
}

// Metric returns MetricCosine.
func (c *CosineCalculator) Metric() SimilarityMetric { return MetricCosine }

// NewSimilarityCalculator factory function.
func NewSimilarityCalculator(metric SimilarityMetric) (SimilarityCalculator, error) {
	switch metric {
	case MetricTanimoto:
		return &TanimotoCalculator{}, nil
	case MetricDice:
		return &DiceCalculator{}, nil
	case MetricCosine:
		return &CosineCalculator{}, nil
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unsupported similarity metric: "+string(metric))
	}
}

// SimilarityBoundEpsilon widens similarity bounds so that a score equal to a
// bound, up to rounding, is inside the range.
const SimilarityBoundEpsilon = 1e-6

// WithinBounds reports whether score lies in [bottom, top], both inclusive
// within SimilarityBoundEpsilon.
func WithinBounds(score, bottom, top float64) bool {
	return score >= bottom-SimilarityBoundEpsilon && score <= top+SimilarityBoundEpsilon
}

//Personal.AI order the ending
