package ed_core

import "math"

// expLimit is the largest argument math.Exp takes without overflowing.
const expLimit = 709.0

// Sigmoid is 1 / (1 + exp(-2x/steepness)), saturated to exactly 0 or 1 when
// the exponent leaves the float64 range.
func Sigmoid(x float64, steepness float64) float64 {
	exponent := -2 * x / steepness
	if exponent > expLimit {
		return 0
	}
	if exponent < -expLimit {
		return 1
	}
	return 1 / (1 + math.Exp(exponent))
}

// SplitError separates a signed prediction error into the excitatory and
// inhibitory channels. Both are non-negative and at most one is nonzero.
func SplitError(predictionError float64) (excitatory float64, inhibitory float64) {
	if predictionError > 0 {
		return predictionError, 0
	}
	return 0, -predictionError
}

func CompareWeights(a [][][]float64, b [][][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for sub := range a {
		if len(a[sub]) != len(b[sub]) {
			return false
		}
		for target := range a[sub] {
			if len(a[sub][target]) != len(b[sub][target]) {
				return false
			}
			for source := range a[sub][target] {
				if math.Float64bits(a[sub][target][source]) != math.Float64bits(b[sub][target][source]) {
					return false
				}
			}
		}
	}
	return true
}

// ConnectionCount counts the live (nonzero) connections of every sub-network.
func ConnectionCount(weights [][][]float64) int {
	total := 0
	for sub := range weights {
		for target := range weights[sub] {
			for _, w := range weights[sub][target] {
				if w != 0 {
					total++
				}
			}
		}
	}
	return total
}
