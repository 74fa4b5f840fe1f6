/**
 * @description
 * Price aggregation for card printings.
 * Reduces the listed prices of every printing of a card into one
 * representative price per channel using a median-weighted average.
 *
 * @notes
 * - Empty input yields 0, never NaN (NaN cannot be encoded as JSON and
 *   would poison list totals).
 * - NaN/Inf observations are dropped before aggregation.
 */

package pricing

import (
	"math"
	"sort"
)

// NoPrice is returned when a channel has no usable observations.
const NoPrice = 0.0

// Aggregate returns the median-weighted average of the observations.
//
// Two observations resolve to the cheaper one. With three or more, each price is
// weighted by the inverse of its distance from the median; a price sitting exactly
// on the median gets weight 1.
func Aggregate(observations []float64) float64 {
	prices := finite(observations)

	switch len(prices) {
	case 0:
		return NoPrice
	case 1:
		return prices[0]
	case 2:
		return math.Min(prices[0], prices[1])
	}

	sort.SliceStable(prices, func(i, j int) bool { return prices[i] < prices[j] })
	med := median(prices)

	var weighted, total float64
	for _, p := range prices {
		distance := math.Abs(med - p)
		if distance == 0 {
			distance = 1
		}
		w := 1 / distance
		weighted += p * w
		total += w
	}

	return weighted / total
}

// median expects sorted input with at least one element.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// finite copies the finite values so callers' slices are never reordered.
func finite(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}
