package gacha

import "math"

// Pick selects one item with probability proportional to its weight.
//
// Weights are clamped at zero; NaN and ±Inf count as zero. When the list is
// empty or the total weight is not positive, ok is false. Otherwise a target
// r in [0, total) is drawn and the first item whose running sum reaches r is
// returned. Zero-weight items are never returned while the total is positive.
// If rounding lets the scan run past the end, the last positive-weight item wins.
func Pick[T any](items []T, weightOf func(T) float64, rng RandomSource) (picked T, ok bool) {
	if len(items) == 0 || weightOf == nil {
		return picked, false
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	weights := make([]float64, len(items))
	total := 0.0
	last := -1
	for i, it := range items {
		w := sanitizeWeight(weightOf(it))
		weights[i] = w
		total += w
		if w > 0 {
			last = i
		}
	}
	if total <= 0 || last < 0 || math.IsInf(total, 0) {
		return picked, false
	}

	target := rng.Float64() * total
	cumulative := 0.0
	for i, it := range items {
		if weights[i] <= 0 {
			continue
		}
		cumulative += weights[i]
		if cumulative >= target {
			return it, true
		}
	}
	return items[last], true
}

// TotalWeight sums the positive weights of items.
func TotalWeight[T any](items []T, weightOf func(T) float64) float64 {
	total := 0.0
	for _, it := range items {
		total += sanitizeWeight(weightOf(it))
	}
	return total
}

func sanitizeWeight(w float64) float64 {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return 0
	}
	return w
}
