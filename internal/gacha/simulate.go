package gacha

import (
	"errors"
	"math"
	"sort"
)

// ErrUnreachableGoal is returned when no positive-weight item satisfies the goal.
var ErrUnreachableGoal = errors.New("goal cannot be reached with the given weights")

// SimParams controls a Monte Carlo run over a weighted table.
type SimParams struct {
	Trials   int // number of independent trials
	MaxDraws int // per-trial cap; a trial that hits the cap records MaxDraws. <=0 means 10000
}

// Stats summarizes simulation results.
type Stats struct {
	Trials  int
	Capped  int // trials that hit MaxDraws without reaching the goal
	Mean    float64
	Var     float64
	StdDev  float64
	P50     float64
	P90     float64
	P99     float64
	Samples []int `json:"-"`
}

// calcStats computes mean/variance/percentiles for integer samples.
func calcStats(xs []int) Stats {
	n := len(xs)
	if n == 0 {
		return Stats{}
	}
	var sum float64
	for _, v := range xs {
		sum += float64(v)
	}
	mean := sum / float64(n)

	// population variance
	var acc float64
	for _, v := range xs {
		d := float64(v) - mean
		acc += d * d
	}
	variance := acc / float64(n)

	cp := append([]int(nil), xs...)
	sort.Ints(cp)
	percentile := func(p float64) float64 {
		if n == 1 || p <= 0 {
			return float64(cp[0])
		}
		if p >= 1 {
			return float64(cp[n-1])
		}
		pos := p * float64(n-1)
		i := int(math.Floor(pos))
		f := pos - float64(i)
		if i+1 >= n {
			return float64(cp[i])
		}
		return float64(cp[i])*(1-f) + float64(cp[i+1])*f
	}

	return Stats{
		Trials:  n,
		Mean:    mean,
		Var:     variance,
		StdDev:  math.Sqrt(variance),
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// DrawsUntil repeatedly picks from items until isGoal accepts the pick and
// reports how many draws each trial needed.
func DrawsUntil[T any](items []T, weightOf func(T) float64, isGoal func(T) bool, p SimParams, rng RandomSource) (Stats, error) {
	if p.Trials <= 0 {
		return Stats{}, nil
	}
	reachable := false
	for _, it := range items {
		if sanitizeWeight(weightOf(it)) > 0 && isGoal(it) {
			reachable = true
			break
		}
	}
	if !reachable {
		return Stats{}, ErrUnreachableGoal
	}
	maxDraws := p.MaxDraws
	if maxDraws <= 0 {
		maxDraws = 10000
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	samples := make([]int, p.Trials)
	capped := 0
	for i := range samples {
		draws, hit := 0, false
		for !hit && draws < maxDraws {
			draws++
			it, ok := Pick(items, weightOf, rng)
			hit = ok && isGoal(it)
		}
		if !hit {
			capped++
		}
		samples[i] = draws
	}
	st := calcStats(samples)
	st.Capped = capped
	return st, nil
}

// Frequencies draws n times and returns how often each index was picked.
func Frequencies[T any](items []T, weightOf func(T) float64, n int, rng RandomSource) []int {
	counts := make([]int, len(items))
	if n <= 0 || len(items) == 0 {
		return counts
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	index := make([]int, len(items))
	for i := range index {
		index[i] = i
	}
	for range n {
		i, ok := Pick(index, func(i int) float64 { return weightOf(items[i]) }, rng)
		if ok {
			counts[i]++
		}
	}
	return counts
}
