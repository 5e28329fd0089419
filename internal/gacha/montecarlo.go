package gacha

import (
	"math"
	"sort"
)

// TrialGoal selects what the simulation measures per trial.
type TrialGoal string

const (
	// Pulls until the first top-tier result.
	GoalFirstHit TrialGoal = "first_hit"
	// Number of top-tier results within a fixed budget of pulls.
	GoalFixedBudget TrialGoal = "fixed_budget"
)

// SimParams describes one simulation run.
type SimParams struct {
	Table   RarityTable
	Policy  PityPolicy
	Cushion int // carry-over pity counter when entering the pool
	Budget  int // pulls per trial for GoalFixedBudget
}

// Stats summarizes simulation results.
type Stats struct {
	Trials int     `json:"trials"`
	Mean   float64 `json:"mean"`
	Var    float64 `json:"var"`
	StdDev float64 `json:"stddev"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
	// Optional: raw samples if caller needs histograms/exports
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

	// variance (population)
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
		Min:     cp[0],
		Max:     cp[n-1],
		P50:     percentile(0.50),
		P90:     percentile(0.90),
		P99:     percentile(0.99),
		Samples: xs,
	}
}

// simulateOne returns the primary metric for one trial depending on the goal.
func simulateOne(p SimParams, goal TrialGoal, rng RandomSource) int {
	counter := p.Cushion
	if counter < 0 {
		counter = 0
	}
	if p.Policy.HardPity > 0 && counter >= p.Policy.HardPity {
		counter = p.Policy.HardPity - 1
	}

	switch goal {
	case GoalFixedBudget:
		hits := 0
		for i := 0; i < p.Budget; i++ {
			if RollRarity(counter, p.Table, p.Policy, rng) == RaritySSR {
				hits++
				counter = 0
			} else {
				counter++
			}
		}
		return hits
	default:
		pulls := 0
		for {
			pulls++
			if RollRarity(counter, p.Table, p.Policy, rng) == RaritySSR {
				return pulls
			}
			counter++
		}
	}
}

// RunMonteCarlo repeats trials and returns summary stats.
// The policy must be valid: GoalFirstHit relies on the hard pity to terminate.
func RunMonteCarlo(p SimParams, goal TrialGoal, trials int, rng RandomSource) Stats {
	if trials <= 0 {
		return Stats{}
	}
	if rng == nil {
		rng = DefaultRNG()
	}
	samples := make([]int, trials)
	for i := 0; i < trials; i++ {
		samples[i] = simulateOne(p, goal, rng)
	}
	return calcStats(samples)
}
