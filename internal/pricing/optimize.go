package pricing

import (
	"math"

	"github.com/cockroachdb/errors"
)

const unreachable = math.MaxInt

// CheapestFor finds the minimum-cost combination granting at least target
// tokens. With firstTime every first-time pack may be bought once at double
// tokens; normal packs are unbounded. Ties keep the plan found first.
func (s Shop) CheapestFor(target int, firstTime bool) (Plan, error) {
	if target > MaxTokens {
		return Plan{}, errors.Wrapf(ErrOutOfRange, "tokens %d > %d", target, MaxTokens)
	}
	plan := s.newPlan()
	if target <= 0 || len(s.Packs) == 0 {
		return plan, nil
	}
	normal, doubled := s.variants(firstTime)

	// cost[t]: cheapest normal packs granting at least t tokens
	cost := make([]int, target+1)
	pick := make([]int, target+1)
	for t := 1; t <= target; t++ {
		cost[t], pick[t] = unreachable, -1
		for i, v := range normal {
			prev := max(0, t-v.tokens)
			if cost[prev] == unreachable || v.tokens <= 0 {
				continue
			}
			if c := cost[prev] + v.price; c < cost[t] {
				cost[t], pick[t] = c, i
			}
		}
	}

	bestMask, bestCost := -1, unreachable
	for mask := 0; mask < 1<<len(doubled); mask++ {
		tok, price := subset(doubled, mask)
		rest := max(0, target-tok)
		if cost[rest] == unreachable {
			continue
		}
		if c := price + cost[rest]; c < bestCost {
			bestMask, bestCost = mask, c
		}
	}
	if bestMask < 0 {
		return plan, nil
	}

	tok, _ := subset(doubled, bestMask)
	for i, v := range doubled {
		if bestMask&(1<<i) != 0 {
			plan.add(v, 1)
		}
	}
	qty := make([]int, len(normal))
	for t := max(0, target-tok); t > 0; t = max(0, t-normal[pick[t]].tokens) {
		qty[pick[t]]++
	}
	for i, v := range normal {
		plan.add(v, qty[i])
	}
	plan.finish(s.TaxRate)
	return plan, nil
}

// MostTokensFor computes the plan granting the most tokens whose taxed total
// stays within budgetCents.
func (s Shop) MostTokensFor(budgetCents int, firstTime bool) (Plan, error) {
	if budgetCents > MaxBudgetCents {
		return Plan{}, errors.Wrapf(ErrOutOfRange, "budget %d > %d", budgetCents, MaxBudgetCents)
	}
	if budgetCents <= 0 || len(s.Packs) == 0 {
		return s.newPlan(), nil
	}
	normal, doubled := s.variants(firstTime)

	// pre-tax spend allowed by the budget
	limit := budgetCents
	if s.TaxRate > 0 {
		limit = int(math.Floor(float64(budgetCents) / (1 + s.TaxRate)))
	}

	// best[c]: most tokens from normal packs costing at most c
	best := make([]int, limit+1)
	pick := make([]int, limit+1)
	for c := 0; c <= limit; c++ {
		pick[c] = -1
		if c > 0 {
			best[c] = best[c-1]
		}
		for i, v := range normal {
			if v.price <= c && best[c-v.price]+v.tokens > best[c] {
				best[c], pick[c] = best[c-v.price]+v.tokens, i
			}
		}
	}

	// rounding of the tax can push the total a cent over: shrink and retry
	for ; limit >= 0; limit-- {
		plan := s.mostTokensWithin(limit, normal, doubled, best, pick)
		if plan.TotalCents <= budgetCents {
			return plan, nil
		}
	}
	return s.newPlan(), nil
}

func (s Shop) mostTokensWithin(limit int, normal, doubled []variant, best, pick []int) Plan {
	bestMask, bestTokens := 0, best[limit]
	for mask := 1; mask < 1<<len(doubled); mask++ {
		tok, price := subset(doubled, mask)
		if price > limit {
			continue
		}
		if t := tok + best[limit-price]; t > bestTokens {
			bestMask, bestTokens = mask, t
		}
	}

	plan := s.newPlan()
	_, spent := subset(doubled, bestMask)
	for i, v := range doubled {
		if bestMask&(1<<i) != 0 {
			plan.add(v, 1)
		}
	}
	qty := make([]int, len(normal))
	for c := limit - spent; c > 0; {
		if pick[c] < 0 {
			c--
			continue
		}
		qty[pick[c]]++
		c -= normal[pick[c]].price
	}
	for i, v := range normal {
		plan.add(v, qty[i])
	}
	plan.finish(s.TaxRate)
	return plan
}
