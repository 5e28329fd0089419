package gacha

// DetermineRarity assigns a tier from one uniform roll r in [0,1):
// r < pTop → SSR, pTop <= r < pTop+pMid → SR, otherwise R.
// When pTop+pMid exceeds 1 the R interval is simply empty.
func DetermineRarity(pTop, pMid float64, rng RandomSource) Rarity {
	if rng == nil {
		rng = DefaultRNG()
	}
	r := rng.Float64()
	switch {
	case r < pTop:
		return RaritySSR
	case r < pTop+pMid:
		return RaritySR
	default:
		return RarityR
	}
}

// RollRarity resolves the tier of the next pull for a session whose pity
// counter is counter. Only the top tier is pity adjusted.
func RollRarity(counter int, table RarityTable, policy PityPolicy, rng RandomSource) Rarity {
	pTop := policy.Effective(counter, table.Probability(RaritySSR))
	return DetermineRarity(pTop, table.Probability(RaritySR), rng)
}
