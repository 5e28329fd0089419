package gacha

// FeaturedRate is the chance that a top-tier pick is restricted to the
// featured subset. It is flat: it does not depend on how many featured cards
// the pool has relative to its other top-tier cards.
const FeaturedRate = 0.5

// SelectCard picks one of cards uniformly.
// For the top tier of a pool that defines featured cards, the candidates are
// first narrowed to the featured ones with probability FeaturedRate; when that
// subset is empty the pick falls back to all cards.
// Returns false when cards is empty.
func SelectCard[T any](cards []T, rarity Rarity, hasFeatured bool, isFeatured func(T) bool, rng RandomSource) (T, bool) {
	var zero T
	if len(cards) == 0 {
		return zero, false
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	if rarity == RaritySSR && hasFeatured {
		// FeaturedRate is a valid probability, Draw cannot fail here
		restrict, _ := Draw(FeaturedRate, rng)
		if restrict {
			featured := make([]T, 0, len(cards))
			for _, c := range cards {
				if isFeatured(c) {
					featured = append(featured, c)
				}
			}
			if len(featured) > 0 {
				return featured[rng.IntN(len(featured))], true
			}
		}
	}

	return cards[rng.IntN(len(cards))], true
}
