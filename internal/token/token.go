package token

// Token defines how many units are required per pull.
type Token struct {
	Name       string `mapstructure:"name" json:"name"`                 // e.g. "Stellar Jade", "Star Stone"
	PerDraw    int    `mapstructure:"per_draw" json:"per_draw"`         // tokens per single pull, e.g. 160
	PerTenDraw int    `mapstructure:"per_ten_draw" json:"per_ten_draw"` // optional; if 0 -> 10 * PerDraw
}

// TokensForDraws returns how many tokens n pulls cost. Full groups of ten are
// charged at PerTenDraw when it is set.
func (t Token) TokensForDraws(n int) int {
	if n <= 0 {
		return 0
	}
	if t.PerTenDraw > 0 && n >= 10 {
		tens := n / 10
		rem := n % 10
		return tens*t.PerTenDraw + rem*t.PerDraw
	}
	return n * t.PerDraw
}

// DrawsFor returns the most pulls that tokens can pay for.
func (t Token) DrawsFor(tokens int) int {
	if t.PerDraw <= 0 || tokens <= 0 {
		return 0
	}
	// TokensForDraws is non-decreasing, search the largest affordable n
	lo, hi := 0, tokens/t.PerDraw+10
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if t.TokensForDraws(mid) <= tokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo
}
