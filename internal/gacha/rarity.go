package gacha

import "github.com/cockroachdb/errors"

// Rarity is a card tier. Tiers are ordered SSR > SR > R.
type Rarity string

const (
	RaritySSR Rarity = "SSR"
	RaritySR  Rarity = "SR"
	RarityR   Rarity = "R"
)

// Rarities lists every tier from top to base.
func Rarities() []Rarity {
	return []Rarity{RaritySSR, RaritySR, RarityR}
}

// Valid reports whether r is a known tier.
func (r Rarity) Valid() bool {
	switch r {
	case RaritySSR, RaritySR, RarityR:
		return true
	}
	return false
}

// TierInfo is the static configuration of one tier.
type TierInfo struct {
	Name        string  `mapstructure:"name" yaml:"name" json:"name"`
	Color       string  `mapstructure:"color" yaml:"color" json:"color"`
	Probability float64 `mapstructure:"probability" yaml:"probability" json:"probability"`
}

// RarityTable maps a tier to its base probability and display metadata.
type RarityTable map[Rarity]TierInfo

// DefaultRarityTable is the reference table: SSR 2%, SR 10%, R takes the rest.
func DefaultRarityTable() RarityTable {
	return RarityTable{
		RaritySSR: {Name: "SSR", Color: "#FFD700", Probability: 0.02},
		RaritySR:  {Name: "SR", Color: "#9B59B6", Probability: 0.10},
		RarityR:   {Name: "R", Color: "#3498DB", Probability: 0.90},
	}
}

// Probability returns the base probability of r, 0 if the tier is missing.
func (t RarityTable) Probability(r Rarity) float64 {
	return t[r].Probability
}

// Validate checks that the table covers every tier with a valid probability.
// R's probability is informational; it always receives the remaining mass.
func (t RarityTable) Validate() error {
	for _, r := range Rarities() {
		info, ok := t[r]
		if !ok {
			return errors.Newf("rarity table: missing tier %s", r)
		}
		if err := validateProb(info.Probability); err != nil {
			return errors.Wrapf(err, "rarity table: tier %s", r)
		}
	}
	return nil
}
