// types.go
package catalog

import (
	"fmt"

	"github.com/xtding233/gacha-simulator/internal/gacha"
)

// PoolType is the pool category.
type PoolType string

const (
	PoolPermanent PoolType = "permanent"
	PoolEvent     PoolType = "event"
	PoolLimited   PoolType = "limited"
)

// Valid reports whether t is a known category.
func (t PoolType) Valid() bool {
	switch t {
	case PoolPermanent, PoolEvent, PoolLimited:
		return true
	}
	return false
}

// Card is one drawable card. Immutable once loaded.
type Card struct {
	CardID     string       `yaml:"card_id" json:"card_id"`
	Name       string       `yaml:"name" json:"name"`
	Rarity     gacha.Rarity `yaml:"rarity" json:"rarity"`
	PoolID     string       `yaml:"pool_id" json:"pool_id"`
	IsFeatured bool         `yaml:"is_featured" json:"is_featured"`
	ImageURL   string       `yaml:"image_url" json:"image_url"`
}

// DefaultImageURL is the image reference of a card loaded without one.
func DefaultImageURL(cardID string) string {
	return fmt.Sprintf("/static/images/cards/%s.png", cardID)
}

// Pool is a named collection of cards. Pools are shared read-only between
// sessions; build them with NewPool so the rarity index is populated.
type Pool struct {
	PoolID      string   `yaml:"pool_id" json:"pool_id"`
	Name        string   `yaml:"name" json:"name"`
	PoolType    PoolType `yaml:"pool_type" json:"pool_type"`
	Description string   `yaml:"description" json:"description"`
	Cards       []Card   `yaml:"cards" json:"cards"`
	FeaturedSSR []string `yaml:"featured_ssr" json:"featured_ssr"`
	LibraryID   string   `yaml:"library_id" json:"library_id"`

	byRarity map[gacha.Rarity][]Card
}

// Document is the nested mapping accepted by the catalog loader.
type Document struct {
	Pools []Pool `yaml:"pools" json:"pools"`
}

// NewPool copies p, fills absent defaults and indexes its cards by rarity.
func NewPool(p Pool) *Pool {
	out := p
	if out.LibraryID == "" {
		out.LibraryID = "LIB_" + out.PoolID
	}
	if out.PoolType == "" {
		out.PoolType = PoolPermanent
	}
	out.Cards = make([]Card, len(p.Cards))
	for i, c := range p.Cards {
		if c.ImageURL == "" {
			c.ImageURL = DefaultImageURL(c.CardID)
		}
		out.Cards[i] = c
	}
	out.FeaturedSSR = append([]string{}, p.FeaturedSSR...)

	out.byRarity = make(map[gacha.Rarity][]Card)
	for _, c := range out.Cards {
		out.byRarity[c.Rarity] = append(out.byRarity[c.Rarity], c)
	}
	return &out
}

// CardsByRarity returns the cards of tier r in catalog order.
// The returned slice is shared and must not be modified.
func (p *Pool) CardsByRarity(r gacha.Rarity) []Card {
	if p.byRarity == nil {
		var out []Card
		for _, c := range p.Cards {
			if c.Rarity == r {
				out = append(out, c)
			}
		}
		return out
	}
	return p.byRarity[r]
}

// FeaturedCards returns the cards flagged as featured.
func (p *Pool) FeaturedCards() []Card {
	var out []Card
	for _, c := range p.Cards {
		if c.IsFeatured {
			out = append(out, c)
		}
	}
	return out
}

// HasFeatured reports whether the pool defines featured cards.
func (p *Pool) HasFeatured() bool {
	return len(p.FeaturedSSR) > 0
}
