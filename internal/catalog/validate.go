package catalog

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/xtding233/gacha-simulator/internal/gacha"
)

var ErrInvalidCatalog = errors.New("invalid catalog")

// ValidatePool checks semantic constraints of one pool.
func ValidatePool(p Pool) error {
	var errs []string

	if p.PoolID == "" {
		errs = append(errs, "pool_id is required")
	}
	if p.PoolType != "" && !p.PoolType.Valid() {
		errs = append(errs, fmt.Sprintf("pool_type %q must be one of: permanent, event, limited", p.PoolType))
	}

	rarityOf := make(map[string]gacha.Rarity, len(p.Cards))
	for i, c := range p.Cards {
		if c.CardID == "" {
			errs = append(errs, fmt.Sprintf("cards[%d].card_id is required", i))
			continue
		}
		if _, dup := rarityOf[c.CardID]; dup {
			errs = append(errs, fmt.Sprintf("cards[%d].card_id %q is duplicated", i, c.CardID))
		}
		if !c.Rarity.Valid() {
			errs = append(errs, fmt.Sprintf("cards[%d].rarity %q must be one of: SSR, SR, R", i, c.Rarity))
		}
		rarityOf[c.CardID] = c.Rarity
	}

	// featured ids must point at top-tier cards of this pool
	for i, id := range p.FeaturedSSR {
		r, ok := rarityOf[id]
		switch {
		case !ok:
			errs = append(errs, fmt.Sprintf("featured_ssr[%d] %q is not a card of the pool", i, id))
		case r != gacha.RaritySSR:
			errs = append(errs, fmt.Sprintf("featured_ssr[%d] %q has rarity %s, want SSR", i, id, r))
		}
	}

	if len(errs) > 0 {
		return errors.Wrapf(ErrInvalidCatalog, "pool %q: %s", p.PoolID, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateDocument checks every pool and the uniqueness of pool ids.
func ValidateDocument(doc Document) error {
	seen := make(map[string]struct{}, len(doc.Pools))
	for _, p := range doc.Pools {
		if err := ValidatePool(p); err != nil {
			return err
		}
		if _, dup := seen[p.PoolID]; dup {
			return errors.Wrapf(ErrInvalidCatalog, "pool %q is duplicated", p.PoolID)
		}
		seen[p.PoolID] = struct{}{}
	}
	return nil
}
