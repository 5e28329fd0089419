package service

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/session"
)

// PullSingle resolves one draw for the session.
func (s *Service) PullSingle(id string) session.PullRecord {
	return s.pull(s.session(id))
}

// PullMulti resolves count sequential draws. count is not clamped here:
// bounds belong to the caller. count <= 0 returns an empty slice and leaves
// the session untouched.
func (s *Service) PullMulti(id string, count int) []session.PullRecord {
	if count <= 0 {
		return []session.PullRecord{}
	}
	sess := s.session(id)
	out := make([]session.PullRecord, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, s.pull(sess))
	}
	s.logger.Debug("multi pull",
		zap.String("session_id", sess.ID),
		zap.Int("count", count),
		zap.Int("pity", sess.PityCounter))
	return out
}

func (s *Service) pull(sess *session.Session) session.PullRecord {
	pityBefore := sess.PityCounter
	rarity := gacha.RollRarity(pityBefore, s.table, s.policy, s.rng)

	var (
		card catalog.Card
		ok   bool
	)
	if pool, found := s.catalog.Pool(sess.CurrentPoolID); found {
		card, ok = gacha.SelectCard(pool.CardsByRarity(rarity), rarity, pool.HasFeatured(), isFeatured, s.rng)
	}
	if !ok {
		card = s.placeholder(rarity)
		s.metrics.placeholderUsed(rarity)
	}

	rec := sess.Record(card, rarity)
	s.metrics.pulled(rarity, card.IsFeatured, pityBefore+1)
	return rec
}

func isFeatured(c catalog.Card) bool { return c.IsFeatured }

// placeholder stands in for a missing card so the draw still carries its tier.
func (s *Service) placeholder(rarity gacha.Rarity) catalog.Card {
	id := fmt.Sprintf("MOCK_%s_%d", rarity, 1000+s.rng.IntN(9000))
	return catalog.Card{
		CardID:   id,
		Name:     fmt.Sprintf("Mock %s card", rarity),
		Rarity:   rarity,
		ImageURL: catalog.DefaultImageURL(id),
	}
}
