package service

import (
	"fmt"
	"strings"

	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/session"
)

// cardTally groups history entries of one card.
// Entries are keyed by id and name together, so the same id recorded under
// two names is counted twice.
type cardTally struct {
	id    string
	name  string
	count int
}

func tallyByCard(history []session.PullRecord, r gacha.Rarity) []*cardTally {
	var order []*cardTally
	byKey := make(map[string]*cardTally)
	for _, rec := range history {
		if rec.Card.Rarity != r {
			continue
		}
		key := rec.Card.CardID + "_" + rec.Card.Name
		t, ok := byKey[key]
		if !ok {
			t = &cardTally{id: rec.Card.CardID, name: rec.Card.Name}
			byKey[key] = t
			order = append(order, t)
		}
		t.count++
	}
	return order
}

// Export renders a plain-text report of the session: the current pool's
// library id, the numbered pull history in blocks of ten, then one section
// per tier with its rate and per-card breakdown.
func (s *Service) Export(id string) string {
	sess := s.session(id)
	stats := statisticsOf(sess)

	libraryID := "N/A"
	if p, ok := s.catalog.Pool(sess.CurrentPoolID); ok {
		libraryID = p.LibraryID
	}

	lines := []string{
		"[Gacha Pull Export]",
		"Library ID: " + libraryID,
		"",
		"=== Pulled Cards ===",
	}
	history := sess.Stats.PullHistory
	for i, rec := range history {
		lines = append(lines, fmt.Sprintf("%d. [%s] %s - %s", rec.PullNumber, rec.Card.CardID, rec.Card.Rarity, rec.Card.Name))
		if (i+1)%10 == 0 {
			lines = append(lines, "")
		}
	}

	lines = append(lines, "", "=== Rarity Share ===")
	sections := []struct {
		rarity gacha.Rarity
		rate   string
		total  int
	}{
		{gacha.RaritySSR, stats.SSRRate, stats.SSRCount},
		{gacha.RaritySR, stats.SRRate, stats.SRCount},
		{gacha.RarityR, stats.RRate, stats.RCount},
	}
	for i, sec := range sections {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, fmt.Sprintf("%s %s", sec.rarity, sec.rate))
		for _, t := range tallyByCard(history, sec.rarity) {
			share := 0.0
			if sec.total > 0 {
				share = float64(t.count) / float64(sec.total) * 100
			}
			lines = append(lines, fmt.Sprintf("  - %s: %s, count %d, share %.2f%%", t.id, t.name, t.count, share))
		}
	}

	return strings.Join(lines, "\n")
}
