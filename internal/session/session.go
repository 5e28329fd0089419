package session

import (
	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
)

// PullRecord is the result of one draw. Immutable once created.
type PullRecord struct {
	PullNumber int          `json:"pull_number"` // 1-based within the session
	Card       catalog.Card `json:"card"`
	PityCount  int          `json:"pity_count"` // pity counter after this pull
}

// Stats are the cumulative counters of a session.
type Stats struct {
	TotalPulls        int            `json:"total_pulls"`
	SSRCount          int            `json:"ssr_count"`
	SRCount           int            `json:"sr_count"`
	RCount            int            `json:"r_count"`
	FeaturedSSRCounts map[string]int `json:"featured_ssr_counts"`
	PullHistory       []PullRecord   `json:"pull_history"`
}

// Count returns the counter of tier r.
func (st Stats) Count(r gacha.Rarity) int {
	switch r {
	case gacha.RaritySSR:
		return st.SSRCount
	case gacha.RaritySR:
		return st.SRCount
	default:
		return st.RCount
	}
}

func newStats(featured []string) Stats {
	st := Stats{
		FeaturedSSRCounts: make(map[string]int, len(featured)),
		PullHistory:       []PullRecord{},
	}
	for _, id := range featured {
		st.FeaturedSSRCounts[id] = 0
	}
	return st
}

// Session is the isolated pull state of one user.
//
// A Session is not safe for concurrent use: callers must keep at most one
// operation in flight per session id (see Locker).
type Session struct {
	ID            string `json:"session_id"`
	CurrentPoolID string `json:"current_pool_id"`
	PityCounter   int    `json:"pity_counter"`
	Stats         Stats  `json:"stats"`

	historyCap int
}

// New creates an active session with zeroed counters, tracking the given
// featured card ids. historyCap <= 0 keeps every record.
func New(id, poolID string, featured []string, historyCap int) *Session {
	return &Session{
		ID:            id,
		CurrentPoolID: poolID,
		Stats:         newStats(featured),
		historyCap:    historyCap,
	}
}

// Reset clears counters and history and tracks the given featured ids.
// The pool selection is kept.
func (s *Session) Reset(featured []string) {
	s.PityCounter = 0
	s.Stats = newStats(featured)
}

// Record applies one resolved draw to the session and returns its record.
func (s *Session) Record(card catalog.Card, rarity gacha.Rarity) PullRecord {
	s.Stats.TotalPulls++
	s.PityCounter++

	switch rarity {
	case gacha.RaritySSR:
		s.Stats.SSRCount++
		s.PityCounter = 0
		if _, tracked := s.Stats.FeaturedSSRCounts[card.CardID]; tracked {
			s.Stats.FeaturedSSRCounts[card.CardID]++
		}
	case gacha.RaritySR:
		s.Stats.SRCount++
	default:
		s.Stats.RCount++
	}

	rec := PullRecord{
		PullNumber: s.Stats.TotalPulls,
		Card:       card,
		PityCount:  s.PityCounter,
	}
	s.Stats.PullHistory = append(s.Stats.PullHistory, rec)
	if s.historyCap > 0 && len(s.Stats.PullHistory) > s.historyCap {
		// drop the oldest entries
		s.Stats.PullHistory = s.Stats.PullHistory[len(s.Stats.PullHistory)-s.historyCap:]
	}
	return rec
}

// History returns the last limit records, or all of them when limit <= 0.
func (s *Session) History(limit int) []PullRecord {
	h := s.Stats.PullHistory
	if limit > 0 && limit < len(h) {
		h = h[len(h)-limit:]
	}
	out := make([]PullRecord, len(h))
	copy(out, h)
	return out
}

// FeaturedCounts returns a copy of the featured card counters.
func (s *Session) FeaturedCounts() map[string]int {
	out := make(map[string]int, len(s.Stats.FeaturedSSRCounts))
	for k, v := range s.Stats.FeaturedSSRCounts {
		out[k] = v
	}
	return out
}

// HistoryCap returns the configured history bound.
func (s *Session) HistoryCap() int { return s.historyCap }
