package service

import (
	"fmt"

	"github.com/xtding233/gacha-simulator/internal/session"
)

// Statistics is the summary of a session returned to callers.
type Statistics struct {
	TotalPulls        int            `json:"total_pulls"`
	SSRCount          int            `json:"ssr_count"`
	SRCount           int            `json:"sr_count"`
	RCount            int            `json:"r_count"`
	SSRRate           string         `json:"ssr_rate"`
	SRRate            string         `json:"sr_rate"`
	RRate             string         `json:"r_rate"`
	FeaturedSSRCounts map[string]int `json:"featured_ssr_counts"`
	PityCounter       int            `json:"pity_counter"`
}

// formatRate renders n/total as a percentage with two decimals.
func formatRate(n, total int) string {
	if total == 0 {
		return "0.00%"
	}
	return fmt.Sprintf("%.2f%%", float64(n)/float64(total)*100)
}

// GetStatistics summarizes the session.
func (s *Service) GetStatistics(id string) Statistics {
	return statisticsOf(s.session(id))
}

func statisticsOf(sess *session.Session) Statistics {
	st := sess.Stats
	return Statistics{
		TotalPulls:        st.TotalPulls,
		SSRCount:          st.SSRCount,
		SRCount:           st.SRCount,
		RCount:            st.RCount,
		SSRRate:           formatRate(st.SSRCount, st.TotalPulls),
		SRRate:            formatRate(st.SRCount, st.TotalPulls),
		RRate:             formatRate(st.RCount, st.TotalPulls),
		FeaturedSSRCounts: sess.FeaturedCounts(),
		PityCounter:       sess.PityCounter,
	}
}

// GetPullHistory returns the last limit records, all of them when limit <= 0.
func (s *Service) GetPullHistory(id string, limit int) []session.PullRecord {
	return s.session(id).History(limit)
}
