package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/xtding233/gacha-simulator/internal/gacha"
)

// Metrics are the engine's prometheus collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	pulls        *prometheus.CounterVec
	featured     prometheus.Counter
	placeholders *prometheus.CounterVec
	pullsToSSR   prometheus.Histogram
	sessions     prometheus.Counter
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		pulls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gacha",
			Name:      "pulls_total",
			Help:      "Resolved pulls by rarity.",
		}, []string{"rarity"}),
		featured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gacha",
			Name:      "featured_pulls_total",
			Help:      "Top-tier pulls that yielded a featured card.",
		}),
		placeholders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gacha",
			Name:      "placeholder_cards_total",
			Help:      "Pulls resolved with a placeholder because the pool had no card of the tier.",
		}, []string{"rarity"}),
		pullsToSSR: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gacha",
			Name:      "pulls_to_ssr",
			Help:      "Pulls spent since the previous top-tier result.",
			Buckets:   []float64{1, 10, 20, 40, 60, 74, 78, 82, 86, 90},
		}),
		sessions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gacha",
			Name:      "sessions_created_total",
			Help:      "Sessions created on first access.",
		}),
	}
	for _, c := range []prometheus.Collector{m.pulls, m.featured, m.placeholders, m.pullsToSSR, m.sessions} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) pulled(r gacha.Rarity, featured bool, spent int) {
	if m == nil {
		return
	}
	m.pulls.WithLabelValues(string(r)).Inc()
	if r == gacha.RaritySSR {
		m.pullsToSSR.Observe(float64(spent))
		if featured {
			m.featured.Inc()
		}
	}
}

func (m *Metrics) placeholderUsed(r gacha.Rarity) {
	if m == nil {
		return
	}
	m.placeholders.WithLabelValues(string(r)).Inc()
}

func (m *Metrics) sessionCreated() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}
