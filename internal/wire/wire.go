// Package wire converts domain values to and from generic key/value
// documents (map[string]any and protobuf Struct). Decoding is lenient:
// absent or mistyped fields take their zero value.
package wire

import (
	"github.com/cockroachdb/errors"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/service"
	"github.com/xtding233/gacha-simulator/internal/session"
)

func CardToMap(c catalog.Card) map[string]any {
	return map[string]any{
		"card_id":     c.CardID,
		"name":        c.Name,
		"rarity":      string(c.Rarity),
		"pool_id":     c.PoolID,
		"is_featured": c.IsFeatured,
		"image_url":   c.ImageURL,
	}
}

func CardFromMap(m map[string]any) catalog.Card {
	return catalog.Card{
		CardID:     str(m, "card_id"),
		Name:       str(m, "name"),
		Rarity:     gacha.Rarity(str(m, "rarity")),
		PoolID:     str(m, "pool_id"),
		IsFeatured: boolean(m, "is_featured"),
		ImageURL:   str(m, "image_url"),
	}
}

func PoolToMap(p *catalog.Pool) map[string]any {
	cards := make([]any, len(p.Cards))
	for i, c := range p.Cards {
		cards[i] = CardToMap(c)
	}
	return map[string]any{
		"pool_id":      p.PoolID,
		"name":         p.Name,
		"pool_type":    string(p.PoolType),
		"description":  p.Description,
		"cards":        cards,
		"featured_ssr": anyList(p.FeaturedSSR),
		"library_id":   p.LibraryID,
	}
}

// PoolFromMap decodes a pool. The result is not validated.
func PoolFromMap(m map[string]any) catalog.Pool {
	p := catalog.Pool{
		PoolID:      str(m, "pool_id"),
		Name:        str(m, "name"),
		PoolType:    catalog.PoolType(str(m, "pool_type")),
		Description: str(m, "description"),
		LibraryID:   str(m, "library_id"),
		Cards:       []catalog.Card{},
		FeaturedSSR: []string{},
	}
	if raw, ok := m["cards"].([]any); ok {
		for _, item := range raw {
			if cm, ok := item.(map[string]any); ok {
				p.Cards = append(p.Cards, CardFromMap(cm))
			}
		}
	}
	if raw, ok := m["featured_ssr"].([]any); ok {
		for _, item := range raw {
			if id, ok := item.(string); ok {
				p.FeaturedSSR = append(p.FeaturedSSR, id)
			}
		}
	}
	return p
}

// PoolSummaryToMap is the listing form of a pool: no cards, only their count.
func PoolSummaryToMap(p *catalog.Pool) map[string]any {
	return map[string]any{
		"pool_id":      p.PoolID,
		"name":         p.Name,
		"pool_type":    string(p.PoolType),
		"description":  p.Description,
		"featured_ssr": anyList(p.FeaturedSSR),
		"library_id":   p.LibraryID,
		"card_count":   len(p.Cards),
	}
}

func RecordToMap(r session.PullRecord) map[string]any {
	return map[string]any{
		"pull_number": r.PullNumber,
		"card":        CardToMap(r.Card),
		"pity_count":  r.PityCount,
	}
}

func RecordFromMap(m map[string]any) session.PullRecord {
	card, _ := m["card"].(map[string]any)
	return session.PullRecord{
		PullNumber: integer(m, "pull_number"),
		Card:       CardFromMap(card),
		PityCount:  integer(m, "pity_count"),
	}
}

func RecordsToList(recs []session.PullRecord) []any {
	out := make([]any, len(recs))
	for i, r := range recs {
		out[i] = RecordToMap(r)
	}
	return out
}

func StatisticsToMap(st service.Statistics) map[string]any {
	featured := make(map[string]any, len(st.FeaturedSSRCounts))
	for id, n := range st.FeaturedSSRCounts {
		featured[id] = n
	}
	return map[string]any{
		"total_pulls":         st.TotalPulls,
		"ssr_count":           st.SSRCount,
		"sr_count":            st.SRCount,
		"r_count":             st.RCount,
		"ssr_rate":            st.SSRRate,
		"sr_rate":             st.SRRate,
		"r_rate":              st.RRate,
		"featured_ssr_counts": featured,
		"pity_counter":        st.PityCounter,
	}
}

func StatisticsFromMap(m map[string]any) service.Statistics {
	st := service.Statistics{
		TotalPulls:        integer(m, "total_pulls"),
		SSRCount:          integer(m, "ssr_count"),
		SRCount:           integer(m, "sr_count"),
		RCount:            integer(m, "r_count"),
		SSRRate:           str(m, "ssr_rate"),
		SRRate:            str(m, "sr_rate"),
		RRate:             str(m, "r_rate"),
		FeaturedSSRCounts: map[string]int{},
		PityCounter:       integer(m, "pity_counter"),
	}
	if raw, ok := m["featured_ssr_counts"].(map[string]any); ok {
		for id := range raw {
			st.FeaturedSSRCounts[id] = integer(raw, id)
		}
	}
	return st
}

// ToStruct wraps a map built by this package into a protobuf Struct.
func ToStruct(m map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, errors.Wrap(err, "encode struct")
	}
	return s, nil
}

// FromStruct unwraps a protobuf Struct; nil gives an empty map.
func FromStruct(s *structpb.Struct) map[string]any {
	if s == nil {
		return map[string]any{}
	}
	return s.AsMap()
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func boolean(m map[string]any, key string) bool {
	v, _ := m[key].(bool)
	return v
}

// integer accepts the numeric types produced by JSON and structpb decoding
// as well as native ints.
func integer(m map[string]any, key string) int {
	switch v := m[key].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}

func anyList(ids []string) []any {
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id
	}
	return out
}
