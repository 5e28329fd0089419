package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
	"github.com/xtding233/gacha-simulator/internal/session"
)

func newTestStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	s, err := NewRedis(context.Background(), Options{Addr: mr.Addr(), Prefix: "gacha:session:", TTL: time.Hour})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

func TestSaveLoad(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	sess := session.New("u1", "fire", []string{"F1"}, 0)
	sess.Record(catalog.Card{CardID: "F1", Name: "Ember Queen", Rarity: gacha.RaritySSR, IsFeatured: true}, gacha.RaritySSR)
	sess.Record(catalog.Card{CardID: "B1", Name: "Dusk", Rarity: gacha.RarityR}, gacha.RarityR)
	require.NoError(t, s.Save(ctx, sess.Snapshot()))

	assert.True(t, mr.Exists("gacha:session:u1"))
	assert.Equal(t, time.Hour, mr.TTL("gacha:session:u1"))

	snap, ok, err := s.Load(ctx, "u1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sess.Snapshot(), snap)
	assert.Equal(t, 1, snap.PityCounter)
	assert.Equal(t, map[string]int{"F1": 1}, snap.Stats.FeaturedSSRCounts)
}

func TestLoadMissing(t *testing.T) {
	s, _ := newTestStore(t)
	_, ok, err := s.Load(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadCorrupt(t *testing.T) {
	s, mr := newTestStore(t)
	require.NoError(t, mr.Set("gacha:session:bad", "{not json"))
	_, ok, err := s.Load(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, session.New("u2", "p", nil, 0).Snapshot()))
	require.NoError(t, s.Delete(ctx, "u2"))
	assert.False(t, mr.Exists("gacha:session:u2"))
}

func TestNewRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()
	_, err := NewRedis(context.Background(), Options{Addr: addr})
	assert.Error(t, err)
}
