package service

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
)

func testDocument() catalog.Document {
	std := catalog.Pool{
		PoolID: "standard", Name: "Standard", PoolType: catalog.PoolPermanent, LibraryID: "LIB_STD",
		FeaturedSSR: []string{"S1"},
		Cards: []catalog.Card{
			{CardID: "S1", Name: "Aurora", Rarity: gacha.RaritySSR, IsFeatured: true},
			{CardID: "S2", Name: "Borealis", Rarity: gacha.RaritySSR},
			{CardID: "A1", Name: "Cinder", Rarity: gacha.RaritySR},
			{CardID: "A2", Name: "Drift", Rarity: gacha.RaritySR},
			{CardID: "B1", Name: "Dusk", Rarity: gacha.RarityR},
			{CardID: "B2", Name: "Ember", Rarity: gacha.RarityR},
		},
	}
	fire := catalog.Pool{
		PoolID: "fire", Name: "Fire", PoolType: catalog.PoolEvent,
		FeaturedSSR: []string{"F1", "F2"},
		Cards: []catalog.Card{
			{CardID: "F1", Name: "Ember Queen", Rarity: gacha.RaritySSR, IsFeatured: true},
			{CardID: "F2", Name: "Ash King", Rarity: gacha.RaritySSR, IsFeatured: true},
			{CardID: "F3", Name: "Smoke", Rarity: gacha.RaritySSR},
			{CardID: "F4", Name: "Spark", Rarity: gacha.RaritySR},
			{CardID: "F5", Name: "Cinderling", Rarity: gacha.RarityR},
		},
	}
	onlyR := catalog.Pool{
		PoolID: "commons", Name: "Commons", PoolType: catalog.PoolLimited,
		Cards: []catalog.Card{{CardID: "C1", Name: "Pebble", Rarity: gacha.RarityR}},
	}
	return catalog.Document{Pools: []catalog.Pool{std, fire, onlyR}}
}

func newTestService(t *testing.T, historyCap int) *Service {
	t.Helper()
	cat := catalog.New(nil)
	_, err := cat.Load(testDocument())
	require.NoError(t, err)
	svc, err := New(cat, Options{HistoryCap: historyCap, RNG: gacha.NewSeededRNG(2024)})
	require.NoError(t, err)
	return svc
}

func TestLazySessionSeededFromDefaultPool(t *testing.T) {
	svc := newTestService(t, 0)
	assert.False(t, svc.HasSession("u1"))

	st := svc.GetStatistics("u1")
	assert.True(t, svc.HasSession("u1"))
	assert.Equal(t, 0, st.TotalPulls)
	assert.Equal(t, "0.00%", st.SSRRate)
	assert.Equal(t, "0.00%", st.SRRate)
	assert.Equal(t, "0.00%", st.RRate)
	assert.Equal(t, map[string]int{"S1": 0}, st.FeaturedSSRCounts)

	pool, ok := svc.GetCurrentPool("u1")
	require.True(t, ok)
	assert.Equal(t, "standard", pool.PoolID)
}

func TestEmptySessionIDFallsBackToGeneratedID(t *testing.T) {
	svc := newTestService(t, 0)
	id := svc.SessionID("")
	assert.NotEmpty(t, id)
	assert.True(t, svc.HasSession(id))
	assert.Equal(t, id, svc.SessionID(id))
}

func TestPullInvariants(t *testing.T) {
	svc := newTestService(t, 0)
	const n = 20000
	recs := svc.PullMulti("u1", n)
	require.Len(t, recs, n)

	prevPity := 0
	sinceTop := 0
	for i, rec := range recs {
		assert.Equal(t, i+1, rec.PullNumber)
		sinceTop++
		if rec.Card.Rarity == gacha.RaritySSR {
			assert.Equal(t, 0, rec.PityCount)
			assert.LessOrEqual(t, sinceTop, 90, "gap between top-tier results at pull %d", rec.PullNumber)
			sinceTop = 0
		} else {
			assert.Equal(t, prevPity+1, rec.PityCount)
		}
		prevPity = rec.PityCount
	}

	st := svc.GetStatistics("u1")
	assert.Equal(t, n, st.TotalPulls)
	assert.Equal(t, st.TotalPulls, st.SSRCount+st.SRCount+st.RCount)
	assert.Equal(t, prevPity, st.PityCounter)
	// featured card counter only tracks the featured id
	assert.Len(t, st.FeaturedSSRCounts, 1)
	assert.Greater(t, st.FeaturedSSRCounts["S1"], 0)
}

func TestHardPityForcesTopTier(t *testing.T) {
	svc := newTestService(t, 0)
	svc.session("u1").PityCounter = 89

	rec := svc.PullSingle("u1")
	assert.Equal(t, gacha.RaritySSR, rec.Card.Rarity)
	assert.Equal(t, 0, rec.PityCount)
	assert.Equal(t, 0, svc.GetStatistics("u1").PityCounter)
}

func TestPullMultiZeroLeavesStateUnchanged(t *testing.T) {
	svc := newTestService(t, 0)
	svc.PullMulti("u1", 5)
	before := svc.GetStatistics("u1")

	assert.Empty(t, svc.PullMulti("u1", 0))
	assert.Empty(t, svc.PullMulti("u1", -3))
	assert.Equal(t, before, svc.GetStatistics("u1"))
	assert.Len(t, svc.GetPullHistory("u1", 0), 5)
}

func TestPlaceholderKeepsRarity(t *testing.T) {
	svc := newTestService(t, 0)
	require.True(t, svc.SetCurrentPool("u1", "commons", true))
	svc.session("u1").PityCounter = 89

	rec := svc.PullSingle("u1")
	assert.Equal(t, gacha.RaritySSR, rec.Card.Rarity)
	assert.True(t, strings.HasPrefix(rec.Card.CardID, "MOCK_SSR_"), rec.Card.CardID)
	assert.Equal(t, 1, svc.GetStatistics("u1").SSRCount)
}

func TestPullWithoutCatalogUsesPlaceholders(t *testing.T) {
	svc, err := New(catalog.New(nil), Options{RNG: gacha.NewSeededRNG(1)})
	require.NoError(t, err)
	recs := svc.PullMulti("u1", 50)
	for _, rec := range recs {
		assert.True(t, strings.HasPrefix(rec.Card.CardID, "MOCK_"+string(rec.Card.Rarity)+"_"))
	}
	_, ok := svc.GetCurrentPool("u1")
	assert.False(t, ok)
}

func TestHistoryCapAndLimit(t *testing.T) {
	svc := newTestService(t, 25)
	svc.PullMulti("u1", 40)

	h := svc.GetPullHistory("u1", 0)
	require.Len(t, h, 25)
	assert.Equal(t, 16, h[0].PullNumber)
	assert.Equal(t, 40, h[24].PullNumber)

	last := svc.GetPullHistory("u1", 5)
	require.Len(t, last, 5)
	assert.Equal(t, 36, last[0].PullNumber)
	assert.Equal(t, 40, svc.GetStatistics("u1").TotalPulls)
}

func TestSetCurrentPool(t *testing.T) {
	svc := newTestService(t, 0)
	svc.PullMulti("u1", 10)

	assert.False(t, svc.SetCurrentPool("u1", "nope", true))
	assert.Equal(t, 10, svc.GetStatistics("u1").TotalPulls)

	// same pool with auto reset: nothing changes
	assert.True(t, svc.SetCurrentPool("u1", "standard", true))
	assert.Equal(t, 10, svc.GetStatistics("u1").TotalPulls)

	// switch without reset keeps counters and tracked ids
	assert.True(t, svc.SetCurrentPool("u1", "fire", false))
	st := svc.GetStatistics("u1")
	assert.Equal(t, 10, st.TotalPulls)
	assert.Contains(t, st.FeaturedSSRCounts, "S1")

	// switch with reset clears and re-seeds from the new pool
	assert.True(t, svc.SetCurrentPool("u1", "standard", true))
	assert.True(t, svc.SetCurrentPool("u1", "fire", true))
	st = svc.GetStatistics("u1")
	assert.Equal(t, 0, st.TotalPulls)
	assert.Equal(t, map[string]int{"F1": 0, "F2": 0}, st.FeaturedSSRCounts)
}

func TestResetReseedsFromCurrentPool(t *testing.T) {
	svc := newTestService(t, 0)
	require.True(t, svc.SetCurrentPool("u1", "fire", false))
	svc.PullMulti("u1", 30)

	svc.Reset("u1")
	st := svc.GetStatistics("u1")
	assert.Equal(t, 0, st.TotalPulls)
	assert.Equal(t, 0, st.PityCounter)
	assert.Empty(t, svc.GetPullHistory("u1", 0))
	assert.Equal(t, map[string]int{"F1": 0, "F2": 0}, st.FeaturedSSRCounts)

	pool, _ := svc.GetCurrentPool("u1")
	assert.Equal(t, "fire", pool.PoolID)
}

func TestSessionsAreIsolated(t *testing.T) {
	svc := newTestService(t, 0)
	svc.PullMulti("a", 7)
	svc.SetCurrentPool("b", "fire", true)

	assert.Equal(t, 7, svc.GetStatistics("a").TotalPulls)
	assert.Equal(t, 0, svc.GetStatistics("b").TotalPulls)
	pa, _ := svc.GetCurrentPool("a")
	assert.Equal(t, "standard", pa.PoolID)
}

func TestConcurrentSessions(t *testing.T) {
	svc := newTestService(t, 100)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("user-%d", i)
			svc.PullMulti(id, 500)
		}(i)
	}
	wg.Wait()
	for i := 0; i < 16; i++ {
		st := svc.GetStatistics(fmt.Sprintf("user-%d", i))
		assert.Equal(t, 500, st.TotalPulls)
		assert.Equal(t, 500, st.SSRCount+st.SRCount+st.RCount)
	}
}

func TestSnapshotRestore(t *testing.T) {
	svc := newTestService(t, 0)
	svc.PullMulti("u1", 12)
	snap, ok := svc.Snapshot("u1")
	require.True(t, ok)
	_, ok = svc.Snapshot("ghost")
	assert.False(t, ok)

	other := newTestService(t, 0)
	other.Restore(snap)
	assert.Equal(t, svc.GetStatistics("u1"), other.GetStatistics("u1"))

	// a live session wins over a stale snapshot
	other.PullSingle("u1")
	other.Restore(snap)
	assert.Equal(t, 13, other.GetStatistics("u1").TotalPulls)
}

func TestCatalogMutationThroughService(t *testing.T) {
	svc := newTestService(t, 0)
	assert.Len(t, svc.GetAllPools(), 3)

	require.NoError(t, svc.UpdatePool(catalog.Pool{PoolID: "extra"}))
	assert.Len(t, svc.GetAllPools(), 4)

	_, err := svc.LoadPools(catalog.Document{Pools: []catalog.Pool{{PoolID: ""}}})
	assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)

	svc.ClearPools()
	assert.Empty(t, svc.GetAllPools())
	assert.False(t, svc.SetCurrentPool("u1", "standard", true))
}

func TestMetricsCountPulls(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	require.NoError(t, err)

	cat := catalog.New(nil)
	_, err = cat.Load(testDocument())
	require.NoError(t, err)
	svc, err := New(cat, Options{RNG: gacha.NewSeededRNG(3), Metrics: m})
	require.NoError(t, err)

	svc.PullMulti("u1", 300)
	st := svc.GetStatistics("u1")
	assert.Equal(t, float64(st.SSRCount), testutil.ToFloat64(m.pulls.WithLabelValues("SSR")))
	assert.Equal(t, float64(st.SRCount), testutil.ToFloat64(m.pulls.WithLabelValues("SR")))
	assert.Equal(t, float64(st.RCount), testutil.ToFloat64(m.pulls.WithLabelValues("R")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions))

	_, err = NewMetrics(reg)
	assert.Error(t, err, "registering twice must fail")
}

func TestSimulate(t *testing.T) {
	svc := newTestService(t, 0)
	st := svc.Simulate(gacha.GoalFirstHit, 1000, 0)
	assert.Equal(t, 1000, st.Trials)
	assert.LessOrEqual(t, st.Max, 90)
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New(nil, Options{})
	assert.Error(t, err)

	_, err = New(catalog.New(nil), Options{Pity: gacha.PityPolicy{SoftPity: 95, HardPity: 90}})
	assert.ErrorIs(t, err, gacha.ErrPityConfig)
}
