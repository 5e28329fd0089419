package service

import (
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xtding233/gacha-simulator/internal/catalog"
	"github.com/xtding233/gacha-simulator/internal/gacha"
)

var breakdownLine = regexp.MustCompile(`^  - (.+): (.+), count (\d+), share ([0-9.]+)%$`)

// tierTotalsFromExport re-derives per-tier totals from the per-card lines.
func tierTotalsFromExport(t *testing.T, text string) map[gacha.Rarity]int {
	t.Helper()
	totals := map[gacha.Rarity]int{}
	var current gacha.Rarity
	inShare := false
	for _, line := range strings.Split(text, "\n") {
		if line == "=== Rarity Share ===" {
			inShare = true
			continue
		}
		if !inShare || line == "" {
			continue
		}
		if m := breakdownLine.FindStringSubmatch(line); m != nil {
			n, err := strconv.Atoi(m[3])
			require.NoError(t, err)
			totals[current] += n
			continue
		}
		current = gacha.Rarity(strings.Fields(line)[0])
	}
	return totals
}

func TestExportEmptySession(t *testing.T) {
	svc := newTestService(t, 0)
	want := strings.Join([]string{
		"[Gacha Pull Export]",
		"Library ID: LIB_STD",
		"",
		"=== Pulled Cards ===",
		"",
		"=== Rarity Share ===",
		"SSR 0.00%",
		"",
		"SR 0.00%",
		"",
		"R 0.00%",
	}, "\n")
	assert.Equal(t, want, svc.Export("u1"))
}

func TestExportWithoutPool(t *testing.T) {
	svc, err := New(catalog.New(nil), Options{RNG: gacha.NewSeededRNG(1)})
	require.NoError(t, err)
	assert.Contains(t, svc.Export("u1"), "Library ID: N/A")
}

func TestExportListingAndRoundTrip(t *testing.T) {
	svc := newTestService(t, 0)
	svc.PullMulti("u1", 237)
	text := svc.Export("u1")
	lines := strings.Split(text, "\n")

	// history listing starts after the header and has a blank line every 10 entries
	listing := lines[4:]
	for i := 0; i < 237; i++ {
		block := i / 10
		line := listing[i+block]
		assert.True(t, strings.HasPrefix(line, strconv.Itoa(i+1)+". ["), line)
		if (i+1)%10 == 0 {
			assert.Equal(t, "", listing[i+block+1])
		}
	}

	st := svc.GetStatistics("u1")
	assert.Contains(t, text, "SSR "+st.SSRRate)
	assert.Contains(t, text, "SR "+st.SRRate)
	assert.Contains(t, text, "\nR "+st.RRate)

	totals := tierTotalsFromExport(t, text)
	assert.Equal(t, st.SSRCount, totals[gacha.RaritySSR])
	assert.Equal(t, st.SRCount, totals[gacha.RaritySR])
	assert.Equal(t, st.RCount, totals[gacha.RarityR])
}

func TestExportKeysByIDAndName(t *testing.T) {
	svc := newTestService(t, 0)
	sess := svc.session("u1")
	sess.Record(catalog.Card{CardID: "B1", Name: "Dusk", Rarity: gacha.RarityR}, gacha.RarityR)
	sess.Record(catalog.Card{CardID: "B1", Name: "Dusk (alt)", Rarity: gacha.RarityR}, gacha.RarityR)
	sess.Record(catalog.Card{CardID: "B1", Name: "Dusk", Rarity: gacha.RarityR}, gacha.RarityR)

	text := svc.Export("u1")
	assert.Contains(t, text, "  - B1: Dusk, count 2, share 66.67%")
	assert.Contains(t, text, "  - B1: Dusk (alt), count 1, share 33.33%")
	assert.Contains(t, text, "R 100.00%")
}
