package pricing

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShop() Shop {
	return Shop{
		Currency: "CAD",
		Packs: []Pack{
			{ID: "60", Name: "60 Pack", Tokens: 60, FirstTimeX2: true, PriceCents: 99},
			{ID: "300", Name: "300 Pack", Tokens: 300, BonusTokens: 30, FirstTimeX2: true, PriceCents: 499},
			{ID: "980", Name: "980 Pack", Tokens: 980, BonusTokens: 110, FirstTimeX2: true, PriceCents: 1499},
		},
	}
}

func TestCheapestFor(t *testing.T) {
	shop := testShop()

	plan, err := shop.CheapestFor(160, false)
	require.NoError(t, err)
	assert.Equal(t, 297, plan.TotalCents)
	assert.Equal(t, 180, plan.TotalTokens)
	require.Len(t, plan.Purchases, 1)
	assert.Equal(t, Purchase{PackID: "60", Name: "60 Pack", Qty: 3, UnitPrice: 99, UnitTokens: 60, Subtotal: 297}, plan.Purchases[0])

	plan, err = shop.CheapestFor(160, true)
	require.NoError(t, err)
	assert.Equal(t, 198, plan.TotalCents)
	assert.Equal(t, 180, plan.TotalTokens)
	require.Len(t, plan.Purchases, 2)
	assert.Equal(t, "60#x2", plan.Purchases[0].PackID)
	assert.Equal(t, 120, plan.Purchases[0].UnitTokens)
	assert.Equal(t, "60", plan.Purchases[1].PackID)
}

func TestCheapestForAppliesTax(t *testing.T) {
	shop := testShop()
	shop.TaxRate = 0.13

	plan, err := shop.CheapestFor(160, false)
	require.NoError(t, err)
	assert.Equal(t, 297, plan.SubCents)
	assert.Equal(t, 39, plan.TaxCents)
	assert.Equal(t, 336, plan.TotalCents)
}

func TestCheapestForEdges(t *testing.T) {
	plan, err := testShop().CheapestFor(0, true)
	require.NoError(t, err)
	assert.Empty(t, plan.Purchases)
	assert.Equal(t, "CAD", plan.Currency)

	plan, err = Shop{}.CheapestFor(100, false)
	require.NoError(t, err)
	assert.Empty(t, plan.Purchases)

	_, err = testShop().CheapestFor(MaxTokens+1, false)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestMostTokensFor(t *testing.T) {
	shop := testShop()

	plan, err := shop.MostTokensFor(500, false)
	require.NoError(t, err)
	assert.Equal(t, 330, plan.TotalTokens)
	assert.Equal(t, 499, plan.TotalCents)

	plan, err = shop.MostTokensFor(200, true)
	require.NoError(t, err)
	assert.Equal(t, 180, plan.TotalTokens)
	assert.Equal(t, 198, plan.TotalCents)
}

func TestMostTokensForStaysWithinTaxedBudget(t *testing.T) {
	shop := testShop()
	shop.TaxRate = 0.13

	plan, err := shop.MostTokensFor(112, false)
	require.NoError(t, err)
	assert.Equal(t, 60, plan.TotalTokens)
	assert.Equal(t, 112, plan.TotalCents)

	plan, err = shop.MostTokensFor(111, false)
	require.NoError(t, err)
	assert.Zero(t, plan.TotalTokens)
	assert.Empty(t, plan.Purchases)

	_, err = shop.MostTokensFor(MaxBudgetCents+1, false)
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestShopValidate(t *testing.T) {
	require.NoError(t, testShop().Validate())
	require.NoError(t, Shop{}.Validate())

	bad := Shop{TaxRate: -1, Packs: []Pack{
		{ID: "a", Tokens: 10, PriceCents: 0},
		{ID: "a", PriceCents: 10},
		{Tokens: 5, PriceCents: 5},
	}}
	err := bad.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShop))
	for _, want := range []string{"tax_rate", "price_cents", "duplicate id", "must grant tokens", "id is required"} {
		assert.Contains(t, err.Error(), want)
	}
}
