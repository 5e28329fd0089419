package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokensForDraws(t *testing.T) {
	tok := Token{Name: "Star Stone", PerDraw: 160, PerTenDraw: 1500}
	assert.Equal(t, 0, tok.TokensForDraws(0))
	assert.Equal(t, 160, tok.TokensForDraws(1))
	assert.Equal(t, 1440, tok.TokensForDraws(9))
	assert.Equal(t, 1500, tok.TokensForDraws(10))
	assert.Equal(t, 3000+3*160, tok.TokensForDraws(23))

	plain := Token{PerDraw: 100}
	assert.Equal(t, 1000, plain.TokensForDraws(10))
}

func TestDrawsFor(t *testing.T) {
	tok := Token{PerDraw: 160, PerTenDraw: 1500}
	assert.Equal(t, 0, tok.DrawsFor(159))
	assert.Equal(t, 1, tok.DrawsFor(160))
	assert.Equal(t, 9, tok.DrawsFor(1499))
	assert.Equal(t, 10, tok.DrawsFor(1500))
	assert.Equal(t, 11, tok.DrawsFor(1660))

	assert.Zero(t, Token{}.DrawsFor(1000))
}
