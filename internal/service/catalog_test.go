package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/cache"
	"github.com/jayclim/CR-Data/internal/constants"
	"github.com/jayclim/CR-Data/internal/domain"
	"github.com/jayclim/CR-Data/internal/metrics"
)

func testCards() *api.CardsResponse {
	return &api.CardsResponse{Items: []api.CatalogCard{
		{Name: "Golem", ID: 26000009, ElixirCost: 8, Rarity: "epic", IconURLs: api.IconURLs{Medium: "golem.png"}},
		{Name: "Cannon", ID: 27000000, ElixirCost: 3, Rarity: "common", IconURLs: api.IconURLs{Medium: "cannon.png", EvolutionMedium: "cannon-evo.png"}},
		{Name: "Fireball", ID: 28000000, ElixirCost: 4, Rarity: "rare", IconURLs: api.IconURLs{Medium: "fireball.png"}},
		{Name: "Knight", ID: 26000000, ElixirCost: 3, IconURLs: api.IconURLs{Medium: "knight.png", HeroMedium: "knight-hero.png"}},
	}}
}

func TestCatalogLoadCaches(t *testing.T) {
	up := newFakeUpstream()
	up.cards = testCards()
	c := cache.NewMemory()
	svc := NewCatalogService(up, c, testConfig(), zerolog.Nop(), metrics.New())
	ctx := context.Background()

	first, err := svc.Load(ctx)
	require.NoError(t, err)
	second, err := svc.Load(ctx)
	require.NoError(t, err)

	assert.Equal(t, 1, up.cardCalls)
	assert.Equal(t, first, second)

	_, ok := c.Get(ctx, constants.CatalogCacheKey)
	assert.True(t, ok)
}

func TestCatalogLoadIgnoresBadCacheEntry(t *testing.T) {
	up := newFakeUpstream()
	up.cards = testCards()
	c := cache.NewMemory()
	c.Set(context.Background(), constants.CatalogCacheKey, []byte("not json"), 0)
	svc := NewCatalogService(up, c, testConfig(), zerolog.Nop(), metrics.New())

	cat, err := svc.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, cat, 4)
	assert.Equal(t, 1, up.cardCalls)
}

func TestCatalogLoadUnavailable(t *testing.T) {
	svc := NewCatalogService(newFakeUpstream(), cache.NewMemory(), testConfig(), zerolog.Nop(), metrics.New())
	_, err := svc.Load(context.Background())
	assert.ErrorIs(t, err, api.ErrUnavailable)
}

func TestBuildCatalog(t *testing.T) {
	cat := BuildCatalog(testCards())

	golem := cat["Golem"]
	assert.Equal(t, domain.CardTypeTroop, golem.Type)
	assert.Equal(t, 8, golem.Elixir)
	assert.Equal(t, "golem.png", golem.Icon)
	assert.False(t, golem.CanEvolve())

	assert.Equal(t, domain.CardTypeBuilding, cat["Cannon"].Type)
	assert.True(t, cat["Cannon"].CanEvolve())
	assert.Equal(t, domain.CardTypeSpell, cat["Fireball"].Type)
	assert.True(t, cat["Knight"].CanBeHero())
}
