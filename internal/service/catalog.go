package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/cache"
	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/constants"
	"github.com/jayclim/CR-Data/internal/domain"
	"github.com/jayclim/CR-Data/internal/metrics"
)

type CatalogService struct {
	upstream Upstream
	cache    cache.Cache
	cfg      *config.Config
	logger   zerolog.Logger
	metrics  *metrics.Metrics
}

func NewCatalogService(upstream Upstream, c cache.Cache, cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *CatalogService {
	return &CatalogService{upstream: upstream, cache: c, cfg: cfg, logger: logger, metrics: m}
}

// Load returns the card catalog, from cache when fresh.
func (s *CatalogService) Load(ctx context.Context) (domain.Catalog, error) {
	if b, ok := s.cache.Get(ctx, constants.CatalogCacheKey); ok {
		var cat domain.Catalog
		if err := json.Unmarshal(b, &cat); err == nil && len(cat) > 0 {
			s.metrics.CatalogLookup(true)
			s.logger.Debug().Int("cards", len(cat)).Msg("card catalog loaded from cache")
			return cat, nil
		}
		s.logger.Warn().Msg("ignoring unreadable cached catalog")
	}
	s.metrics.CatalogLookup(false)

	resp, err := s.upstream.GetCards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch card catalog: %w", err)
	}

	cat := BuildCatalog(resp)
	if b, err := json.Marshal(cat); err == nil {
		s.cache.Set(ctx, constants.CatalogCacheKey, b, s.cfg.CatalogTTL)
	}

	s.logger.Info().Int("cards", len(cat)).Msg("card catalog fetched")
	return cat, nil
}

func BuildCatalog(resp *api.CardsResponse) domain.Catalog {
	cat := make(domain.Catalog, len(resp.Items))
	for _, c := range resp.Items {
		cat[c.Name] = domain.Card{
			ID:       c.ID,
			Name:     c.Name,
			Elixir:   c.ElixirCost,
			Type:     domain.CardTypeOf(c.ID, c.Name),
			Rarity:   c.Rarity,
			Icon:     c.IconURLs.Medium,
			EvoIcon:  c.IconURLs.EvolutionMedium,
			HeroIcon: c.IconURLs.HeroMedium,
		}
	}
	return cat
}
