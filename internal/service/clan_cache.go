package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/domain"
)

// ClanLocationCache memoizes clan tag -> region for one run. Two goroutines
// may resolve the same clan concurrently; the first stored value wins.
type ClanLocationCache struct {
	upstream Upstream
	entries  sync.Map
	logger   zerolog.Logger
}

func NewClanLocationCache(upstream Upstream, logger zerolog.Logger) *ClanLocationCache {
	return &ClanLocationCache{upstream: upstream, logger: logger}
}

// Resolve returns the clan's country code, or its location name for
// non-country regions, or "Unknown". Upstream failures are cached as
// "Unknown"; calls the breaker refused are retried on the next lookup.
func (c *ClanLocationCache) Resolve(ctx context.Context, clanTag string) string {
	if clanTag == "" {
		return domain.UnknownRegion
	}
	if v, ok := c.entries.Load(clanTag); ok {
		return v.(string)
	}

	region := domain.UnknownRegion
	clan, err := c.upstream.GetClan(ctx, clanTag)
	switch {
	case err != nil:
		c.logger.Debug().Err(err).Str("clan_tag", clanTag).Msg("clan lookup failed")
	case clan.Location == nil:
	case clan.Location.IsCountry:
		if clan.Location.CountryCode != "" {
			region = clan.Location.CountryCode
		}
	case clan.Location.Name != "":
		region = clan.Location.Name
	}

	// a cancelled run or a breaker rejection must not poison the memo
	if ctx.Err() != nil || api.Rejected(err) {
		return region
	}
	actual, _ := c.entries.LoadOrStore(clanTag, region)
	return actual.(string)
}

func (c *ClanLocationCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
