package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"

	"github.com/jayclim/CR-Data/internal/api"
	"github.com/jayclim/CR-Data/internal/domain"
)

func TestClanLocationCacheResolve(t *testing.T) {
	up := newFakeUpstream()
	up.clans["#US"] = &api.Clan{Tag: "#US", Location: &api.Location{Name: "United States", IsCountry: true, CountryCode: "US"}}
	up.clans["#EU"] = &api.Clan{Tag: "#EU", Location: &api.Location{Name: "Europe", IsCountry: false}}
	up.clans["#NOCODE"] = &api.Clan{Tag: "#NOCODE", Location: &api.Location{Name: "Atlantis", IsCountry: true}}
	up.clans["#NOLOC"] = &api.Clan{Tag: "#NOLOC"}

	c := NewClanLocationCache(up, zerolog.Nop())
	ctx := context.Background()

	tests := []struct {
		tag  string
		want string
	}{
		{"#US", "US"},
		{"#EU", "Europe"},
		{"#NOCODE", domain.UnknownRegion},
		{"#NOLOC", domain.UnknownRegion},
		{"#MISSING", domain.UnknownRegion},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Resolve(ctx, tt.tag))
		})
	}
	assert.Equal(t, 5, c.Len())
}

func TestClanLocationCacheMemoizes(t *testing.T) {
	up := newFakeUpstream()
	up.clans["#US"] = &api.Clan{Tag: "#US", Location: &api.Location{IsCountry: true, CountryCode: "US"}}
	c := NewClanLocationCache(up, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		assert.Equal(t, "US", c.Resolve(ctx, "#US"))
		assert.Equal(t, domain.UnknownRegion, c.Resolve(ctx, "#GONE"))
	}
	assert.Equal(t, 1, up.clanCallCount("#US"))
	assert.Equal(t, 1, up.clanCallCount("#GONE"))
}

func TestClanLocationCacheNoClan(t *testing.T) {
	up := newFakeUpstream()
	c := NewClanLocationCache(up, zerolog.Nop())

	assert.Equal(t, domain.UnknownRegion, c.Resolve(context.Background(), ""))
	assert.Equal(t, 0, up.clanCallCount(""))
	assert.Equal(t, 0, c.Len())
}

func TestClanLocationCacheCancelledNotStored(t *testing.T) {
	up := newFakeUpstream()
	c := NewClanLocationCache(up, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, domain.UnknownRegion, c.Resolve(ctx, "#LATER"))
	assert.Equal(t, 0, c.Len())

	up.clans["#LATER"] = &api.Clan{Location: &api.Location{Name: "Asia"}}
	assert.Equal(t, "Asia", c.Resolve(context.Background(), "#LATER"))
}

func TestClanLocationCacheBreakerRejectionNotStored(t *testing.T) {
	up := newFakeUpstream()
	up.clanErrs["#OPEN"] = fmt.Errorf("%w: clan: %w", api.ErrUnavailable, gobreaker.ErrOpenState)
	up.clanErrs["#HALF"] = fmt.Errorf("%w: clan: %w", api.ErrUnavailable, gobreaker.ErrTooManyRequests)
	c := NewClanLocationCache(up, zerolog.Nop())
	ctx := context.Background()

	assert.Equal(t, domain.UnknownRegion, c.Resolve(ctx, "#OPEN"))
	assert.Equal(t, domain.UnknownRegion, c.Resolve(ctx, "#HALF"))
	assert.Equal(t, 0, c.Len())

	// breaker closed again
	delete(up.clanErrs, "#OPEN")
	up.clans["#OPEN"] = &api.Clan{Location: &api.Location{IsCountry: true, CountryCode: "BR"}}
	assert.Equal(t, "BR", c.Resolve(ctx, "#OPEN"))
	assert.Equal(t, 2, up.clanCallCount("#OPEN"))
	assert.Equal(t, 1, c.Len())
}
