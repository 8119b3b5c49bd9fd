package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
	"github.com/sony/gobreaker"
	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/jayclim/CR-Data/internal/config"
	"github.com/jayclim/CR-Data/internal/constants"
	"github.com/jayclim/CR-Data/internal/metrics"
)

// ErrUnavailable wraps every upstream failure other than rate limiting.
var ErrUnavailable = errors.New("upstream data unavailable")

var errRateLimited = errors.New("rate limited")

type StatusError struct {
	Code int
}

func (e *StatusError) Error() string { return "API error: " + strconv.Itoa(e.Code) }

type RoyaleClient struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker

	backoffBase   time.Duration
	backoffJitter time.Duration

	logger  zerolog.Logger
	metrics *metrics.Metrics
}

func NewRoyaleClient(cfg *config.Config, logger zerolog.Logger, m *metrics.Metrics) *RoyaleClient {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &RoyaleClient{
		apiKey:  cfg.ProxyAPIKey,
		baseURL: strings.TrimRight(cfg.APIBaseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     cfg.MaxConcurrency * 2,
			ReadTimeout:         constants.ExternalAPITimeout,
			WriteTimeout:        constants.ExternalAPITimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		limiter:       rate.NewLimiter(limit, cfg.RequestBurst),
		backoffBase:   cfg.BackoffBase,
		backoffJitter: cfg.BackoffJitter,
		logger:        logger.With().Str("component", "royale_client").Logger(),
		metrics:       m,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "royale",
		Interval: time.Minute,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// only transport errors and 5xx count against the upstream
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, errRateLimited) || isContextErr(err) {
				return true
			}
			var se *StatusError
			return errors.As(err, &se) && se.Code < 500
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})

	return c
}

// ListTopPlayers returns one page of the global path-of-legend ladder.
func (c *RoyaleClient) ListTopPlayers(ctx context.Context, limit int, after string) (*PlayerRankingPage, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}
	return doRequest[PlayerRankingPage](ctx, c, "ranking_players", "locations/global/pathoflegend/players", q)
}

func (c *RoyaleClient) GetBattleLog(ctx context.Context, tag string) ([]Battle, error) {
	battles, err := doRequest[[]Battle](ctx, c, "battlelog", "players/"+url.PathEscape(tag)+"/battlelog", nil)
	if err != nil {
		return nil, err
	}
	return *battles, nil
}

func (c *RoyaleClient) GetClan(ctx context.Context, tag string) (*Clan, error) {
	return doRequest[Clan](ctx, c, "clan", "clans/"+url.PathEscape(tag), nil)
}

func (c *RoyaleClient) GetPlayer(ctx context.Context, tag string) (*PlayerProfile, error) {
	return doRequest[PlayerProfile](ctx, c, "player", "players/"+url.PathEscape(tag), nil)
}

func (c *RoyaleClient) GetCards(ctx context.Context) (*CardsResponse, error) {
	return doRequest[CardsResponse](ctx, c, "cards", "cards", nil)
}

func (c *RoyaleClient) GetClanRankings(ctx context.Context, location string, limit int) (*ClanRankings, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	return doRequest[ClanRankings](ctx, c, "ranking_clans", "locations/"+url.PathEscape(location)+"/rankings/clans", q)
}

// Rejected reports whether the circuit breaker refused the call without
// reaching the upstream.
func Rejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// backoff sleeps base + U(0, jitter) between 429 retries, with no retry cap.
func (c *RoyaleClient) backoff() retry.Backoff {
	half := c.backoffJitter / 2
	b := retry.NewConstant(c.backoffBase + half)
	if half > 0 {
		b = retry.WithJitter(half, b)
	}
	return b
}

func doRequest[T any](ctx context.Context, c *RoyaleClient, route, path string, query url.Values) (*T, error) {
	uri := c.baseURL + "/" + path
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}
	log := c.logger.With().Str("route", route).Str("path", path).Logger()

	var body []byte
	err := retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		out, err := c.breaker.Execute(func() (interface{}, error) {
			return c.do(ctx, route, uri)
		})
		if errors.Is(err, errRateLimited) {
			c.metrics.RateLimited(route)
			log.Debug().Msg("rate limited, backing off")
			return retry.RetryableError(err)
		}
		if err != nil {
			return err
		}
		body = out.([]byte)
		return nil
	})
	if err != nil {
		log.Warn().Err(err).Msg("upstream request failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, route, err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		log.Warn().Err(err).Msg("failed to decode upstream response")
		return nil, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, route, err)
	}
	return &result, nil
}

// do performs exactly one network call.
func (c *RoyaleClient) do(ctx context.Context, route, uri string) ([]byte, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(uri)
	// keep %23 in tags as sent
	req.URI().DisablePathNormalizing = true
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(constants.ExternalAPITimeout)
	callerDeadline := false
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
		callerDeadline = true
	}

	start := time.Now()
	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		c.metrics.ObserveRequest(route, 0, time.Since(start))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// fasthttp's timer can fire just before the context's own
		if callerDeadline && errors.Is(err, fasthttp.ErrTimeout) {
			return nil, context.DeadlineExceeded
		}
		return nil, err
	}
	status := resp.StatusCode()
	c.metrics.ObserveRequest(route, status, time.Since(start))

	switch {
	case status == fasthttp.StatusTooManyRequests:
		return nil, errRateLimited
	case status < 200 || status > 299:
		return nil, &StatusError{Code: status}
	}

	// resp is released on return
	return append([]byte(nil), resp.Body()...), nil
}
