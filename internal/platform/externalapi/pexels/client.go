package pexels

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"ticker_backend/internal/feature/ticker/domain/entity"
	"ticker_backend/internal/feature/ticker/usecase"
	"ticker_backend/internal/platform/externalapi/pexels/dto"
	"ticker_backend/internal/shared/ratelimiter"
)

// ErrRateLimited is returned when the local request budget is exhausted.
var ErrRateLimited = errors.New("pexels: rate limit reached")

// ImageProvider fetches a random photo from Pexels.
type ImageProvider struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
	breaker *gobreaker.CircuitBreaker
	pick    func(n int) int
}

// ImageProvider must satisfy the usecase port.
var _ usecase.ImageProvider = (*ImageProvider)(nil)

// NewImageProvider builds a client. limiter may be nil to disable local rate limiting.
func NewImageProvider(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *ImageProvider {
	return &ImageProvider{
		cfg:     cfg,
		client:  client,
		limiter: limiter,
		breaker: newBreaker(),
		pick:    rand.IntN,
	}
}

func newBreaker() *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "pexels",
		MaxRequests: 1,
		Interval:    10 * time.Minute,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			slog.Info("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
	})
}

// Search returns one random photo matching query.
// It returns (nil, nil) when no API key is configured or the search has no hits.
func (p *ImageProvider) Search(ctx context.Context, query string) (*entity.Image, error) {
	if p.cfg.APIKey == "" {
		slog.Warn("PEXELS_API_KEY not set, skipping image search")
		return nil, nil
	}
	if p.limiter != nil && !p.limiter.Allow() {
		return nil, ErrRateLimited
	}

	res, err := p.breaker.Execute(func() (interface{}, error) {
		return p.search(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	photos := res.([]dto.Photo)
	if len(photos) == 0 {
		return nil, nil
	}
	photo := photos[p.pick(len(photos))]
	return &entity.Image{
		URL:             photo.Src.Medium,
		AttributionName: photo.Photographer,
	}, nil
}

func (p *ImageProvider) search(ctx context.Context, query string) ([]dto.Photo, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("per_page", strconv.Itoa(p.cfg.perPage()))
	q.Set("page", "1")

	u := fmt.Sprintf("%s/v1/search?%s", p.cfg.BaseURL, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.cfg.APIKey)

	res, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("pexels http %d", res.StatusCode)
	}

	var body dto.SearchResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode pexels response: %w", err)
	}
	return body.Photos, nil
}
