// Package di provides dependency injection factories for creating application components.
package di

import (
	"time"

	"ticker_backend/internal/feature/ticker/usecase"
	"ticker_backend/internal/platform/externalapi/pexels"
	infrahttp "ticker_backend/internal/platform/http"
	"ticker_backend/internal/shared/ratelimiter"
)

// NewImageProvider creates a Pexels-backed ImageProvider with its own HTTP client and hourly rate limit.
func NewImageProvider(cfg pexels.Config) usecase.ImageProvider {
	httpClient := infrahttp.NewHTTPClient(cfg.Timeout)
	limiter := ratelimiter.NewRateLimiter(cfg.RateLimitPerHour, time.Hour)
	return pexels.NewImageProvider(cfg, httpClient, limiter)
}
