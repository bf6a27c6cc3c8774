// Package pexels provides an image provider backed by the Pexels photo search API.
package pexels

import "time"

// DefaultQuery is the search term used for generated news images.
const DefaultQuery = "finance"

// Config holds configuration for the Pexels API client.
type Config struct {
	APIKey           string        // API key sent in the Authorization header; empty disables the client
	BaseURL          string        // Base URL for the API (e.g., "https://api.pexels.com")
	Timeout          time.Duration // HTTP request timeout
	PerPage          int           // Number of candidates to pick from
	RateLimitPerHour int           // Requests allowed per hour
}

func (c Config) perPage() int {
	if c.PerPage <= 0 {
		return 80
	}
	return c.PerPage
}
