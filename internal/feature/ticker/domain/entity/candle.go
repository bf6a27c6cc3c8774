// Package entity defines the domain models for the ticker feature.
package entity

// DailyCandle is the finalized OHLCV summary of one trading day.
// It is created only by Rollover and never modified afterwards.
type DailyCandle struct {
	Date   string  `json:"date"`   // Exchange-local date (YYYY-MM-DD)
	Open   float64 `json:"open"`   // Opening price
	Close  float64 `json:"close"`  // Closing price
	High   float64 `json:"high"`   // Highest price during the day
	Low    float64 `json:"low"`    // Lowest price during the day
	Volume int64   `json:"volume"` // Accumulated volume
}
