package ratelimiter

import (
	"log/slog"
	"sync"
	"time"
)

// RateLimiterInterface は、API呼び出しなどの操作の頻度を制限するインターフェースです。
type RateLimiterInterface interface {
	Allow() bool
}

// RateLimiterは、固定ウィンドウ方式で操作の頻度を制限します。
// 上限に達しても待機せず、呼び出し側に拒否を返します。
type RateLimiter struct {
	mu        sync.Mutex
	limit     int           // ウィンドウあたりの上限
	interval  time.Duration // どの単位でリセットするか
	count     int
	lastReset time.Time
	now       func() time.Time
}

// NewRateLimiterは新しいRateLimiterのインスタンスを生成します。
func NewRateLimiter(limit int, interval time.Duration) *RateLimiter {
	return newRateLimiter(limit, interval, time.Now)
}

func newRateLimiter(limit int, interval time.Duration, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		limit:     limit,
		interval:  interval,
		lastReset: now(),
		now:       now,
	}
}

// Allowは現在のウィンドウに空きがあればカウントしてtrueを返します。
// 上限に達している場合はfalseを返します（待機はしません）。
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	// interval を過ぎたらカウントリセット
	if now.Sub(rl.lastReset) >= rl.interval {
		rl.count = 0
		rl.lastReset = now
	}

	if rl.count >= rl.limit {
		slog.Warn("rate limit reached", "limit", rl.limit, "resets_in", rl.interval-now.Sub(rl.lastReset))
		return false
	}
	rl.count++
	return true
}
