// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"strings"
	"time"
)

// TimeUntilNextMidnight は loc における次の午前0時（日次ロールオーバー）までの期間を返します。
// 確定済みのローソク足は日付が変わるまで増えないため、キャッシュのTTLに使います。
func TimeUntilNextMidnight(now time.Time, loc *time.Location) time.Duration {
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.Sub(local)
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
