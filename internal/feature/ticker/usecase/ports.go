package usecase

import (
	"context"
	"math/rand/v2"
	"time"

	"ticker_backend/internal/feature/ticker/domain/entity"
)

// SnapshotStore はティッカー状態のスナップショット保存先を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type SnapshotStore interface {
	// Save は状態全体を保存します。
	Save(ctx context.Context, state *entity.TickerState) error
	// Load は最後に保存された状態を返します。保存されていない場合は (nil, nil) を返します。
	Load(ctx context.Context) (*entity.TickerState, error)
}

// ImageProvider はニュースに添える画像を検索する外部サービスです。
// 見つからない場合は (nil, nil) を返します。
type ImageProvider interface {
	Search(ctx context.Context, query string) (*entity.Image, error)
}

// CandleArchive は確定したローソク足の保存先です。
type CandleArchive interface {
	// UpsertBatch は銘柄のローソク足を日付単位で挿入（または更新）します。
	UpsertBatch(ctx context.Context, symbol string, candles []entity.DailyCandle) error
	// Find は新しい順に最大 limit 件のローソク足を返します。
	Find(ctx context.Context, symbol string, limit int) ([]entity.DailyCandle, error)
}

// Metrics はティッカーの状態変化を記録します。
type Metrics interface {
	ObservePrice(price float64, volume int64)
	CountTick()
	CountNews(source string)
	CountCandle()
	CountPersistenceError()
	CountImageFailure()
}

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

// ClockFunc は関数を Clock として扱うためのアダプターです。
type ClockFunc func() time.Time

// Now は f() を返します。
func (f ClockFunc) Now() time.Time { return f() }

// RandomSource は価格変動と出来高に使う乱数源です。
type RandomSource interface {
	// Float64 は [0, 1) の一様乱数を返します。
	Float64() float64
	// IntN は [0, n) の一様乱数を返します。
	IntN(n int) int
}

// NewRandomSource は現在時刻をシードにした RandomSource を生成します。
func NewRandomSource() RandomSource {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

type noopMetrics struct{}

func (noopMetrics) ObservePrice(float64, int64) {}
func (noopMetrics) CountTick()                  {}
func (noopMetrics) CountNews(string)            {}
func (noopMetrics) CountCandle()                {}
func (noopMetrics) CountPersistenceError()      {}
func (noopMetrics) CountImageFailure()          {}
