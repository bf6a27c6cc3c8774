// Package adapters はtickerフィーチャーの永続化アダプターを提供します。
package adapters

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"ticker_backend/internal/feature/ticker/domain/entity"
	"ticker_backend/internal/feature/ticker/usecase"
)

type candleRepository struct {
	db *gorm.DB
}

var _ usecase.CandleArchive = (*candleRepository)(nil)

// NewCandleRepository はgormで日足をアーカイブするリポジトリを生成します。
func NewCandleRepository(db *gorm.DB) *candleRepository {
	return &candleRepository{db: db}
}

// CandleModel は candles テーブルの行です。銘柄と日付の組が一意です。
type CandleModel struct {
	ID     uint   `gorm:"primaryKey"`
	Symbol string `gorm:"size:32;not null;uniqueIndex:candle_sym_date,priority:1"`
	Date   string `gorm:"size:10;not null;uniqueIndex:candle_sym_date,priority:2"`

	Open   float64 `gorm:"not null"`
	High   float64 `gorm:"not null"`
	Low    float64 `gorm:"not null"`
	Close  float64 `gorm:"not null"`
	Volume int64   `gorm:"not null;default:0"`
}

func (CandleModel) TableName() string {
	return "candles"
}

func toModel(symbol string, e entity.DailyCandle) CandleModel {
	return CandleModel{
		Symbol: symbol,
		Date:   e.Date,
		Open:   e.Open,
		High:   e.High,
		Low:    e.Low,
		Close:  e.Close,
		Volume: e.Volume,
	}
}

func (r *candleRepository) UpsertBatch(ctx context.Context, symbol string, candles []entity.DailyCandle) error {
	if len(candles) == 0 {
		return nil
	}
	ms := make([]CandleModel, 0, len(candles))
	for _, e := range candles {
		ms = append(ms, toModel(symbol, e))
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"open", "high", "low", "close", "volume"}),
	}).Create(&ms).Error
}

func (r *candleRepository) Find(ctx context.Context, symbol string, limit int) ([]entity.DailyCandle, error) {
	var rows []CandleModel
	q := r.db.WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("date DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]entity.DailyCandle, 0, len(rows))
	for _, m := range rows {
		out = append(out, entity.DailyCandle{
			Date:   m.Date,
			Open:   m.Open,
			Close:  m.Close,
			High:   m.High,
			Low:    m.Low,
			Volume: m.Volume,
		})
	}
	return out, nil
}
