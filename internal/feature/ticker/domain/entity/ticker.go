package entity

import (
	"math"
	"time"
)

const (
	// DateLayout は lastResetDate と DailyCandle.Date の書式です。
	DateLayout = "2006-01-02"
	// HistoryStartDate より前の取引日はローソク足として記録しません。
	HistoryStartDate = "2024-10-01"
	// MaxTransactions は取引ログの最大保持件数です。
	MaxTransactions = 20
	// MaxWalkPercent は1ティックあたりの最大変動率です（±2%）。
	MaxWalkPercent = 0.02
)

// TickerState は永続化される唯一の集約です。JSONのフィールド名がスナップショットの契約になります。
type TickerState struct {
	Symbol      string `json:"symbol"`
	CompanyInfo string `json:"companyInfo"`

	CurrentPrice float64 `json:"currentPrice"`
	DayOpen      float64 `json:"dayOpen"`
	DayHigh      float64 `json:"dayHigh"`
	DayLow       float64 `json:"dayLow"`
	Volume       int64   `json:"volume"`

	FiftyTwoWkHigh float64 `json:"fiftyTwoWkHigh"`
	FiftyTwoWkLow  float64 `json:"fiftyTwoWkLow"`

	Transactions []string   `json:"transactions"`
	News         []NewsItem `json:"news"`

	Password string `json:"password"`

	LastResetDate string `json:"lastResetDate"`
	LastNewsHour  *int   `json:"lastNewsHour"`

	PriceHistory []DailyCandle `json:"priceHistory"`
}

// DefaultTickerState は初回起動時の状態を返します。
func DefaultTickerState(password string, today string) *TickerState {
	return &TickerState{
		Symbol:         "ENGINE-XIE",
		CompanyInfo:    "Truly unstoppable. Runs 24/7 on Go.",
		CurrentPrice:   4.6,
		DayOpen:        4.6,
		DayHigh:        4.9,
		DayLow:         4.3,
		FiftyTwoWkHigh: 6.10,
		FiftyTwoWkLow:  0.50,
		Transactions:   []string{},
		News:           []NewsItem{},
		Password:       password,
		LastResetDate:  today,
		PriceHistory:   []DailyCandle{},
	}
}

// Normalize は読み込んだスナップショットの欠損値を補います。
func (s *TickerState) Normalize() {
	if s.DayOpen == 0 {
		s.DayOpen = s.CurrentPrice
	}
	if s.DayHigh < s.DayLow {
		s.DayHigh, s.DayLow = s.DayLow, s.DayHigh
	}
	if s.Transactions == nil {
		s.Transactions = []string{}
	}
	if s.News == nil {
		s.News = []NewsItem{}
	}
	if s.PriceHistory == nil {
		s.PriceHistory = []DailyCandle{}
	}
	if len(s.Transactions) > MaxTransactions {
		s.Transactions = s.Transactions[:MaxTransactions]
	}
}

// ApplyRandomWalk は現在値に pct（-MaxWalkPercent〜+MaxWalkPercent）の変動を適用します。
// 価格は52週安値を下回らず、日中高値・安値は価格を含むように拡張されます。
func (s *TickerState) ApplyRandomWalk(pct float64, volumeDelta int64) {
	s.CurrentPrice += s.CurrentPrice * pct
	if s.CurrentPrice < s.FiftyTwoWkLow {
		s.CurrentPrice = s.FiftyTwoWkLow
	}
	s.extendDayRange(s.CurrentPrice)
	if volumeDelta > 0 {
		s.Volume += volumeDelta
	}
}

// ApplyOverride は管理者が指定した価格を現在値に設定します。
func (s *TickerState) ApplyOverride(price float64) {
	s.CurrentPrice = price
	s.extendDayRange(price)
}

func (s *TickerState) extendDayRange(price float64) {
	if price > s.DayHigh {
		s.DayHigh = price
	}
	if price < s.DayLow {
		s.DayLow = price
	}
}

// Rollover は today（取引所タイムゾーンの日付）が lastResetDate と異なる場合に
// 前日のローソク足を確定し、新しい取引日を開始します。
// 記録されたローソク足を返します。日付が同じ場合や記録対象外の日付の場合は nil です。
// 何日経過していても1ステップのみ進め、欠けた日を補完しません。
func (s *TickerState) Rollover(today string) *DailyCandle {
	if today == s.LastResetDate {
		return nil
	}

	var finalized *DailyCandle
	if s.LastResetDate >= HistoryStartDate {
		c := DailyCandle{
			Date:   s.LastResetDate,
			Open:   s.DayOpen,
			Close:  s.CurrentPrice,
			High:   s.DayHigh,
			Low:    s.DayLow,
			Volume: s.Volume,
		}
		s.PriceHistory = append(s.PriceHistory, c)
		finalized = &c
	}

	// 前日終値を翌日の始値とする
	s.DayOpen = s.CurrentPrice
	s.DayHigh = s.DayOpen
	s.DayLow = s.DayOpen
	s.Volume = 0
	s.LastResetDate = today

	return finalized
}

// PushTransaction は取引ログの先頭に1行追加し、MaxTransactions 件に切り詰めます。
func (s *TickerState) PushTransaction(line string) {
	s.Transactions = append([]string{line}, s.Transactions...)
	if len(s.Transactions) > MaxTransactions {
		s.Transactions = s.Transactions[:MaxTransactions]
	}
}

// PushNews はニュースを先頭に追加し、保持期間を過ぎたニュースを削除します。
func (s *TickerState) PushNews(item NewsItem, now time.Time) {
	s.News = append([]NewsItem{item}, s.News...)
	s.PruneNews(now)
}

// PruneNews は保持期間を過ぎたニュースを削除します。
func (s *TickerState) PruneNews(now time.Time) {
	kept := s.News[:0]
	for _, n := range s.News {
		if n.IsRetained(now) {
			kept = append(kept, n)
		}
	}
	s.News = kept
}

// Clone は状態のディープコピーを返します。
func (s *TickerState) Clone() *TickerState {
	c := *s
	c.Transactions = append([]string{}, s.Transactions...)
	c.PriceHistory = append([]DailyCandle{}, s.PriceHistory...)
	c.News = make([]NewsItem, len(s.News))
	for i, n := range s.News {
		if n.ImageURL != nil {
			u := *n.ImageURL
			n.ImageURL = &u
		}
		c.News[i] = n
	}
	if s.LastNewsHour != nil {
		h := *s.LastNewsHour
		c.LastNewsHour = &h
	}
	return &c
}

// IsValidPrice は価格として受け付け可能な有限値かどうかを判定します。
func IsValidPrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
