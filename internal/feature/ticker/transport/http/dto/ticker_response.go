package dto

import "ticker_backend/internal/feature/ticker/domain/entity"

// ErrorResponse はエラー時のレスポンスです。
type ErrorResponse struct {
	Error string `json:"error"`
}

// TickerResponse は GET /engine-xie のレスポンスです。パスワードは含みません。
type TickerResponse struct {
	Symbol         string               `json:"symbol"`
	CompanyInfo    string               `json:"companyInfo"`
	CurrentPrice   float64              `json:"currentPrice"`
	DayOpen        float64              `json:"dayOpen"`
	DayHigh        float64              `json:"dayHigh"`
	DayLow         float64              `json:"dayLow"`
	Volume         int64                `json:"volume"`
	FiftyTwoWkHigh float64              `json:"fiftyTwoWkHigh"`
	FiftyTwoWkLow  float64              `json:"fiftyTwoWkLow"`
	Transactions   []string             `json:"transactions"`
	News           []entity.NewsItem    `json:"news"`
	LastResetDate  string               `json:"lastResetDate"`
	LastNewsHour   *int                 `json:"lastNewsHour"`
	PriceHistory   []entity.DailyCandle `json:"priceHistory"`
}

// NewTickerResponse は状態からレスポンスを組み立てます。
func NewTickerResponse(s *entity.TickerState) TickerResponse {
	return TickerResponse{
		Symbol:         s.Symbol,
		CompanyInfo:    s.CompanyInfo,
		CurrentPrice:   s.CurrentPrice,
		DayOpen:        s.DayOpen,
		DayHigh:        s.DayHigh,
		DayLow:         s.DayLow,
		Volume:         s.Volume,
		FiftyTwoWkHigh: s.FiftyTwoWkHigh,
		FiftyTwoWkLow:  s.FiftyTwoWkLow,
		Transactions:   s.Transactions,
		News:           s.News,
		LastResetDate:  s.LastResetDate,
		LastNewsHour:   s.LastNewsHour,
		PriceHistory:   s.PriceHistory,
	}
}

// OverrideResponse は価格上書き成功時のレスポンスです。
type OverrideResponse struct {
	Success  bool    `json:"success"`
	NewPrice float64 `json:"newPrice"`
}

// NewsResponse はニュース投稿成功時のレスポンスです。
type NewsResponse struct {
	Success bool            `json:"success"`
	News    entity.NewsItem `json:"news"`
}

// TransactionResponse は取引記録成功時のレスポンスです。
type TransactionResponse struct {
	Success     bool   `json:"success"`
	Transaction string `json:"transaction"`
}
