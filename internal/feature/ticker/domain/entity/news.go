package entity

import "time"

const (
	// NewsTimestampLayout は NewsItem.Timestamp の書式です。
	NewsTimestampLayout = "2006-01-02T15:04:05.000Z07:00"
	// NewsDateLayout は NewsItem.Date の書式です（例: 10/5/2024）。
	NewsDateLayout = "1/2/2006"
	// NewsRetentionMonths はニュースの保持期間（月）です。
	NewsRetentionMonths = 3
)

// NewsItem はニュースフィードの1件を表します。
type NewsItem struct {
	Title     string  `json:"title"`
	Content   string  `json:"content"`
	Date      string  `json:"date"`
	Timestamp string  `json:"timestamp,omitempty"`
	ImageURL  *string `json:"imageUrl,omitempty"`
}

// Image は外部画像プロバイダーの検索結果です。
type Image struct {
	URL             string
	AttributionName string
}

// NewNewsItem は取引所タイムゾーンの now を基準にスタンプしたニュースを生成します。
func NewNewsItem(title, content string, now time.Time, imageURL *string) NewsItem {
	return NewsItem{
		Title:     title,
		Content:   content,
		Date:      now.Format(NewsDateLayout),
		Timestamp: now.UTC().Format(NewsTimestampLayout),
		ImageURL:  imageURL,
	}
}

// PublishedAt はニュースの公開時刻を返します。
// Timestamp を優先し、無い場合は Date（now と同じロケーションで解釈）にフォールバックします。
func (n NewsItem) PublishedAt(loc *time.Location) (time.Time, bool) {
	if n.Timestamp != "" {
		if t, err := time.Parse(time.RFC3339, n.Timestamp); err == nil {
			return t, true
		}
	}
	for _, layout := range []string{NewsDateLayout, "2006-01-02"} {
		if t, err := time.ParseInLocation(layout, n.Date, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// IsRetained は now から保持期間内のニュースであれば true を返します。
// 公開時刻を解釈できないニュースは保持しません。
func (n NewsItem) IsRetained(now time.Time) bool {
	published, ok := n.PublishedAt(now.Location())
	if !ok {
		return false
	}
	cutoff := now.AddDate(0, -NewsRetentionMonths, 0)
	return !published.Before(cutoff)
}
