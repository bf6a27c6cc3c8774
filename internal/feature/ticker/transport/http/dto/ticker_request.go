// Package dto はtickerフィーチャーのHTTPトランスポート層のデータ転送オブジェクトを定義します。
package dto

import "strconv"

// OverrideRequest は /engine-xie/override のリクエストボディです。
// newPrice は数値・文字列のどちらでも受け付けます。
type OverrideRequest struct {
	Password string `json:"password"`
	NewPrice any    `json:"newPrice"`
}

// NewsRequest は /engine-xie/news のリクエストボディです。
type NewsRequest struct {
	Password string `json:"password"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	// Media は画像URLの文字列、または {"url": ...} 形式のオブジェクトを受け付けます。
	Media any `json:"media,omitempty"`
}

// TransactionRequest は /transaction のリクエストボディです。
type TransactionRequest struct {
	Type     string `json:"type"`
	Quantity any    `json:"quantity"`
	Price    any    `json:"price"`
}

// RawNumber はJSONの数値または文字列をユースケースに渡す文字列へ変換します。
// それ以外の型は空文字列になり、ユースケース側で不正な入力として扱われます。
func RawNumber(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return x
	default:
		return ""
	}
}

// mediaURLKeys はオブジェクト形式の media から画像URLを探すキーです。
var mediaURLKeys = []string{"url", "imageUrl", "src"}

// MediaURL は media フィールドを画像URLの文字列に正規化します。
// 文字列はそのまま、オブジェクトは url / imageUrl / src の順に文字列値を探します。
// それ以外は空文字列（画像なし）になります。
func MediaURL(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case map[string]any:
		for _, k := range mediaURLKeys {
			if s, ok := x[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
