// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// StatusSource はヘルスチェックに表示する稼働情報を提供します。
type StatusSource interface {
	Symbol() string
	LastTick() time.Time
}

// HealthResponse は /healthz のレスポンスです。
type HealthResponse struct {
	Status   string     `json:"status"`
	Symbol   string     `json:"symbol,omitempty"`
	LastTick *time.Time `json:"lastTick"`
}

// HealthHandler はサービスヘルスチェック用の /healthz エンドポイントを処理します。
type HealthHandler struct {
	status StatusSource
}

// NewHealthHandler は HealthHandler を生成します。status が nil の場合は稼働情報を省略します。
func NewHealthHandler(status StatusSource) *HealthHandler {
	return &HealthHandler{status: status}
}

// Health はHTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
// lastTick はまだ一度もティックしていなければ null です。
func (h *HealthHandler) Health(c *gin.Context) {
	// 明示的にキャッシュを防止
	c.Header("Cache-Control", "no-store")

	switch c.Request.Method {
	case http.MethodHead:
		c.Status(http.StatusOK)
	case http.MethodOptions:
		c.Status(http.StatusNoContent)
	default:
		c.JSON(http.StatusOK, h.body())
	}
}

func (h *HealthHandler) body() HealthResponse {
	resp := HealthResponse{Status: "ok"}
	if h.status == nil {
		return resp
	}
	resp.Symbol = h.status.Symbol()
	if last := h.status.LastTick(); !last.IsZero() {
		resp.LastTick = &last
	}
	return resp
}
