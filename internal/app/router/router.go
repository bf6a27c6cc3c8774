package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	tickerhandler "ticker_backend/internal/feature/ticker/transport/handler"
	platformhandler "ticker_backend/internal/platform/http/handler"
	"ticker_backend/internal/platform/http/middleware"
)

// Options は公開するルート以外のルーター設定です。
type Options struct {
	// CORSAllowOrigin はカンマ区切りの許可オリジン。空の場合はすべて許可します。
	CORSAllowOrigin string
	// Metrics は /metrics で公開するハンドラー。nil の場合はルートを登録しません。
	Metrics http.Handler
}

func NewRouter(ticker *tickerhandler.TickerHandler, health *platformhandler.HealthHandler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	// ルート登録より前に適用しないと既存ルートには効かない
	r.Use(newCORS(opts.CORSAllowOrigin))

	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)
	r.OPTIONS("/healthz", health.Health)

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	// 認証不要（参照系と売買記録）
	r.GET("/engine-xie", ticker.GetTicker)
	r.GET("/price", ticker.GetTicker)
	r.GET("/engine-xie/candles", ticker.GetCandles)
	r.POST("/transaction", ticker.RecordTransaction)

	// 管理者パスワードはリクエストボディで検証する
	r.POST("/engine-xie/override", ticker.Override)
	r.POST("/engine", ticker.Override)
	r.POST("/engine-xie/news", ticker.PostNews)
	r.POST("/news", ticker.PostNews)

	return r
}

func newCORS(allowOrigin string) gin.HandlerFunc {
	origins := ParseOrigins(allowOrigin)
	if len(origins) == 0 {
		return cors.Default()
	}

	cfg := cors.DefaultConfig()
	cfg.AllowOrigins = origins
	if err := cfg.Validate(); err != nil {
		// cors.New はpanicするため、起動を止めずに全許可へ戻す
		slog.Error("invalid CORS_ALLOW_ORIGIN, allowing all origins", "value", allowOrigin, "error", err)
		return cors.Default()
	}
	return cors.New(cfg)
}

// ParseOrigins はカンマ区切りのオリジン指定を空要素を除いて分割します。
func ParseOrigins(allowOrigin string) []string {
	var origins []string
	for _, o := range strings.Split(allowOrigin, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
