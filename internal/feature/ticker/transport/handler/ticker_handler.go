// Package handler はtickerフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"ticker_backend/internal/feature/ticker/domain/entity"
	"ticker_backend/internal/feature/ticker/transport/http/dto"
	"ticker_backend/internal/feature/ticker/usecase"
)

// TickerUsecase はティッカー操作のユースケースインターフェースを定義します。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type TickerUsecase interface {
	Snapshot() *entity.TickerState
	Candles(ctx context.Context, limit int) ([]entity.DailyCandle, error)
	OverridePrice(ctx context.Context, password, rawPrice string) (float64, error)
	PostNews(ctx context.Context, password, title, content, media string) (entity.NewsItem, error)
	RecordTransaction(ctx context.Context, txType, rawQuantity, rawPrice string) (string, error)
}

// TickerHandler はティッカーのHTTPリクエストを処理します。
type TickerHandler struct {
	uc TickerUsecase
}

// NewTickerHandler は指定されたusecaseでTickerHandlerの新しいインスタンスを生成します。
func NewTickerHandler(uc TickerUsecase) *TickerHandler {
	return &TickerHandler{uc: uc}
}

// GetTicker は現在の状態をJSONで返します（パスワードを除く）。
//
// エンドポイント例:
// GET /engine-xie
func (h *TickerHandler) GetTicker(c *gin.Context) {
	c.JSON(http.StatusOK, dto.NewTickerResponse(h.uc.Snapshot()))
}

// GetCandles は確定済みの日足を新しい順に返します。
//
// エンドポイント例:
// GET /engine-xie/candles?limit=30
func (h *TickerHandler) GetCandles(c *gin.Context) {
	// 不正な値は0になり、usecaseでデフォルト値に置き換えられる
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(usecase.DefaultCandleLimit)))

	candles, err := h.uc.Candles(c.Request.Context(), limit)
	if err != nil {
		slog.Error("failed to load candles", "error", err)
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if candles == nil {
		candles = []entity.DailyCandle{}
	}
	c.JSON(http.StatusOK, candles)
}

// Override は管理者による価格上書きを処理します。
// - パスワード不一致は403
// - 価格が数値でなければ400
// - 成功時は {success, newPrice} を200で返却
func (h *TickerHandler) Override(c *gin.Context) {
	var req dto.OverrideRequest
	if err := bindBody(c, &req); err != nil {
		slog.Warn("override request decode failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}

	price, err := h.uc.OverridePrice(c.Request.Context(), req.Password, dto.RawNumber(req.NewPrice))
	if err != nil {
		h.writeError(c, "override", err)
		return
	}
	c.JSON(http.StatusOK, dto.OverrideResponse{Success: true, NewPrice: price})
}

// PostNews は管理者による手動ニュース投稿を処理します。
func (h *TickerHandler) PostNews(c *gin.Context) {
	var req dto.NewsRequest
	if err := bindBody(c, &req); err != nil {
		slog.Warn("news request decode failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}

	item, err := h.uc.PostNews(c.Request.Context(), req.Password, req.Title, req.Content, dto.MediaURL(req.Media))
	if err != nil {
		h.writeError(c, "post news", err)
		return
	}
	c.JSON(http.StatusOK, dto.NewsResponse{Success: true, News: item})
}

// RecordTransaction は売買記録を処理します。認証は不要です。
func (h *TickerHandler) RecordTransaction(c *gin.Context) {
	var req dto.TransactionRequest
	if err := bindBody(c, &req); err != nil {
		slog.Warn("transaction request decode failed", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request"})
		return
	}

	line, err := h.uc.RecordTransaction(c.Request.Context(), req.Type, dto.RawNumber(req.Quantity), dto.RawNumber(req.Price))
	if err != nil {
		h.writeError(c, "record transaction", err)
		return
	}
	c.JSON(http.StatusOK, dto.TransactionResponse{Success: true, Transaction: line})
}

// bindBody はJSONボディをreqへ読み込みます。
// ボディが空、またはJSON以外のContent-Typeの場合は空のリクエストとして扱い、
// パスワード検証（403）をユースケースに任せます。壊れたJSONのみエラーにします。
func bindBody(c *gin.Context, req any) error {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return nil
	}
	if !isJSONContentType(c.ContentType()) {
		return nil
	}
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func isJSONContentType(ct string) bool {
	return ct == binding.MIMEJSON || strings.HasSuffix(ct, "+json")
}

// writeError はユースケースのエラーをHTTPステータスに変換します。
func (h *TickerHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, usecase.ErrUnauthorized):
		slog.Warn(op+" rejected: wrong password", "remote_addr", c.ClientIP())
		c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "Wrong password"})
	case errors.Is(err, usecase.ErrInvalidInput):
		slog.Warn(op+" rejected: invalid input", "error", err, "remote_addr", c.ClientIP())
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
	default:
		slog.Error(op+" failed", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal error"})
	}
}
