package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/rishiqwerty/event-management-backend/internal/domain/event"
	"github.com/rishiqwerty/event-management-backend/internal/domain/reservation"
	"github.com/rishiqwerty/event-management-backend/internal/pkg/logger"
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

// statusFromDomainError はドメインエラーをHTTPステータスに対応付ける
// 通常はハンドラー側で変換済みだが、ハンドラーを経由せずに漏れてきた
// ドメインエラーもここで正しいステータスに落とし、一律500にしない
func statusFromDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, reservation.ErrSoldOut),
		errors.Is(err, reservation.ErrDuplicateReservation):
		return http.StatusConflict, err.Error()
	case errors.Is(err, event.ErrEventNotFound),
		errors.Is(err, reservation.ErrReservationNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, reservation.ErrEventIDRequired),
		errors.Is(err, reservation.ErrUserIDRequired):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "内部サーバーエラー"
	}
}

// CustomHTTPErrorHandler はカスタムエラーハンドラー
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var code int
	var message string

	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if m, ok := he.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		code, message = statusFromDomainError(err)
	}

	// エラーログを出力（5xx エラーの場合）
	if code >= 500 {
		logger.Error("サーバーエラー",
			zap.Int("status", code),
			zap.String("path", c.Request().URL.Path),
			zap.Error(err),
		)
	}

	// JSONレスポンスを返す
	if err := c.JSON(code, ErrorResponse{
		Error: message,
		Code:  code,
	}); err != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(err))
	}
}
