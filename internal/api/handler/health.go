package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// DependencyChecker は依存コンポーネント（DB、Redis等）の死活確認
type DependencyChecker func(ctx context.Context) error

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	checkers map[string]DependencyChecker
}

// NewHealthHandler はHealthHandlerを作成する
// checkers はnilでもよい（プロセスの生存確認のみになる）
func NewHealthHandler(checkers map[string]DependencyChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    string            `json:"timestamp"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description アプリケーションと依存コンポーネントの健全性を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse "依存コンポーネントに到達できない"
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	status := "ok"
	var deps map[string]string
	if len(h.checkers) > 0 {
		deps = make(map[string]string, len(h.checkers))
		for name, check := range h.checkers {
			if err := check(c.Request().Context()); err != nil {
				status = "degraded"
				deps[name] = err.Error()
				continue
			}
			deps[name] = "ok"
		}
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, HealthResponse{
		Status:       status,
		Timestamp:    time.Now().Format(time.RFC3339),
		Dependencies: deps,
	})
}
