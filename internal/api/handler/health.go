package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandler はヘルスチェックハンドラー
type HealthHandler struct {
	status StatusServiceInterface
}

// NewHealthHandler はHealthHandlerを作成する
func NewHealthHandler(s StatusServiceInterface) *HealthHandler {
	return &HealthHandler{status: s}
}

// HealthResponse はヘルスチェックのレスポンス
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// DatabaseHealthResponse はDB接続確認のレスポンス
type DatabaseHealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Check はヘルスチェックを行う
// @Summary ヘルスチェック
// @Description アプリケーションの健全性を確認する
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (h *HealthHandler) Check(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().Format(time.RFC3339),
	})
}

// CheckDatabase はDBに接続してサーバーのバージョンを返す
// @Summary DB接続確認
// @Tags health
// @Produce json
// @Success 200 {object} DatabaseHealthResponse
// @Failure 503 {object} DatabaseHealthResponse
// @Router /health/db [get]
func (h *HealthHandler) CheckDatabase(c echo.Context) error {
	now := time.Now().Format(time.RFC3339)
	version, err := h.status.DatabaseVersion(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, DatabaseHealthResponse{
			Status: "unavailable", Error: err.Error(), Timestamp: now,
		})
	}
	return c.JSON(http.StatusOK, DatabaseHealthResponse{
		Status: "ok", Version: version, Timestamp: now,
	})
}
