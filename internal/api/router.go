package api

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sanosuguru/go-isolation-booking/internal/api/handler"
	"github.com/sanosuguru/go-isolation-booking/internal/api/middleware"
	"github.com/sanosuguru/go-isolation-booking/internal/pkg/metrics"
)

// Handlers はルーティング対象のハンドラー群
type Handlers struct {
	Health   *handler.HealthHandler
	Seat     *handler.SeatHandler
	Transfer *handler.TransferHandler
}

// NewServer はバリデーター・エラーハンドラー・ミドルウェア設定済みの Echo を作成
func NewServer(m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = CustomHTTPErrorHandler

	middleware.SetupMiddleware(e)
	e.Use(middleware.PrometheusMiddleware(m))
	return e
}

// RegisterRoutes はAPIルートを登録
func RegisterRoutes(e *echo.Echo, h Handlers, metricsCfg *middleware.MetricsConfig) {
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(metricsCfg))

	v1 := e.Group("/api/v1")
	v1.GET("/health", h.Health.Check)
	v1.GET("/health/db", h.Health.CheckDatabase)

	v1.GET("/seat", h.Seat.Get)
	v1.POST("/seat/book", h.Seat.Book)
	v1.POST("/seat/reset", h.Seat.Reset)

	v1.POST("/transfers", h.Transfer.Create)
	v1.GET("/balances", h.Transfer.Balances)
}
